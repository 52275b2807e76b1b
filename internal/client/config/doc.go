// Package config loads runtime configuration for the learnassist CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file given with -c/--config. Files ending in .yaml or
//     .yml are read as YAML, everything else as JSON. Only keys present in
//     the file override defaults.
//  3. Command-line flags registered by BindFlags. Only flags the user
//     actually set override earlier values.
//
// # File schema
//
// Durations accept strings like "30s" or integer nanoseconds:
//
//	{
//	  "backend_url": "http://localhost:8001",
//	  "assistant_url": "http://localhost:3000",
//	  "request_timeout": "30s",
//	  "upload_concurrency": 3,
//	  "s3": {"bucket": "notes", "endpoint": "http://127.0.0.1:9000"}
//	}
package config
