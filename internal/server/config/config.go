// Package config handles configuration for the AI proxy, including defaults,
// JSON overlay, command-line flags and the vendor key from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// EnvVendorKey names the environment variable holding the AI vendor key.
const EnvVendorKey = "GOOGLE_AI_API_KEY"

// Config holds runtime settings for the learnassist proxy.
//
// Fields:
//   - HTTPAddr / GRPCAddr: bind addresses of the REST API and the gRPC health service.
//   - VendorKey: AI vendor API key; normally taken from GOOGLE_AI_API_KEY.
//   - VendorEndpoint: overrides the vendor base URL (tests, regional endpoints).
//   - Model: vendor model name.
//   - TokenSecret: HMAC secret for client bearer tokens; empty disables auth.
//   - AllowOrigins: CORS origins allowed to call the API.
//   - RedisAddr / CacheTTL: optional analysis response cache.
//   - MaxUploadBytes: multipart bodies above this size are rejected.
//   - VendorTimeout: deadline of a single vendor call.
//   - LogMode: "development" or "production" zap encoding.
//   - TraceExporter / OTLPEndpoint: "", "stdout" or "otlp" span export.
type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	VendorKey       string
	VendorEndpoint  string
	Model           string
	TokenSecret     string
	AllowOrigins    []string
	RedisAddr       string
	CacheTTL        time.Duration
	MaxUploadBytes  int64
	VendorTimeout   time.Duration
	ShutdownTimeout time.Duration
	LogMode         string
	TraceExporter   string
	OTLPEndpoint    string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.GRPCAddr = ":50051"
	c.Model = "gemini-2.0-flash"
	c.AllowOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	c.CacheTTL = time.Hour
	c.MaxUploadBytes = 50 << 20
	c.VendorTimeout = 2 * time.Minute
	c.ShutdownTimeout = 10 * time.Second
	c.LogMode = "development"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, command-line flags and finally the
// environment.
func LoadConfig(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if getenv != nil {
		if key := strings.TrimSpace(getenv(EnvVendorKey)); key != "" {
			cfg.VendorKey = key
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.VendorKey == "" {
		return fmt.Errorf("config: %s is not set", EnvVendorKey)
	}
	if c.HTTPAddr == "" {
		return errors.New("config: http address required")
	}
	switch c.TraceExporter {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("config: unknown trace exporter %q", c.TraceExporter)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}
