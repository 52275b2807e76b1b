package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/learnassist/internal/flagx"
	"github.com/dmitrijs2005/learnassist/internal/timex"
)

// JsonConfig is the on-disk shape of the proxy config. Durations accept both
// "1m30s" strings and integer nanoseconds. Only keys present in the file
// override the defaults.
type JsonConfig struct {
	HTTPAddr        *string         `json:"http_addr"`
	GRPCAddr        *string         `json:"grpc_addr"`
	VendorKey       *string         `json:"vendor_key"`
	VendorEndpoint  *string         `json:"vendor_endpoint"`
	Model           *string         `json:"model"`
	TokenSecret     *string         `json:"token_secret"`
	AllowOrigins    []string        `json:"allow_origins"`
	RedisAddr       *string         `json:"redis_addr"`
	CacheTTL        *timex.Duration `json:"cache_ttl"`
	MaxUploadBytes  *int64          `json:"max_upload_bytes"`
	VendorTimeout   *timex.Duration `json:"vendor_timeout"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
	LogMode         *string         `json:"log_mode"`
	TraceExporter   *string         `json:"trace_exporter"`
	OTLPEndpoint    *string         `json:"otlp_endpoint"`
}

// parseJSON overlays the file named by -c/-config onto config. No flag means
// nothing to load.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	c := &JsonConfig{}
	if err := json.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.VendorKey, c.VendorKey)
	setString(&config.VendorEndpoint, c.VendorEndpoint)
	setString(&config.Model, c.Model)
	setString(&config.TokenSecret, c.TokenSecret)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogMode, c.LogMode)
	setString(&config.TraceExporter, c.TraceExporter)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)
	if c.AllowOrigins != nil {
		config.AllowOrigins = c.AllowOrigins
	}
	if c.CacheTTL != nil {
		config.CacheTTL = c.CacheTTL.Duration
	}
	if c.VendorTimeout != nil {
		config.VendorTimeout = c.VendorTimeout.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.MaxUploadBytes != nil {
		config.MaxUploadBytes = *c.MaxUploadBytes
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
