package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/learnassist/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for file unmarshalling. Pointer
// fields tell "absent" from "zero".
type FileConfig struct {
	BackendURL          *string         `json:"backend_url" yaml:"backend_url"`
	AssistantURL        *string         `json:"assistant_url" yaml:"assistant_url"`
	DBPath              *string         `json:"db_path" yaml:"db_path"`
	LogLevel            *string         `json:"log_level" yaml:"log_level"`
	LogFile             *string         `json:"log_file" yaml:"log_file"`
	RequestTimeout      *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	UploadTimeout       *timex.Duration `json:"upload_timeout" yaml:"upload_timeout"`
	Retries             *int            `json:"retries" yaml:"retries"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	UploadConcurrency   *int            `json:"upload_concurrency" yaml:"upload_concurrency"`
	MaxUploadBytes      *int64          `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	DownloadDir         *string         `json:"download_dir" yaml:"download_dir"`
	HistoryLimit        *int            `json:"history_limit" yaml:"history_limit"`
	ProxySecret         *string         `json:"proxy_secret" yaml:"proxy_secret"`
	S3                  *S3FileConfig   `json:"s3" yaml:"s3"`
}

type S3FileConfig struct {
	Region    string         `json:"region" yaml:"region"`
	Endpoint  string         `json:"endpoint" yaml:"endpoint"`
	Bucket    string         `json:"bucket" yaml:"bucket"`
	AccessKey string         `json:"access_key" yaml:"access_key"`
	SecretKey string         `json:"secret_key" yaml:"secret_key"`
	LinkTTL   timex.Duration `json:"link_ttl" yaml:"link_ttl"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.overlay(fc)
	return nil
}

func (c *Config) overlay(fc FileConfig) {
	setString(&c.BackendURL, fc.BackendURL)
	setString(&c.AssistantURL, fc.AssistantURL)
	setString(&c.DBPath, fc.DBPath)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFile, fc.LogFile)
	setString(&c.DownloadDir, fc.DownloadDir)
	setString(&c.ProxySecret, fc.ProxySecret)

	if fc.RequestTimeout != nil {
		c.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.UploadTimeout != nil {
		c.UploadTimeout = fc.UploadTimeout.Duration
	}
	if fc.OnlineCheckInterval != nil {
		c.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.Retries != nil {
		c.Retries = *fc.Retries
	}
	if fc.UploadConcurrency != nil {
		c.UploadConcurrency = *fc.UploadConcurrency
	}
	if fc.MaxUploadBytes != nil {
		c.MaxUploadBytes = *fc.MaxUploadBytes
	}
	if fc.HistoryLimit != nil {
		c.HistoryLimit = *fc.HistoryLimit
	}

	if s := fc.S3; s != nil {
		if s.Region != "" {
			c.Share.Region = s.Region
		}
		c.Share.Endpoint = s.Endpoint
		c.Share.Bucket = s.Bucket
		c.Share.AccessKey = s.AccessKey
		c.Share.SecretKey = s.SecretKey
		if s.LinkTTL.Duration > 0 {
			c.Share.LinkTTL = s.LinkTTL.Duration
		}
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
