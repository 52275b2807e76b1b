package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/learnassist/internal/client/share"
	"github.com/spf13/pflag"
)

// Config holds runtime settings for the learnassist CLI.
type Config struct {
	BackendURL   string
	AssistantURL string

	DBPath   string
	LogLevel string
	// LogFile receives the debug log; empty means stderr.
	LogFile string

	RequestTimeout      time.Duration
	UploadTimeout       time.Duration
	Retries             int
	OnlineCheckInterval time.Duration

	UploadConcurrency int
	MaxUploadBytes    int64
	DownloadDir       string
	HistoryLimit      int

	// ProxySecret signs bearer tokens for the AI proxy; empty sends none.
	ProxySecret string

	Share share.Config
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://localhost:8001"
	c.AssistantURL = "http://localhost:3000"
	c.DBPath = "learnassist.db"
	c.LogLevel = "warn"
	c.LogFile = ""
	c.RequestTimeout = 30 * time.Second
	c.UploadTimeout = 10 * time.Minute
	c.Retries = 2
	c.OnlineCheckInterval = 5 * time.Second
	c.UploadConcurrency = 3
	c.MaxUploadBytes = 100 << 20
	c.DownloadDir = "downloads"
	c.HistoryLimit = 200
	c.Share = share.Config{Region: "us-east-1", LinkTTL: 7 * 24 * time.Hour}
}

// Load builds a Config from defaults, the file named by the "config" flag
// and the flags in fs the user set. fs must have been parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path, _ := fs.GetString(flagConfig); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyFlags(fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	for name, raw := range map[string]string{"backend_url": c.BackendURL, "assistant_url": c.AssistantURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: %s %q is not an absolute URL", name, raw)
		}
	}
	if c.UploadConcurrency < 1 {
		return fmt.Errorf("config: upload_concurrency must be at least 1, got %d", c.UploadConcurrency)
	}
	if c.Retries < 0 {
		return fmt.Errorf("config: retries must not be negative, got %d", c.Retries)
	}
	return nil
}
