package config

import (
	"github.com/spf13/pflag"
)

const (
	flagConfig         = "config"
	flagBackend        = "backend"
	flagAssistant      = "assistant"
	flagDB             = "db"
	flagLogLevel       = "log-level"
	flagLogFile        = "log-file"
	flagRequestTimeout = "request-timeout"
	flagUploadTimeout  = "upload-timeout"
	flagRetries        = "retries"
	flagOnlineCheck    = "online-check-interval"
	flagConcurrency    = "concurrency"
	flagMaxUploadBytes = "max-upload-bytes"
	flagDownloadDir    = "download-dir"
	flagHistoryLimit   = "history"
	flagProxySecret    = "proxy-secret"
	flagS3Bucket       = "s3-bucket"
	flagS3Endpoint     = "s3-endpoint"
)

// BindFlags registers the configuration flags on fs (typically a cobra
// command's persistent flags). Defaults shown in help come from
// LoadDefaults.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(flagConfig, "c", "", "path to a JSON or YAML config file")
	fs.String(flagBackend, d.BackendURL, "backend base URL")
	fs.String(flagAssistant, d.AssistantURL, "AI proxy base URL")
	fs.String(flagDB, d.DBPath, "local SQLite database path")
	fs.String(flagLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(flagLogFile, d.LogFile, "write logs to this file instead of stderr")
	fs.Duration(flagRequestTimeout, d.RequestTimeout, "timeout of a single API request")
	fs.Duration(flagUploadTimeout, d.UploadTimeout, "timeout of a single file upload")
	fs.Int(flagRetries, d.Retries, "retries of idempotent requests")
	fs.Duration(flagOnlineCheck, d.OnlineCheckInterval, "backend reachability probe interval")
	fs.Int(flagConcurrency, d.UploadConcurrency, "parallel uploads per batch")
	fs.Int64(flagMaxUploadBytes, d.MaxUploadBytes, "reject files larger than this before uploading (0 disables)")
	fs.String(flagDownloadDir, d.DownloadDir, "directory for downloaded card images")
	fs.Int(flagHistoryLimit, d.HistoryLimit, "messages restored at start-up")
	fs.String(flagProxySecret, d.ProxySecret, "shared secret for AI proxy tokens")
	fs.String(flagS3Bucket, "", "bucket for shared notes")
	fs.String(flagS3Endpoint, "", "S3-compatible endpoint for shared notes")
}

// applyFlags copies every flag the user set onto c.
func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case flagBackend:
			c.BackendURL, err = fs.GetString(f.Name)
		case flagAssistant:
			c.AssistantURL, err = fs.GetString(f.Name)
		case flagDB:
			c.DBPath, err = fs.GetString(f.Name)
		case flagLogLevel:
			c.LogLevel, err = fs.GetString(f.Name)
		case flagLogFile:
			c.LogFile, err = fs.GetString(f.Name)
		case flagRequestTimeout:
			c.RequestTimeout, err = fs.GetDuration(f.Name)
		case flagUploadTimeout:
			c.UploadTimeout, err = fs.GetDuration(f.Name)
		case flagRetries:
			c.Retries, err = fs.GetInt(f.Name)
		case flagOnlineCheck:
			c.OnlineCheckInterval, err = fs.GetDuration(f.Name)
		case flagConcurrency:
			c.UploadConcurrency, err = fs.GetInt(f.Name)
		case flagMaxUploadBytes:
			c.MaxUploadBytes, err = fs.GetInt64(f.Name)
		case flagDownloadDir:
			c.DownloadDir, err = fs.GetString(f.Name)
		case flagHistoryLimit:
			c.HistoryLimit, err = fs.GetInt(f.Name)
		case flagProxySecret:
			c.ProxySecret, err = fs.GetString(f.Name)
		case flagS3Bucket:
			c.Share.Bucket, err = fs.GetString(f.Name)
		case flagS3Endpoint:
			c.Share.Endpoint, err = fs.GetString(f.Name)
		}
	})
	return err
}
