package config

import (
	"flag"
	"strings"

	"github.com/dmitrijs2005/learnassist/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string    HTTP bind address (e.g. ":3000")
//	-g string    gRPC health bind address; empty disables it
//	-m string    vendor model name
//	-e string    vendor endpoint override
//	-s string    bearer token HMAC secret
//	-o string    comma-separated CORS origins
//	-r string    redis address for the response cache
//	-t duration  response cache TTL
//	-b int       max upload size in bytes
//	-l string    log mode (development, production)
//	-x string    trace exporter (stdout, otlp)
//	-otlp string OTLP/HTTP collector endpoint
//
// args are filtered with flagx.FilterArgs first so -c/-config and unknown
// flags do not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-m", "-e", "-s", "-o", "-r", "-t", "-b", "-l", "-x", "-otlp"})

	fs := flag.NewFlagSet("learnassist-proxy", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&config.Model, "m", config.Model, "vendor model")
	fs.StringVar(&config.VendorEndpoint, "e", config.VendorEndpoint, "vendor endpoint")
	fs.StringVar(&config.TokenSecret, "s", config.TokenSecret, "token secret")
	origins := fs.String("o", strings.Join(config.AllowOrigins, ","), "CORS origins")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.DurationVar(&config.CacheTTL, "t", config.CacheTTL, "cache TTL")
	fs.Int64Var(&config.MaxUploadBytes, "b", config.MaxUploadBytes, "max upload bytes")
	fs.StringVar(&config.LogMode, "l", config.LogMode, "log mode")
	fs.StringVar(&config.TraceExporter, "x", config.TraceExporter, "trace exporter")
	fs.StringVar(&config.OTLPEndpoint, "otlp", config.OTLPEndpoint, "OTLP endpoint")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AllowOrigins = splitList(*origins)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
