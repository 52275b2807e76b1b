// Package http exposes the proxy over gin: media analysis uploads, chat
// completion and a liveness probe.
package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/logging"
	"github.com/dmitrijs2005/learnassist/internal/server/analysis"
)

// Analyzer is what the handlers need from the analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, kind analysis.Kind, filename string, data []byte, extra string) (string, error)
	Chat(ctx context.Context, messages []analysis.ChatMessage) (string, error)
}

type Options struct {
	ServiceName    string
	AllowOrigins   []string
	TokenSecret    string
	MaxUploadBytes int64
}

// NewRouter builds the engine. When opts.TokenSecret is empty the /api group
// is open.
func NewRouter(svc Analyzer, log logging.Logger, opts Options) *gin.Engine {
	if log == nil {
		log = logging.Nop{}
	}
	log = log.With("module", "http")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(opts.ServiceName))
	r.Use(requestLogger(log))
	if len(opts.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{common.AuthorizationHeaderName, "Content-Type", "X-Requested-With"},
		}))
	}

	h := &handler{svc: svc, log: log, maxUpload: opts.MaxUploadBytes}

	r.GET("/healthz", h.health)

	api := r.Group("/api")
	if opts.TokenSecret != "" {
		api.Use(requireToken([]byte(opts.TokenSecret), log))
	}
	api.POST("/upload/:type", h.upload)
	api.POST("/chat", h.chat)

	return r
}
