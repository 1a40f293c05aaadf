// Package server is the HTTP boundary: routing, admission control and the
// mapping from pipeline errors to status codes.
package server

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/Kalpithaac/enitity/internal/config"
	"github.com/Kalpithaac/enitity/internal/logger"
	"github.com/Kalpithaac/enitity/internal/types"
)

// Extractor is the pipeline behind POST /extract-fields.
type Extractor interface {
	Process(ctx context.Context, req types.ExtractionRequest) (types.FieldValues, error)
}

type Server struct {
	cfg  config.Config
	proc Extractor
	log  *logger.Logger

	sem      *semaphore.Weighted
	limiters sync.Map // client ip -> *rate.Limiter
}

func New(cfg config.Config, proc Extractor, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	weight := cfg.MaxConcurrentRequests
	if weight <= 0 {
		weight = 32
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 20
	}
	return &Server{
		cfg:  cfg,
		proc: proc,
		log:  log,
		sem:  semaphore.NewWeighted(weight),
	}
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", withMethod(http.MethodGet, s.handleHealth))
	mux.HandleFunc("/extract-fields", withMethod(http.MethodPost,
		s.withRateLimit(s.withConcurrencyLimit(s.handleExtract))))
	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = s.withRecovery(h)
	h = withCORS(h)
	h = s.withLogging(h)
	h = s.withRequestID(h)
	return h
}

// NewHTTPServer builds the listener side from the same configuration.
func (s *Server) NewHTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
}
