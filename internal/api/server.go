// Package api serves an HTTP preview of conditional visibility: post a form,
// get it back with the rule service's decision applied.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/acptdev/condrules/internal/rulecache"
	"github.com/acptdev/condrules/internal/telemetry"
	"github.com/acptdev/condrules/internal/visibility"
)

const (
	maxBodyBytes   = 1 << 20
	requestTimeout = 30 * time.Second
)

// Server holds the dependencies of the preview API.
type Server struct {
	evaluator      visibility.Evaluator
	cache          *rulecache.Cache
	rateLimitPerIP int
	logger         zerolog.Logger
}

// NewServer creates a Server. cache may be nil, in which case cache routes
// answer 404 and renders never use a cached decision.
func NewServer(evaluator visibility.Evaluator, cache *rulecache.Cache, rateLimitPerIP int, logger zerolog.Logger) *Server {
	return &Server{
		evaluator:      evaluator,
		cache:          cache,
		rateLimitPerIP: rateLimitPerIP,
		logger:         logger,
	}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(telemetry.Middleware)
	if s.rateLimitPerIP > 0 {
		r.Use(httprate.Limit(s.rateLimitPerIP, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimitedError),
		))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Get("/cache", s.handleListCache)
		r.Get("/cache/{page}", s.handleGetCache)
		r.Delete("/cache/{page}", s.handleClearCache)
	})

	return r
}
