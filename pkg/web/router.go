package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quarryhq/quarry/pkg/auth"
	"github.com/quarryhq/quarry/pkg/console"
	"github.com/quarryhq/quarry/pkg/executor"
	"github.com/quarryhq/quarry/pkg/failure"
	"github.com/quarryhq/quarry/pkg/metrics"
	"github.com/quarryhq/quarry/pkg/repository"
	"github.com/quarryhq/quarry/pkg/stats"
)

// StatusProvider is the view of the running process the status endpoint
// needs. Satisfied by lifecycle.Controller.
type StatusProvider interface {
	Alive() bool
	Uptime() time.Duration
	Version() string
}

// Scheduler hands work off to the process's consumer loop.
type Scheduler interface {
	Schedule(task executor.Task)
}

// Deps are the collaborators the HTTP handlers dispatch to.
type Deps struct {
	Status    StatusProvider
	Repos     *repository.Service
	Stats     *stats.Service
	Failures  *failure.Service
	Tokens    *auth.TokenStore
	Sessions  *auth.SessionService
	Console   *console.Console
	Scheduler Scheduler
	Metrics   *metrics.HTTPMetrics
}

// NewRouter builds the full route tree: Maven endpoints at the root,
// management API under /api/v1.
func NewRouter(deps Deps) http.Handler {
	h := &handler{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metricsMiddleware(deps.Metrics))

	r.Get("/health", h.handleHealth)

	if metrics.IsEnabled() {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireManager)

			r.Get("/status", h.handleStatus)
			r.Get("/failures", h.handleFailures)
			r.Get("/stats", h.handleStats)
			r.Post("/console", h.handleConsole)

			r.Route("/tokens", func(r chi.Router) {
				r.Get("/", h.handleListTokens)
				r.Post("/", h.handleCreateToken)
				r.Delete("/{alias}", h.handleDeleteToken)
			})
		})
	})

	// Maven surface. Static /api, /health and /metrics routes take priority
	// over the repository parameter.
	r.Get("/{repository}/*", h.handleDownload)
	r.Head("/{repository}/*", h.handleDownload)
	r.Put("/{repository}/*", h.handleDeploy)

	return r
}
