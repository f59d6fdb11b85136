package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/quarryhq/quarry/internal/logger"
	"github.com/quarryhq/quarry/pkg/auth"
	"github.com/quarryhq/quarry/pkg/metrics"
)

// requestLogger logs one line per finished request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.Debug("HTTP request",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.KeySize, ww.BytesWritten(),
			logger.KeyClientIP, r.RemoteAddr,
			logger.KeyDuration, time.Since(start).Round(time.Microsecond),
		)
	})
}

// metricsMiddleware counts finished requests by method and status.
func metricsMiddleware(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			m.RecordRequest(r.Method, strconv.Itoa(ww.Status()))
		})
	}
}

// authenticateToken resolves the access token from Basic credentials.
// Returns nil without error when no Basic credentials are present.
func (h *handler) authenticateToken(r *http.Request) (*auth.Token, error) {
	alias, secret, ok := r.BasicAuth()
	if !ok {
		return nil, nil
	}
	return h.deps.Tokens.Authenticate(alias, secret)
}

// requireManager guards management endpoints. It accepts a Bearer session
// token or Basic credentials of a manager access token.
func (h *handler) requireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			claims, err := h.deps.Sessions.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid session")
				return
			}
			if !claims.Manager {
				writeError(w, http.StatusForbidden, "manager access required")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		token, err := h.authenticateToken(r)
		if err != nil || token == nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="quarry"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !token.Manager {
			writeError(w, http.StatusForbidden, "manager access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
