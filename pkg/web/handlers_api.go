package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quarryhq/quarry/internal/logger"
	"github.com/quarryhq/quarry/pkg/auth"
	"github.com/quarryhq/quarry/pkg/failure"
	"github.com/quarryhq/quarry/pkg/stats"
)

type loginRequest struct {
	Alias  string `json:"alias"`
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin exchanges access-token credentials for a session JWT.
// Credentials come from the JSON body or Basic auth.
func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if alias, secret, ok := r.BasicAuth(); ok {
		req.Alias, req.Secret = alias, secret
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.deps.Tokens.Authenticate(req.Alias, req.Secret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	session, expiresAt, err := h.deps.Sessions.Issue(token)
	if err != nil {
		logger.Error("Failed to issue session", logger.KeyAlias, req.Alias, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue session")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: session, ExpiresAt: expiresAt})
}

// StatusResponse is the body of GET /api/v1/status, shared with the CLI
// client.
type StatusResponse struct {
	Alive         bool     `json:"alive"`
	Version       string   `json:"version"`
	Uptime        string   `json:"uptime"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Repositories  []string `json:"repositories"`
	Failures      int      `json:"failures"`
	TotalResolved uint64   `json:"total_resolved"`
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	uptime := h.deps.Status.Uptime()

	resolved, err := h.deps.Stats.TotalResolved()
	if err != nil {
		logger.Warn("Failed to read resolution total", "error", err)
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Alive:         h.deps.Status.Alive(),
		Version:       h.deps.Status.Version(),
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		Repositories:  h.deps.Repos.Names(),
		Failures:      h.deps.Failures.Count(),
		TotalResolved: resolved,
	})
}

// FailuresResponse is the body of GET /api/v1/failures.
type FailuresResponse struct {
	Failures []failure.Entry `json:"failures"`
}

func (h *handler) handleFailures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FailuresResponse{Failures: h.deps.Failures.Snapshot()})
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Total   uint64         `json:"total"`
	Records []stats.Record `json:"records"`
}

func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.deps.Stats.Top(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read statistics")
		return
	}

	total, err := h.deps.Stats.TotalResolved()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read statistics")
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{Total: total, Records: records})
}

type consoleRequest struct {
	Command string `json:"command"`
}

// handleConsole schedules a console command on the consumer loop and returns
// immediately. Command output goes to the server log; failures surface
// through the failure service.
func (h *handler) handleConsole(w http.ResponseWriter, r *http.Request) {
	var req consoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		writeError(w, http.StatusBadRequest, "command is required")
		return
	}

	line := req.Command
	h.deps.Scheduler.Schedule(func() error {
		return h.deps.Console.Execute(line)
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// TokenInfo is the public view of an access token.
type TokenInfo struct {
	Alias     string       `json:"alias"`
	Manager   bool         `json:"manager"`
	CreatedAt time.Time    `json:"created_at"`
	Routes    []auth.Route `json:"routes,omitempty"`
}

// TokensResponse is the body of GET /api/v1/tokens.
type TokensResponse struct {
	Tokens []TokenInfo `json:"tokens"`
}

// CreateTokenRequest is the body of POST /api/v1/tokens.
type CreateTokenRequest struct {
	Alias   string       `json:"alias"`
	Manager bool         `json:"manager"`
	Routes  []auth.Route `json:"routes"`
}

// CreateTokenResponse carries the one-time plaintext secret.
type CreateTokenResponse struct {
	Token  TokenInfo `json:"token"`
	Secret string    `json:"secret"`
}

func (h *handler) handleListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.deps.Tokens.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tokens")
		return
	}

	infos := make([]TokenInfo, 0, len(tokens))
	for _, t := range tokens {
		infos = append(infos, tokenInfo(t))
	}
	writeJSON(w, http.StatusOK, TokensResponse{Tokens: infos})
}

func (h *handler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Alias == "" {
		writeError(w, http.StatusBadRequest, "alias is required")
		return
	}

	token, secret, err := h.deps.Tokens.Create(req.Alias, req.Manager, req.Routes)
	if errors.Is(err, auth.ErrTokenExists) {
		writeError(w, http.StatusConflict, "token already exists")
		return
	}
	if err != nil {
		logger.Error("Failed to create token", logger.KeyAlias, req.Alias, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	logger.Info("Access token created", logger.KeyAlias, token.Alias, "manager", token.Manager)
	writeJSON(w, http.StatusCreated, CreateTokenResponse{Token: tokenInfo(token), Secret: secret})
}

func (h *handler) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")

	err := h.deps.Tokens.Delete(alias)
	if errors.Is(err, auth.ErrTokenNotFound) {
		writeError(w, http.StatusNotFound, "token not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete token")
		return
	}

	logger.Info("Access token deleted", logger.KeyAlias, alias)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func tokenInfo(t *auth.Token) TokenInfo {
	return TokenInfo{
		Alias:     t.Alias,
		Manager:   t.Manager,
		CreatedAt: t.CreatedAt,
		Routes:    t.Routes,
	}
}
