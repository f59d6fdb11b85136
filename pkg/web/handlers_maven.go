package web

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quarryhq/quarry/internal/logger"
	"github.com/quarryhq/quarry/pkg/repository"
)

type deployResponse struct {
	Repository string `json:"repository"`
	Path       string `json:"path"`
	Size       int64  `json:"size"`
}

// handleDownload serves GET and HEAD for artifacts. Hidden repositories
// require a token with read access to the artifact path.
func (h *handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	repoName := chi.URLParam(r, "repository")
	artifact := chi.URLParam(r, "*")

	repo, err := h.deps.Repos.Get(repoName)
	if err != nil {
		writeError(w, http.StatusNotFound, "repository not found")
		return
	}

	if !repo.IsPublic() {
		token, err := h.authenticateToken(r)
		if err != nil || token == nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="quarry"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !token.CanRead("/" + repoName + "/" + artifact) {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}
	}

	reader, info, err := repo.Get(artifact)
	if err != nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(artifact))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	if _, err := io.Copy(w, reader); err != nil {
		logger.Debug("Download aborted", logger.KeyRepository, repoName, logger.KeyPath, artifact, "error", err)
		return
	}

	// Metadata and checksum fetches are plumbing, not resolutions.
	if !repository.IsMetadataPath(artifact) {
		h.deps.Stats.Record(repoName, artifact)
		h.deps.Metrics.RecordDownload()
	}
}

// handleDeploy accepts PUT uploads from build tools. Deploys always require
// a token with write access to the artifact path.
func (h *handler) handleDeploy(w http.ResponseWriter, r *http.Request) {
	repoName := chi.URLParam(r, "repository")
	artifact := chi.URLParam(r, "*")

	repo, err := h.deps.Repos.Get(repoName)
	if err != nil {
		writeError(w, http.StatusNotFound, "repository not found")
		return
	}

	token, err := h.authenticateToken(r)
	if err != nil || token == nil {
		w.Header().Set("WWW-Authenticate", `Basic realm="quarry"`)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !token.CanWrite("/" + repoName + "/" + artifact) {
		writeError(w, http.StatusForbidden, "deploy access denied")
		return
	}

	written, err := repo.Put(artifact, r.Body)
	switch {
	case errors.Is(err, repository.ErrDeployDisabled):
		writeError(w, http.StatusMethodNotAllowed, "deployment is disabled for this repository")
		return
	case errors.Is(err, repository.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "invalid artifact path")
		return
	case err != nil:
		logger.Error("Deploy failed", logger.KeyRepository, repoName, logger.KeyPath, artifact, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store artifact")
		return
	}

	logger.Info("Artifact deployed",
		logger.KeyRepository, repoName,
		logger.KeyPath, artifact,
		logger.KeySize, written,
		logger.KeyAlias, token.Alias,
	)
	h.deps.Metrics.RecordDeploy()

	writeJSON(w, http.StatusCreated, deployResponse{
		Repository: repoName,
		Path:       artifact,
		Size:       written,
	})
}
