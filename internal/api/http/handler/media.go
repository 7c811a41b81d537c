package handler

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/postpilot/postpilot-server/internal/logger"
	"github.com/postpilot/postpilot-server/internal/model"
)

// MediaService defines operations for content-addressed media blobs.
type MediaService interface {
	Upload(ctx context.Context, data []byte, contentType string) (model.MediaObject, error)
	Download(ctx context.Context, hash string) (io.ReadCloser, error)
}

// Media handles HTTP endpoints for media uploads.
type Media struct {
	mediaService   MediaService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewMedia creates a new Media handler.
func NewMedia(mediaService MediaService, contextManager model.ContextManager, logger *logger.Logger) *Media {
	return &Media{
		mediaService:   mediaService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type mediaResponse struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Upload stores the request body as a blob. The auth layer has already bound
// the body to the signed payload hash, so the content is exactly what the
// caller signed.
func (h *Media) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.contextManager.GetPubkeyFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "missing authenticated identity")
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty upload")
		return
	}

	object, err := h.mediaService.Upload(r.Context(), data, r.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Error("failed to upload media", "error", err)
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"item": mediaResponse{
		Hash: object.Hash,
		Size: object.Size,
		URL:  object.URL,
	}})
}

// Download streams a stored blob back by its sha256 hash.
func (h *Media) Download(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if len(hash) != 64 {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}
	if _, err := hex.DecodeString(hash); err != nil {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}

	reader, err := h.mediaService.Download(r.Context(), hash)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "media not found")
			return
		}
		handleError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("failed to stream media", "hash", hash, "error", err)
	}
}
