package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/postpilot/postpilot-server/internal/logger"
	"github.com/postpilot/postpilot-server/internal/model"
)

// Media implements content-addressed blob storage for post attachments.
// Blobs are keyed by the hex sha256 of their content, so re-uploading the
// same bytes is a no-op and the key doubles as an integrity check.
type Media struct {
	storage model.BlobStorage
	baseURL string
	logger  *logger.Logger
}

// NewMedia creates a Media service. baseURL is the externally visible origin
// used to build download URLs.
func NewMedia(storage model.BlobStorage, baseURL string, logger *logger.Logger) *Media {
	return &Media{
		storage: storage,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Upload stores data and returns its descriptor.
func (s *Media) Upload(ctx context.Context, data []byte, contentType string) (model.MediaObject, error) {
	if len(data) == 0 {
		return model.MediaObject{}, fmt.Errorf("empty upload")
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	exists, err := s.storage.Exists(ctx, hash)
	if err != nil {
		return model.MediaObject{}, fmt.Errorf("failed to check blob existence: %w", err)
	}

	if !exists {
		if err := s.storage.Upload(ctx, hash, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			return model.MediaObject{}, fmt.Errorf("failed to upload blob: %w", err)
		}
	}

	return model.MediaObject{
		Hash:        hash,
		Size:        int64(len(data)),
		ContentType: contentType,
		URL:         s.baseURL + "/api/media/" + hash,
	}, nil
}

// Download streams a stored blob back by its hash.
func (s *Media) Download(ctx context.Context, hash string) (io.ReadCloser, error) {
	exists, err := s.storage.Exists(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to check blob existence: %w", err)
	}
	if !exists {
		return nil, model.ErrNotFound
	}

	reader, err := s.storage.Download(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}

	return reader, nil
}
