package model

import (
	"context"
	"io"
)

// BlobStorage stores media blobs under content-addressed keys.
type BlobStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MediaObject describes an uploaded blob. Hash is the hex sha256 of the
// content and doubles as the storage key.
type MediaObject struct {
	Hash        string
	Size        int64
	ContentType string
	URL         string
}
