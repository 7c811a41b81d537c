package httpauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

// Builder constructs single-use Authorization header values for outgoing
// requests. Each call produces a fresh event, so two requests never share a
// credential even when method, URL and body are identical.
type Builder struct {
	signer nostr.Signer
}

// NewBuilder creates a Builder backed by the given signing capability.
func NewBuilder(signer nostr.Signer) *Builder {
	return &Builder{signer: signer}
}

// Build returns the Authorization header value for one request. The URL must
// be the absolute URL the request is sent to, byte-for-byte: the server
// matches it as an exact string, query included.
func (b *Builder) Build(ctx context.Context, method, url string, body []byte) (string, error) {
	tags := nostr.Tags{
		{TagURL, url},
		{TagMethod, strings.ToUpper(method)},
	}
	if len(body) > 0 {
		sum := sha256.Sum256(body)
		tags = append(tags, nostr.Tag{TagPayload, hex.EncodeToString(sum[:])})
	}

	evt := nostr.Event{
		CreatedAt: nostr.Now(),
		Kind:      KindHTTPAuth,
		Tags:      tags,
		Content:   "",
	}

	if err := b.signer.SignEvent(ctx, &evt); err != nil {
		return "", fmt.Errorf("failed to sign auth event: %w", err)
	}

	return EncodeHeader(&evt)
}
