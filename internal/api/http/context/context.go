// Package context carries the authenticated pubkey through a request context.
package context

import (
	"context"

	"github.com/postpilot/postpilot-server/internal/model"
)

type pubkeyKey struct{}

var _ model.ContextManager = (*Manager)(nil)

// Manager implements model.ContextManager on top of context values.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetPubkeyToContext returns a child context carrying the pubkey.
func (m *Manager) SetPubkeyToContext(ctx context.Context, pubkey string) context.Context {
	return context.WithValue(ctx, pubkeyKey{}, pubkey)
}

// GetPubkeyFromContext returns the pubkey set by SetPubkeyToContext and a
// boolean indicating whether one was present.
func (m *Manager) GetPubkeyFromContext(ctx context.Context) (string, bool) {
	pubkey, ok := ctx.Value(pubkeyKey{}).(string)
	if !ok || pubkey == "" {
		return "", false
	}
	return pubkey, true
}
