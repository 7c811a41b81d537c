package model

import "context"

// ContextManager moves the authenticated pubkey in and out of a request
// context. Handlers read the identity only through this interface so the
// transport layer stays swappable in tests.
type ContextManager interface {
	SetPubkeyToContext(ctx context.Context, pubkey string) context.Context
	GetPubkeyFromContext(ctx context.Context) (string, bool)
}
