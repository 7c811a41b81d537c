package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/postpilot/postpilot-server/internal/httpauth"
	"github.com/postpilot/postpilot-server/internal/logger"
	"github.com/postpilot/postpilot-server/internal/model"
)

// Validator decides whether a request carries a valid auth header.
type Validator interface {
	Validate(r *http.Request) httpauth.Verdict
}

// Authenticate rejects requests without a valid signed auth header and
// injects the authenticated pubkey into the request context.
type Authenticate struct {
	validator      Validator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(validator Validator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{validator: validator, contextManager: contextManager, logger: logger}
}

// Handle validates the request and either writes the verdict's failure
// response or forwards with the pubkey in context. The body consumed during
// validation is restored so handlers read it as usual.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verdict := m.validator.Validate(r)
		if !verdict.Valid {
			m.logger.Debug("rejected request",
				"method", r.Method,
				"path", r.URL.Path,
				"reason", verdict.Error)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(verdict.Status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": verdict.Error})
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(verdict.Body))
		ctx := m.contextManager.SetPubkeyToContext(r.Context(), verdict.Pubkey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
