package handler

import (
	"net/http"

	"github.com/postpilot/postpilot-server/internal/logger"
	"github.com/postpilot/postpilot-server/internal/model"
)

// Me answers "who am I" from the authentication verdict alone.
type Me struct {
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewMe creates a new Me handler.
func NewMe(contextManager model.ContextManager, logger *logger.Logger) *Me {
	return &Me{contextManager: contextManager, logger: logger}
}

// Get returns the caller's pubkey.
func (h *Me) Get(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := h.contextManager.GetPubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authenticated identity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"pubkey": pubkey})
}
