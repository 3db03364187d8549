package session

import (
	"net/http"

	"github.com/printdesk/backend-print/internal/common"
)

// Handler exposes explicit session creation. Most clients never call it
// because Middleware opens sessions lazily, but the widget uses it to obtain
// an id before the first upload.
type Handler struct {
	Store *Store
}

// Create opens a fresh session and returns its id and expiry.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "session store not configured", nil)
		return
	}
	sess := h.Store.Create()
	expiresAt, _ := h.Store.ExpiresAt(sess.ID)
	w.Header().Set(HeaderSessionID, sess.ID.String())
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"sessionId": sess.ID.String(),
			"createdAt": sess.CreatedAt,
			"expiresAt": expiresAt,
		},
	})
}
