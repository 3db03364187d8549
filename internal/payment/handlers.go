package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/printdesk/backend-print/internal/checkout"
	"github.com/printdesk/backend-print/internal/common"
)

// BridgeResolver hands the handler the session's checkout bridge.
type BridgeResolver interface {
	Bridge(r *http.Request) (*checkout.Bridge, error)
}

// Handler wires the mocked payment capability to HTTP.
type Handler struct {
	Svc      *Service
	Resolver BridgeResolver
}

// Intent creates a payment intent for an open checkout handle.
func (h *Handler) Intent(w http.ResponseWriter, r *http.Request) {
	bridge, ok := h.bridge(w, r)
	if !ok {
		return
	}
	var payload struct {
		HandleID string `json:"handleId"`
		Method   string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid payload", nil)
		return
	}
	handleID, err := uuid.Parse(payload.HandleID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid handle id", nil)
		return
	}
	resp, err := h.Svc.CreateIntent(r.Context(), bridge, handleID, payload.Method)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": resp})
}

// Confirm resolves a handle as paid.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.resolveHandler(w, r, checkout.OutcomeConfirmed)
}

// Cancel resolves a handle as cancelled; the order stays editable.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.resolveHandler(w, r, checkout.OutcomeCancelled)
}

func (h *Handler) resolveHandler(w http.ResponseWriter, r *http.Request, outcome checkout.Outcome) {
	bridge, ok := h.bridge(w, r)
	if !ok {
		return
	}
	handleID, err := uuid.Parse(chi.URLParam(r, "handleId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid handle id", nil)
		return
	}
	var payload struct {
		Method string `json:"method"`
	}
	// Body is optional; method defaults to upi.
	_ = json.NewDecoder(r.Body).Decode(&payload)

	var handle checkout.Handle
	if outcome == checkout.OutcomeConfirmed {
		handle, err = h.Svc.Confirm(r.Context(), bridge, handleID, payload.Method)
	} else {
		handle, err = h.Svc.Cancel(r.Context(), bridge, handleID, payload.Method)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": handle})
}

func (h *Handler) bridge(w http.ResponseWriter, r *http.Request) (*checkout.Bridge, bool) {
	if h.Svc == nil || h.Resolver == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "payment service not configured", nil)
		return nil, false
	}
	bridge, err := h.Resolver.Bridge(r)
	if err != nil {
		common.WriteError(w, err)
		return nil, false
	}
	return bridge, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrHandleNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	case errors.Is(err, checkout.ErrAlreadyResolved), errors.Is(err, ErrHandleNotPayable):
		common.JSONError(w, http.StatusConflict, common.CodeInvalidInput, err.Error(), nil)
	case errors.Is(err, ErrUnknownMethod), errors.Is(err, checkout.ErrInvalidOutcome):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}
