package checkout

import (
	"errors"
	"net/http"

	"github.com/printdesk/backend-print/internal/common"
	"github.com/printdesk/backend-print/internal/order"
	"github.com/printdesk/backend-print/internal/pricing"
)

// Resolver hands the handler the session's bridge and aggregator.
type Resolver interface {
	Bridge(r *http.Request) (*Bridge, error)
	Aggregator(r *http.Request) (*order.Aggregator, error)
}

// Handler wires the checkout bridge to HTTP.
type Handler struct {
	Resolver Resolver
}

// Checkout snapshots the current order and opens a checkout handle.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Resolver == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout resolver not configured", nil)
		return
	}
	agg, err := h.Resolver.Aggregator(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	bridge, err := h.Resolver.Bridge(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	handle, err := bridge.Request(r.Context(), agg.CurrentOrder())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"handle":       handle,
			"totalDisplay": pricing.FormatINR(handle.Snapshot.TotalAmount),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyOrder):
		common.JSONError(w, http.StatusBadRequest, common.CodeEmptyOrder, err.Error(), nil)
	case errors.Is(err, ErrHandleNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}
