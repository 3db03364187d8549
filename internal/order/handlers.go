package order

import (
	"net/http"

	"github.com/printdesk/backend-print/internal/common"
	"github.com/printdesk/backend-print/internal/pricing"
)

// AggregatorResolver hands the handler the aggregator owned by the request's
// session.
type AggregatorResolver interface {
	Aggregator(r *http.Request) (*Aggregator, error)
}

// Handler exposes the current order over HTTP.
type Handler struct {
	Resolver AggregatorResolver
	Currency string
}

// Get returns the current order summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Resolver == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "aggregator resolver not configured", nil)
		return
	}
	agg, err := h.Resolver.Aggregator(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	ord := agg.CurrentOrder()
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"documents":    ord.Documents,
			"pricing":      ord.Pricing,
			"totalDisplay": pricing.FormatINR(ord.TotalAmount()),
			"currency":     h.Currency,
			"recomputedAt": ord.RecomputedAt,
		},
	})
}
