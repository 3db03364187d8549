package order

import (
	"sync"
	"time"

	"github.com/printdesk/backend-print/internal/document"
	"github.com/printdesk/backend-print/internal/pricing"
)

// Order is a derived, non-owning view of the registry: the live documents in
// insertion order plus the computed pricing summary. It is rebuilt as a whole
// on every registry mutation, never patched, so the total can never go stale.
type Order struct {
	Documents    []document.Document `json:"documents"`
	Pricing      pricing.Summary     `json:"pricing"`
	RecomputedAt time.Time           `json:"recomputedAt"`
}

// TotalAmount returns the aggregate price of all live documents.
func (o Order) TotalAmount() pricing.Money {
	return o.Pricing.Total
}

// Empty reports whether the order holds no documents.
func (o Order) Empty() bool {
	return len(o.Documents) == 0
}

// Aggregator derives the current order from registry snapshots. It is the
// single source of truth for the total: every read goes through
// CurrentOrder, nothing recomputes independently.
type Aggregator struct {
	Policy pricing.Policy
	Now    func() time.Time

	mu      sync.RWMutex
	current Order
}

// NewAggregator constructs an aggregator holding a valid empty order.
func NewAggregator(policy pricing.Policy) *Aggregator {
	a := &Aggregator{Policy: policy}
	a.current = a.build(nil)
	return a
}

// DocumentsChanged implements document.Observer. It runs synchronously on
// the registry's mutating call stack.
func (a *Aggregator) DocumentsChanged(docs []document.Document) {
	next := a.build(docs)
	a.mu.Lock()
	a.current = next
	a.mu.Unlock()
}

// CurrentOrder returns the most recently computed order. It is valid even
// with zero documents: empty list, total zero.
func (a *Aggregator) CurrentOrder() Order {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copyOrder(a.current)
}

func (a *Aggregator) build(docs []document.Document) Order {
	items := make([]pricing.Item, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.PricingItem())
	}
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	return Order{
		Documents:    append([]document.Document(nil), docs...),
		Pricing:      pricing.Compute(a.Policy, items),
		RecomputedAt: now,
	}
}

func copyOrder(o Order) Order {
	out := o
	out.Documents = append([]document.Document(nil), o.Documents...)
	out.Pricing.Lines = append([]pricing.Line(nil), o.Pricing.Lines...)
	return out
}
