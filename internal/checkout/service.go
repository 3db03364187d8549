package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/printdesk/backend-print/internal/document"
	"github.com/printdesk/backend-print/internal/events"
	"github.com/printdesk/backend-print/internal/obs"
	"github.com/printdesk/backend-print/internal/order"
	"github.com/printdesk/backend-print/internal/pricing"
)

// ErrEmptyOrder is returned when checkout is requested with no documents.
var ErrEmptyOrder = errors.New("order has no documents")

// ErrHandleNotFound indicates the checkout handle does not exist.
var ErrHandleNotFound = errors.New("checkout handle not found")

// ErrAlreadyResolved indicates the handle reached a terminal state.
var ErrAlreadyResolved = errors.New("checkout already resolved")

// ErrInvalidOutcome indicates a resolution value outside the known set.
var ErrInvalidOutcome = errors.New("invalid checkout outcome")

// State tracks an in-progress checkout.
type State string

const (
	StateSnapshotTaken State = "SNAPSHOT_TAKEN"
	StateConfirmed     State = "CONFIRMED"
	StateCancelled     State = "CANCELLED"
)

// Outcome is the resolution reported by the payment capability.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeCancelled Outcome = "cancelled"
)

// SnapshotLine is one document's frozen pricing breakdown.
type SnapshotLine struct {
	DocumentID uuid.UUID             `json:"documentId"`
	Name       string                `json:"name"`
	PageCount  int                   `json:"pageCount"`
	Options    document.PrintOptions `json:"options"`
	Subtotal   pricing.Money         `json:"subtotal"`
}

// Snapshot is an immutable copy of the order at the moment checkout was
// requested. Registry mutation after the snapshot never affects it.
type Snapshot struct {
	TotalAmount   pricing.Money  `json:"totalAmount"`
	DocumentCount int            `json:"documentCount"`
	PageCount     int            `json:"pageCount"`
	Lines         []SnapshotLine `json:"lines"`
	TakenAt       time.Time      `json:"takenAt"`
}

// Handle identifies one checkout attempt and its state.
type Handle struct {
	ID         uuid.UUID  `json:"id"`
	State      State      `json:"state"`
	Snapshot   Snapshot   `json:"snapshot"`
	Method     string     `json:"method,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// Bridge receives the aggregated order when the user proceeds to payment and
// reports completion or cancellation back. Each Request starts a fresh
// handle, independent of any prior attempt.
type Bridge struct {
	Events *events.Bus
	Now    func() time.Time

	mu      sync.Mutex
	handles map[uuid.UUID]*Handle
}

// NewBridge constructs a bridge with no outstanding handles.
func NewBridge(bus *events.Bus) *Bridge {
	return &Bridge{Events: bus, handles: make(map[uuid.UUID]*Handle)}
}

func (b *Bridge) now() time.Time {
	if b != nil && b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Request snapshots the order and opens a new checkout handle. An empty
// order is rejected; the user has nothing to pay for.
func (b *Bridge) Request(ctx context.Context, ord order.Order) (Handle, error) {
	if b == nil {
		return Handle{}, errors.New("checkout bridge not configured")
	}
	if ord.Empty() {
		countCheckout("empty_order")
		return Handle{}, ErrEmptyOrder
	}
	snapshot := Snapshot{
		TotalAmount:   ord.Pricing.Total,
		DocumentCount: ord.Pricing.DocumentCount,
		PageCount:     ord.Pricing.PageCount,
		Lines:         make([]SnapshotLine, 0, len(ord.Documents)),
		TakenAt:       b.now(),
	}
	for i, doc := range ord.Documents {
		var subtotal pricing.Money
		if i < len(ord.Pricing.Lines) {
			subtotal = ord.Pricing.Lines[i].Subtotal
		}
		snapshot.Lines = append(snapshot.Lines, SnapshotLine{
			DocumentID: doc.ID,
			Name:       doc.Name,
			PageCount:  doc.PageCount,
			Options:    doc.Options,
			Subtotal:   subtotal,
		})
	}
	handle := &Handle{
		ID:       uuid.New(),
		State:    StateSnapshotTaken,
		Snapshot: snapshot,
	}
	b.mu.Lock()
	if b.handles == nil {
		b.handles = make(map[uuid.UUID]*Handle)
	}
	b.handles[handle.ID] = handle
	out := *handle
	b.mu.Unlock()

	countCheckout("ok")
	if b.Events != nil {
		_, _ = b.Events.Emit(ctx, events.TopicCheckoutRequested, handle.ID.String(), map[string]any{
			"handleId":      handle.ID.String(),
			"totalAmount":   snapshot.TotalAmount,
			"documentCount": snapshot.DocumentCount,
			"pageCount":     snapshot.PageCount,
		})
	}
	return copyHandle(out), nil
}

// Resolve moves a handle to its terminal state. Confirmed is terminal
// success; cancelled returns the user to editing with the registry intact.
// A handle resolves exactly once.
func (b *Bridge) Resolve(ctx context.Context, id uuid.UUID, outcome Outcome, method string) (Handle, error) {
	if b == nil {
		return Handle{}, errors.New("checkout bridge not configured")
	}
	b.mu.Lock()
	handle, ok := b.handles[id]
	if !ok {
		b.mu.Unlock()
		return Handle{}, fmt.Errorf("handle %s: %w", id, ErrHandleNotFound)
	}
	if handle.State != StateSnapshotTaken {
		b.mu.Unlock()
		return Handle{}, fmt.Errorf("handle %s in state %s: %w", id, handle.State, ErrAlreadyResolved)
	}
	switch outcome {
	case OutcomeConfirmed:
		handle.State = StateConfirmed
	case OutcomeCancelled:
		handle.State = StateCancelled
	default:
		b.mu.Unlock()
		return Handle{}, fmt.Errorf("outcome %q: %w", outcome, ErrInvalidOutcome)
	}
	now := b.now()
	handle.Method = method
	handle.ResolvedAt = &now
	out := *handle
	b.mu.Unlock()

	if b.Events != nil {
		topic := events.TopicPaymentCancelled
		if outcome == OutcomeConfirmed {
			topic = events.TopicPaymentConfirmed
		}
		_, _ = b.Events.Emit(ctx, topic, id.String(), map[string]any{
			"handleId":    id.String(),
			"method":      method,
			"totalAmount": out.Snapshot.TotalAmount,
		})
	}
	return copyHandle(out), nil
}

// Get returns the handle with the given id.
func (b *Bridge) Get(id uuid.UUID) (Handle, error) {
	if b == nil {
		return Handle{}, errors.New("checkout bridge not configured")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	handle, ok := b.handles[id]
	if !ok {
		return Handle{}, fmt.Errorf("handle %s: %w", id, ErrHandleNotFound)
	}
	return copyHandle(*handle), nil
}

func countCheckout(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}

func copyHandle(h Handle) Handle {
	h.Snapshot.Lines = append([]SnapshotLine(nil), h.Snapshot.Lines...)
	if h.ResolvedAt != nil {
		resolved := *h.ResolvedAt
		h.ResolvedAt = &resolved
	}
	return h
}
