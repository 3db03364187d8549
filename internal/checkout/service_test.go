package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/backend-print/internal/document"
	"github.com/printdesk/backend-print/internal/order"
	"github.com/printdesk/backend-print/internal/pricing"
)

func buildOrder(t *testing.T) (*document.Registry, *order.Aggregator) {
	t.Helper()
	reg := document.NewRegistry(nil)
	agg := order.NewAggregator(pricing.DefaultPolicy())
	reg.Subscribe(agg)
	return reg, agg
}

func TestRequestRejectsEmptyOrder(t *testing.T) {
	_, agg := buildOrder(t)
	bridge := NewBridge(nil)
	_, err := bridge.Request(context.Background(), agg.CurrentOrder())
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestRequestSnapshotsBreakdown(t *testing.T) {
	reg, agg := buildOrder(t)
	a, err := reg.Register("a.pdf", 10, 3)
	require.NoError(t, err)
	color := pricing.ColorModeColor
	_, err = reg.SetOptions(a.ID, document.OptionsPatch{ColorMode: &color})
	require.NoError(t, err)
	_, err = reg.Register("b.pdf", 10, 2)
	require.NoError(t, err)

	bridge := NewBridge(nil)
	handle, err := bridge.Request(context.Background(), agg.CurrentOrder())
	require.NoError(t, err)
	require.Equal(t, StateSnapshotTaken, handle.State)
	require.Equal(t, pricing.Money(36), handle.Snapshot.TotalAmount)
	require.Equal(t, 2, handle.Snapshot.DocumentCount)
	require.Equal(t, 5, handle.Snapshot.PageCount)
	require.Len(t, handle.Snapshot.Lines, 2)
	require.Equal(t, a.ID, handle.Snapshot.Lines[0].DocumentID)
	require.Equal(t, pricing.Money(30), handle.Snapshot.Lines[0].Subtotal)
	require.Equal(t, pricing.Money(6), handle.Snapshot.Lines[1].Subtotal)
}

func TestSnapshotImmuneToLaterMutation(t *testing.T) {
	reg, agg := buildOrder(t)
	doc, err := reg.Register("a.pdf", 10, 3)
	require.NoError(t, err)

	bridge := NewBridge(nil)
	handle, err := bridge.Request(context.Background(), agg.CurrentOrder())
	require.NoError(t, err)

	require.NoError(t, reg.Remove(doc.ID))
	_, err = reg.Register("new.pdf", 10, 50)
	require.NoError(t, err)

	got, err := bridge.Get(handle.ID)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(9), got.Snapshot.TotalAmount)
	require.Equal(t, "a.pdf", got.Snapshot.Lines[0].Name)
}

func TestResolveOnce(t *testing.T) {
	reg, agg := buildOrder(t)
	_, err := reg.Register("a.pdf", 10, 1)
	require.NoError(t, err)

	bridge := NewBridge(nil)
	handle, err := bridge.Request(context.Background(), agg.CurrentOrder())
	require.NoError(t, err)

	resolved, err := bridge.Resolve(context.Background(), handle.ID, OutcomeConfirmed, "upi")
	require.NoError(t, err)
	require.Equal(t, StateConfirmed, resolved.State)
	require.Equal(t, "upi", resolved.Method)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = bridge.Resolve(context.Background(), handle.ID, OutcomeCancelled, "upi")
	require.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestCancelLeavesRegistryIntact(t *testing.T) {
	reg, agg := buildOrder(t)
	_, err := reg.Register("a.pdf", 10, 2)
	require.NoError(t, err)

	bridge := NewBridge(nil)
	handle, err := bridge.Request(context.Background(), agg.CurrentOrder())
	require.NoError(t, err)

	resolved, err := bridge.Resolve(context.Background(), handle.ID, OutcomeCancelled, "cash")
	require.NoError(t, err)
	require.Equal(t, StateCancelled, resolved.State)

	// Editing continues against the same registry state.
	require.Equal(t, 1, reg.Len())
	require.Equal(t, pricing.Money(6), agg.CurrentOrder().TotalAmount())
}

func TestEachRequestOpensFreshHandle(t *testing.T) {
	reg, agg := buildOrder(t)
	_, err := reg.Register("a.pdf", 10, 1)
	require.NoError(t, err)

	bridge := NewBridge(nil)
	first, err := bridge.Request(context.Background(), agg.CurrentOrder())
	require.NoError(t, err)
	_, err = bridge.Resolve(context.Background(), first.ID, OutcomeCancelled, "upi")
	require.NoError(t, err)

	second, err := bridge.Request(context.Background(), agg.CurrentOrder())
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, StateSnapshotTaken, second.State)
}

func TestResolveRejectsUnknownOutcome(t *testing.T) {
	reg, agg := buildOrder(t)
	_, err := reg.Register("a.pdf", 10, 1)
	require.NoError(t, err)

	bridge := NewBridge(nil)
	handle, err := bridge.Request(context.Background(), agg.CurrentOrder())
	require.NoError(t, err)

	_, err = bridge.Resolve(context.Background(), handle.ID, Outcome("refunded"), "upi")
	require.ErrorIs(t, err, ErrInvalidOutcome)

	// The handle stays open and resolves normally afterwards.
	resolved, err := bridge.Resolve(context.Background(), handle.ID, OutcomeConfirmed, "upi")
	require.NoError(t, err)
	require.Equal(t, StateConfirmed, resolved.State)
}

func TestResolveUnknownHandle(t *testing.T) {
	bridge := NewBridge(nil)
	_, err := bridge.Resolve(context.Background(), uuid.New(), OutcomeConfirmed, "upi")
	require.ErrorIs(t, err, ErrHandleNotFound)
}
