package order

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printdesk/backend-print/internal/document"
	"github.com/printdesk/backend-print/internal/pricing"
)

func newWiredRegistry(t *testing.T) (*document.Registry, *Aggregator) {
	t.Helper()
	reg := document.NewRegistry(nil)
	agg := NewAggregator(pricing.DefaultPolicy())
	reg.Subscribe(agg)
	return reg, agg
}

func TestEmptyOrderIsValid(t *testing.T) {
	agg := NewAggregator(pricing.DefaultPolicy())
	ord := agg.CurrentOrder()
	require.True(t, ord.Empty())
	require.Zero(t, ord.TotalAmount())
}

func TestTotalTracksEveryMutation(t *testing.T) {
	reg, agg := newWiredRegistry(t)

	doc, err := reg.Register("a.pdf", 100, 3)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(9), agg.CurrentOrder().TotalAmount())

	color := pricing.ColorModeColor
	_, err = reg.SetOptions(doc.ID, document.OptionsPatch{ColorMode: &color})
	require.NoError(t, err)
	require.Equal(t, pricing.Money(30), agg.CurrentOrder().TotalAmount())

	copies := 2
	_, err = reg.SetOptions(doc.ID, document.OptionsPatch{Copies: &copies})
	require.NoError(t, err)
	require.Equal(t, pricing.Money(60), agg.CurrentOrder().TotalAmount())

	require.NoError(t, reg.Remove(doc.ID))
	ord := agg.CurrentOrder()
	require.True(t, ord.Empty())
	require.Zero(t, ord.TotalAmount())
}

func TestTotalAfterRemovingOneOfTwoDocuments(t *testing.T) {
	reg, agg := newWiredRegistry(t)

	first, err := reg.Register("one-pager.pdf", 10, 1)
	require.NoError(t, err)
	_, err = reg.Register("five-pager.pdf", 10, 5)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(18), agg.CurrentOrder().TotalAmount())

	require.NoError(t, reg.Remove(first.ID))
	ord := agg.CurrentOrder()
	require.Equal(t, pricing.Money(15), ord.TotalAmount())
	require.Len(t, ord.Documents, 1)
	require.Equal(t, "five-pager.pdf", ord.Documents[0].Name)
}

func TestLayoutAndPaperNeverAffectPrice(t *testing.T) {
	reg, agg := newWiredRegistry(t)
	doc, err := reg.Register("a.pdf", 100, 4)
	require.NoError(t, err)
	before := agg.CurrentOrder().TotalAmount()

	layout := document.LayoutDouble
	paper := document.PaperLetter
	_, err = reg.SetOptions(doc.ID, document.OptionsPatch{Layout: &layout, PaperSize: &paper})
	require.NoError(t, err)
	require.Equal(t, before, agg.CurrentOrder().TotalAmount())
}

func TestOrderListsDocumentsInInsertionOrder(t *testing.T) {
	reg, agg := newWiredRegistry(t)
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		_, err := reg.Register(name, 10, 1)
		require.NoError(t, err)
	}
	ord := agg.CurrentOrder()
	require.Len(t, ord.Documents, 3)
	require.Equal(t, "a.pdf", ord.Documents[0].Name)
	require.Equal(t, "c.pdf", ord.Documents[2].Name)
	require.Len(t, ord.Pricing.Lines, 3)
}

func TestCurrentOrderReturnsCopy(t *testing.T) {
	reg, agg := newWiredRegistry(t)
	_, err := reg.Register("a.pdf", 10, 2)
	require.NoError(t, err)

	ord := agg.CurrentOrder()
	ord.Documents[0].Name = "tampered"
	ord.Pricing.Lines[0].Subtotal = 999

	fresh := agg.CurrentOrder()
	require.Equal(t, "a.pdf", fresh.Documents[0].Name)
	require.Equal(t, pricing.Money(6), fresh.Pricing.Lines[0].Subtotal)
}
