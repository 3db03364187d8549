package document

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/backend-print/internal/pricing"
)

type recordingObserver struct {
	calls     int
	lastDocs  []Document
	lastNames []string
}

func (o *recordingObserver) DocumentsChanged(docs []Document) {
	o.calls++
	o.lastDocs = docs
	o.lastNames = o.lastNames[:0]
	for _, d := range docs {
		o.lastNames = append(o.lastNames, d.Name)
	}
}

func TestRegisterAssignsDefaults(t *testing.T) {
	reg := NewRegistry(nil)
	doc, err := reg.Register("thesis.pdf", 1024, 12)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, doc.ID)
	require.Equal(t, 12, doc.PageCount)
	require.Equal(t, DefaultOptions(), doc.Options)
}

func TestRegisterRejectsBadMetadata(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Register("", 10, 1)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = reg.Register("empty.pdf", 10, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, reg.Len())
}

func TestInsertionOrderSurvivesRemoval(t *testing.T) {
	reg := NewRegistry(nil)
	a, err := reg.Register("a.pdf", 1, 1)
	require.NoError(t, err)
	b, err := reg.Register("b.pdf", 1, 1)
	require.NoError(t, err)
	c, err := reg.Register("c.pdf", 1, 1)
	require.NoError(t, err)

	require.NoError(t, reg.Remove(b.ID))
	docs := reg.List()
	require.Len(t, docs, 2)
	require.Equal(t, a.ID, docs[0].ID)
	require.Equal(t, c.ID, docs[1].ID)
}

func TestRemoveUnknownIDFails(t *testing.T) {
	reg := NewRegistry(nil)
	err := reg.Remove(uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetOptionsMergesPartialPatch(t *testing.T) {
	reg := NewRegistry(nil)
	doc, err := reg.Register("a.pdf", 1, 3)
	require.NoError(t, err)

	color := pricing.ColorModeColor
	updated, err := reg.SetOptions(doc.ID, OptionsPatch{ColorMode: &color})
	require.NoError(t, err)
	require.Equal(t, pricing.ColorModeColor, updated.Options.ColorMode)
	// Untouched fields keep their values.
	require.Equal(t, 1, updated.Options.Copies)
	require.Equal(t, LayoutSingle, updated.Options.Layout)
	require.Equal(t, PaperA4, updated.Options.PaperSize)
}

func TestSetOptionsCopiesBoundaries(t *testing.T) {
	reg := NewRegistry(nil)
	doc, err := reg.Register("a.pdf", 1, 3)
	require.NoError(t, err)

	for _, ok := range []int{1, 99} {
		copies := ok
		_, err := reg.SetOptions(doc.ID, OptionsPatch{Copies: &copies})
		require.NoError(t, err, "copies=%d should be accepted", ok)
	}
	for _, bad := range []int{0, 100, -5} {
		copies := bad
		_, err := reg.SetOptions(doc.ID, OptionsPatch{Copies: &copies})
		require.ErrorIs(t, err, ErrValidation, "copies=%d should be rejected", bad)
	}

	// Last accepted value survives the rejected patches.
	got, err := reg.Get(doc.ID)
	require.NoError(t, err)
	require.Equal(t, 99, got.Options.Copies)
}

func TestSetOptionsRejectsUnknownEnumValues(t *testing.T) {
	reg := NewRegistry(nil)
	doc, err := reg.Register("a.pdf", 1, 3)
	require.NoError(t, err)

	mode := pricing.ColorMode("sepia")
	_, err = reg.SetOptions(doc.ID, OptionsPatch{ColorMode: &mode})
	require.ErrorIs(t, err, ErrValidation)

	layout := Layout("booklet")
	_, err = reg.SetOptions(doc.ID, OptionsPatch{Layout: &layout})
	require.ErrorIs(t, err, ErrValidation)
}

func TestObserverSeesEveryMutation(t *testing.T) {
	reg := NewRegistry(nil)
	obs := &recordingObserver{}
	reg.Subscribe(obs)
	require.Equal(t, 1, obs.calls)

	doc, err := reg.Register("a.pdf", 1, 2)
	require.NoError(t, err)
	require.Equal(t, 2, obs.calls)
	require.Equal(t, []string{"a.pdf"}, obs.lastNames)

	copies := 3
	_, err = reg.SetOptions(doc.ID, OptionsPatch{Copies: &copies})
	require.NoError(t, err)
	require.Equal(t, 3, obs.calls)
	require.Equal(t, 3, obs.lastDocs[0].Options.Copies)

	require.NoError(t, reg.Remove(doc.ID))
	require.Equal(t, 4, obs.calls)
	require.Empty(t, obs.lastDocs)
}

func TestListReturnsDefensiveCopy(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Register("a.pdf", 1, 2)
	require.NoError(t, err)

	docs := reg.List()
	docs[0].Name = "tampered"
	fresh := reg.List()
	require.Equal(t, "a.pdf", fresh[0].Name)
}

func TestRegistryUsableAfterErrors(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Register("", 0, 0)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidInput))

	doc, err := reg.Register("ok.pdf", 1, 1)
	require.NoError(t, err)
	require.Equal(t, "ok.pdf", doc.Name)
}
