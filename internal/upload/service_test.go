package upload

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printdesk/backend-print/internal/document"
	"github.com/printdesk/backend-print/internal/events"
)

type stubCounter struct {
	pages int
	err   error
}

func (c stubCounter) PageCount(context.Context, []byte) (int, error) {
	return c.pages, c.err
}

func testService(counters map[string]PageCounter) *Service {
	return &Service{Counters: counters, Concurrency: 2}
}

func TestProcessRegistersInFileOrder(t *testing.T) {
	reg := document.NewRegistry(nil)
	svc := testService(map[string]PageCounter{
		"application/pdf": stubCounter{pages: 4},
		"image/png":       FlatCounter{Pages: 1},
	})

	result, err := svc.Process(context.Background(), reg, []File{
		{Name: "a.pdf", Size: 10, ContentType: "application/pdf"},
		{Name: "b.png", Size: 10, ContentType: "image/png"},
		{Name: "c.pdf", Size: 10, ContentType: "application/pdf"},
	})
	require.NoError(t, err)
	require.False(t, result.Cancelled)
	require.Empty(t, result.Failed)
	require.Len(t, result.Registered, 3)
	require.Equal(t, "a.pdf", result.Registered[0].Name)
	require.Equal(t, "b.png", result.Registered[1].Name)
	require.Equal(t, "c.pdf", result.Registered[2].Name)
	require.Equal(t, 4, result.Registered[0].PageCount)
	require.Equal(t, 1, result.Registered[1].PageCount)

	docs := reg.List()
	require.Len(t, docs, 3)
	require.Equal(t, "a.pdf", docs[0].Name)
	require.Equal(t, "c.pdf", docs[2].Name)
}

func TestFailedFileDoesNotAbortBatch(t *testing.T) {
	reg := document.NewRegistry(nil)
	svc := testService(map[string]PageCounter{
		"application/pdf": stubCounter{pages: 2},
	})

	result, err := svc.Process(context.Background(), reg, []File{
		{Name: "a.pdf", Size: 10, ContentType: "application/pdf"},
		{Name: "weird.gif", Size: 10, ContentType: "image/gif"},
		{Name: "c.pdf", Size: 10, ContentType: "application/pdf"},
	})
	require.NoError(t, err)
	require.Len(t, result.Registered, 2)
	require.Len(t, result.Failed, 1)
	require.Equal(t, "weird.gif", result.Failed[0].Name)
	require.Equal(t, 2, reg.Len())
}

func TestCorruptFileReportsReason(t *testing.T) {
	reg := document.NewRegistry(nil)
	parseErr := errors.New("malformed xref table")
	svc := testService(map[string]PageCounter{
		"application/pdf": stubCounter{err: parseErr},
	})

	result, err := svc.Process(context.Background(), reg, []File{
		{Name: "broken.pdf", Size: 10, ContentType: "application/pdf"},
	})
	require.NoError(t, err)
	require.Empty(t, result.Registered)
	require.Len(t, result.Failed, 1)
	require.Contains(t, result.Failed[0].Reason, "malformed xref table")
}

func TestFileSizeLimitEnforcedPerFile(t *testing.T) {
	reg := document.NewRegistry(nil)
	svc := testService(map[string]PageCounter{
		"application/pdf": stubCounter{pages: 1},
	})
	svc.MaxFileSize = 100

	result, err := svc.Process(context.Background(), reg, []File{
		{Name: "small.pdf", Size: 50, ContentType: "application/pdf"},
		{Name: "huge.pdf", Size: 500, ContentType: "application/pdf"},
	})
	require.NoError(t, err)
	require.Len(t, result.Registered, 1)
	require.Len(t, result.Failed, 1)
	require.Equal(t, "huge.pdf", result.Failed[0].Name)
}

func TestBatchLimitRejectsWholeBatch(t *testing.T) {
	reg := document.NewRegistry(nil)
	svc := testService(map[string]PageCounter{
		"application/pdf": stubCounter{pages: 1},
	})
	svc.MaxFiles = 1

	_, err := svc.Process(context.Background(), reg, []File{
		{Name: "a.pdf", ContentType: "application/pdf"},
		{Name: "b.pdf", ContentType: "application/pdf"},
	})
	require.ErrorIs(t, err, ErrBatchTooLarge)
	require.Zero(t, reg.Len())
}

type cancelOnFirstRegister struct {
	cancel context.CancelFunc
}

func (n cancelOnFirstRegister) Notify(_ context.Context, event events.Event) error {
	if event.Topic == events.TopicDocumentRegistered {
		n.cancel()
	}
	return nil
}

func TestCancellationKeepsCommittedRegistrations(t *testing.T) {
	reg := document.NewRegistry(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := &events.Bus{
		Store:     events.NewMemoryLog(16),
		Notifiers: []events.Notifier{cancelOnFirstRegister{cancel: cancel}},
	}
	svc := testService(map[string]PageCounter{
		"application/pdf": stubCounter{pages: 1},
	})
	svc.Events = bus

	result, err := svc.Process(ctx, reg, []File{
		{Name: "a.pdf", Size: 10, ContentType: "application/pdf"},
		{Name: "b.pdf", Size: 10, ContentType: "application/pdf"},
	})
	require.NoError(t, err)

	// The first registration committed; nothing rolls back on cancellation.
	require.GreaterOrEqual(t, len(result.Registered), 1)
	require.Equal(t, "a.pdf", result.Registered[0].Name)
	require.Equal(t, len(result.Registered), reg.Len())
}

func TestNormaliseContentType(t *testing.T) {
	require.Equal(t, "application/pdf", normaliseContentType("application/pdf; charset=binary"))
	require.Equal(t, "image/jpeg", normaliseContentType("image/jpg"))
	require.Equal(t, "image/png", normaliseContentType(" IMAGE/PNG "))
}

func TestDefaultCountersCoverAcceptedTypes(t *testing.T) {
	counters := DefaultCounters()
	for _, ct := range []string{"application/pdf", "image/png", "image/jpeg"} {
		require.Contains(t, counters, ct)
	}
}
