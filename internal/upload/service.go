package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/printdesk/backend-print/internal/document"
	"github.com/printdesk/backend-print/internal/events"
	"github.com/printdesk/backend-print/internal/obs"
)

// ErrBatchTooLarge indicates the batch exceeds the configured file limit.
var ErrBatchTooLarge = errors.New("too many files in batch")

// ErrFileTooLarge indicates one file exceeds the configured size limit.
var ErrFileTooLarge = errors.New("file too large")

// File is one opaque upload handle as received from the client.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// FileError reports a single file that could not be processed. A failed file
// never aborts the rest of the batch.
type FileError struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Result is the outcome of one batch: the documents committed to the
// registry in file-list order, the files excluded per-file, and whether the
// batch was cut short by cancellation.
type Result struct {
	Registered []document.Document `json:"registered"`
	Failed     []FileError         `json:"failed"`
	Cancelled  bool                `json:"cancelled"`
}

// Service turns upload batches into registered documents. Page counts for
// different files may resolve concurrently, but registration is strictly
// sequential in file-list order so insertion order and totals stay
// deterministic.
type Service struct {
	Counters    map[string]PageCounter
	Concurrency int
	MaxFiles    int
	MaxFileSize int64
	Events      *events.Bus
}

func (s *Service) concurrency() int {
	if s == nil || s.Concurrency <= 0 {
		return 4
	}
	return s.Concurrency
}

type countResult struct {
	pages int
	err   error
}

// Process resolves page counts and registers the batch. Cancellation via ctx
// stops further registrations but never rolls back documents already
// committed (partial success).
func (s *Service) Process(ctx context.Context, reg *document.Registry, files []File) (Result, error) {
	if s == nil || len(s.Counters) == 0 {
		return Result{}, errors.New("upload service not configured")
	}
	if reg == nil {
		return Result{}, errors.New("registry not configured")
	}
	if s.MaxFiles > 0 && len(files) > s.MaxFiles {
		return Result{}, fmt.Errorf("%d files exceeds limit %d: %w", len(files), s.MaxFiles, ErrBatchTooLarge)
	}
	ctx, span := otel.Tracer("upload.Service").Start(ctx, "UploadService.Process")
	defer span.End()
	span.SetAttributes(attribute.Int("upload.batch_size", len(files)))

	start := time.Now()
	defer func() {
		if obs.UploadBatchDuration != nil {
			obs.UploadBatchDuration.Observe(obs.DurationMillis(time.Since(start)))
		}
	}()

	results := make([]countResult, len(files))
	done := make([]chan struct{}, len(files))
	for i := range done {
		done[i] = make(chan struct{})
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency())
	for i := range files {
		eg.Go(func() error {
			defer close(done[i])
			if err := gctx.Err(); err != nil {
				results[i] = countResult{err: err}
				return nil
			}
			results[i] = s.countOne(gctx, files[i])
			return nil
		})
	}
	// Collected via done channels per index; Wait only releases the group.
	defer func() { _ = eg.Wait() }()

	var out Result
	for i, file := range files {
		select {
		case <-ctx.Done():
			out.Cancelled = true
		case <-done[i]:
		}
		if out.Cancelled {
			break
		}
		if err := results[i].err; err != nil {
			out.Failed = append(out.Failed, FileError{Name: file.Name, Reason: err.Error()})
			s.countMetric("failed")
			continue
		}
		doc, err := reg.Register(file.Name, file.Size, results[i].pages)
		if err != nil {
			out.Failed = append(out.Failed, FileError{Name: file.Name, Reason: err.Error()})
			s.countMetric("rejected")
			continue
		}
		out.Registered = append(out.Registered, doc)
		s.countMetric("registered")
		if s.Events != nil {
			_, _ = s.Events.Emit(ctx, events.TopicDocumentRegistered, doc.ID.String(), map[string]any{
				"documentId": doc.ID.String(),
				"name":       doc.Name,
				"pageCount":  doc.PageCount,
			})
		}
	}
	span.SetAttributes(
		attribute.Int("upload.registered", len(out.Registered)),
		attribute.Int("upload.failed", len(out.Failed)),
		attribute.Bool("upload.cancelled", out.Cancelled),
	)
	return out, nil
}

func (s *Service) countOne(ctx context.Context, file File) countResult {
	if s.MaxFileSize > 0 && file.Size > s.MaxFileSize {
		return countResult{err: fmt.Errorf("%d bytes exceeds limit %d: %w", file.Size, s.MaxFileSize, ErrFileTooLarge)}
	}
	counter, ok := s.Counters[normaliseContentType(file.ContentType)]
	if !ok {
		return countResult{err: fmt.Errorf("%s: %w", file.ContentType, ErrUnsupportedType)}
	}
	pages, err := counter.PageCount(ctx, file.Data)
	if err != nil {
		return countResult{err: err}
	}
	return countResult{pages: pages}
}

func (s *Service) countMetric(result string) {
	if obs.UploadFilesTotal != nil {
		obs.UploadFilesTotal.WithLabelValues(result).Inc()
	}
}

func normaliseContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}
