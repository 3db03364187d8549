package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrUnsupportedType indicates a file type the accepted-type filter should
// have rejected upstream.
var ErrUnsupportedType = errors.New("unsupported file type")

// PageCounter resolves the printable page count for one uploaded file.
type PageCounter interface {
	PageCount(ctx context.Context, data []byte) (int, error)
}

// PDFCounter extracts the page count from a PDF body.
type PDFCounter struct{}

// PageCount parses the document and returns its page count.
func (PDFCounter) PageCount(_ context.Context, data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %w", err)
	}
	if count < 1 {
		return 0, fmt.Errorf("pdf reports %d pages", count)
	}
	return count, nil
}

// FlatCounter reports a fixed page count, used for single-page image formats.
type FlatCounter struct {
	Pages int
}

// PageCount returns the fixed page count.
func (c FlatCounter) PageCount(context.Context, []byte) (int, error) {
	if c.Pages < 1 {
		return 1, nil
	}
	return c.Pages, nil
}

// DefaultCounters maps accepted content types onto their page counters.
func DefaultCounters() map[string]PageCounter {
	return map[string]PageCounter{
		"application/pdf": PDFCounter{},
		"image/png":       FlatCounter{Pages: 1},
		"image/jpeg":      FlatCounter{Pages: 1},
	}
}
