package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/printdesk/backend-print/internal/pricing"
)

// Layout selects single or double sided printing. It never affects price.
type Layout string

const (
	LayoutSingle Layout = "single"
	LayoutDouble Layout = "double"
)

// PaperSize selects the output paper. It never affects price.
type PaperSize string

const (
	PaperA4     PaperSize = "a4"
	PaperLetter PaperSize = "letter"
)

// PrintOptions is the per-document option state.
type PrintOptions struct {
	Copies    int               `json:"copies"`
	ColorMode pricing.ColorMode `json:"colorMode"`
	Layout    Layout            `json:"layout"`
	PaperSize PaperSize         `json:"paperSize"`
}

// DefaultOptions returns the option state assigned at registration.
func DefaultOptions() PrintOptions {
	return PrintOptions{
		Copies:    1,
		ColorMode: pricing.ColorModeBW,
		Layout:    LayoutSingle,
		PaperSize: PaperA4,
	}
}

// OptionsPatch carries a partial option update. Only non-nil fields are
// merged into the existing option set.
type OptionsPatch struct {
	Copies    *int               `json:"copies" validate:"omitempty,min=1,max=99"`
	ColorMode *pricing.ColorMode `json:"colorMode" validate:"omitempty,oneof=bw color"`
	Layout    *Layout            `json:"layout" validate:"omitempty,oneof=single double"`
	PaperSize *PaperSize         `json:"paperSize" validate:"omitempty,oneof=a4 letter"`
}

// Document is one uploaded print job. Name, SizeBytes and PageCount are
// immutable after registration; changing a file's content is modelled as
// remove plus re-add.
type Document struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	SizeBytes    int64        `json:"sizeBytes"`
	PageCount    int          `json:"pageCount"`
	Options      PrintOptions `json:"options"`
	RegisteredAt time.Time    `json:"registeredAt"`
}

// PricingItem maps the document onto a pricing line input.
func (d Document) PricingItem() pricing.Item {
	return pricing.Item{
		PageCount: d.PageCount,
		Copies:    d.Options.Copies,
		ColorMode: d.Options.ColorMode,
	}
}
