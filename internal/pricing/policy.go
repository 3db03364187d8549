package pricing

import "fmt"

// Money represents a monetary value in whole rupees. Page rates, page counts
// and copy counts are all integers, so totals are always exact.
type Money = int64

// ColorMode selects the per-page rate.
type ColorMode string

const (
	ColorModeBW    ColorMode = "bw"
	ColorModeColor ColorMode = "color"
)

// Policy is the stateless per-page rate table.
type Policy struct {
	BWPerPage    Money
	ColorPerPage Money
}

// DefaultPolicy returns the shop's standard rate card.
func DefaultPolicy() Policy {
	return Policy{BWPerPage: 3, ColorPerPage: 10}
}

// PagePrice returns the per-page rate for the given color mode. Unknown modes
// fall back to black and white, keeping the function total.
func (p Policy) PagePrice(mode ColorMode) Money {
	if mode == ColorModeColor {
		return p.ColorPerPage
	}
	return p.BWPerPage
}

// DocumentPrice computes the cost of one document: rate * pages * copies.
// Layout and paper size never affect price.
func (p Policy) DocumentPrice(pageCount, copies int, mode ColorMode) Money {
	if pageCount < 0 {
		pageCount = 0
	}
	if copies < 1 {
		copies = 1
	}
	return p.PagePrice(mode) * Money(pageCount) * Money(copies)
}

// Item describes one priced document line.
type Item struct {
	PageCount int
	Copies    int
	ColorMode ColorMode
}

// Line is the per-document pricing breakdown.
type Line struct {
	PageCount int
	Copies    int
	ColorMode ColorMode
	PagePrice Money
	Subtotal  Money
}

// Summary aggregates computed pricing components across all documents.
type Summary struct {
	Lines         []Line
	DocumentCount int
	PageCount     int
	Total         Money
}

// Compute calculates order totals for the provided document lines. Every
// document is priced independently; the total is the sum of the line
// subtotals.
func Compute(policy Policy, items []Item) Summary {
	summary := Summary{Lines: make([]Line, 0, len(items))}
	for _, it := range items {
		line := Line{
			PageCount: it.PageCount,
			Copies:    it.Copies,
			ColorMode: it.ColorMode,
			PagePrice: policy.PagePrice(it.ColorMode),
			Subtotal:  policy.DocumentPrice(it.PageCount, it.Copies, it.ColorMode),
		}
		summary.Lines = append(summary.Lines, line)
		summary.DocumentCount++
		summary.PageCount += it.PageCount
		summary.Total += line.Subtotal
	}
	return summary
}

// FormatINR renders an amount for display with the rupee prefix and two
// decimals. Display formatting only; the numeric model stays integral.
func FormatINR(amount Money) string {
	return fmt.Sprintf("₹%d.00", amount)
}
