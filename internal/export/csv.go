// internal/export/csv.go

// Package export renders stored scrape outcomes as the fixed six-column
// comparison table consumed by the regression tooling. The column order and
// cell sanitization are a compatibility contract; do not change them.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"

	"github.com/pricewatch/pricewatch/internal/normalize"
	"github.com/pricewatch/pricewatch/pkg/models"
)

// Header is the fixed export column set, in order.
var Header = []string{"Model", "Memory_GB", "Screen_Size_Inches", "Price_UAH", "Is_OLED", "Has_NFC"}

var (
	nonPriceRe    = regexp.MustCompile(`[^\d.]`)
	nonNumericRe  = regexp.MustCompile(`[^\d.-]`)
	trailingDotRe = regexp.MustCompile(`\.$`)
)

// Record is one export row before sanitization.
type Record struct {
	Model      string
	MemoryGB   string
	ScreenSize string
	Price      string
	IsOLED     bool
	HasNFC     bool
}

// FromOutcome derives an export record from a stored outcome.
func FromOutcome(o models.Outcome) Record {
	d := normalize.Derive(o.Title, o.Description)
	r := Record{
		Model:    d.ModelNumber,
		MemoryGB: d.Memory,
		Price:    ProcessPrice(o.Price),
		IsOLED:   d.IsOLED,
		HasNFC:   d.HasNFC,
	}
	if d.HasScreenSize {
		r.ScreenSize = fmt.Sprintf("%.1f", d.ScreenSize)
	}
	return r
}

// ProcessPrice strips a currency-bearing price string down to digits and
// dots, e.g. "12 999 грн" becomes "12999".
func ProcessPrice(price string) string {
	if price == "" {
		return ""
	}
	return nonPriceRe.ReplaceAllString(price, "")
}

// cleanValue sanitizes one data cell to numeric-only text with any trailing
// dot stripped.
func cleanValue(value string) string {
	cleaned := nonNumericRe.ReplaceAllString(value, "")
	return trailingDotRe.ReplaceAllString(cleaned, "")
}

func boolCell(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// WriteCSV writes the header plus one sanitized row per outcome.
func WriteCSV(w io.Writer, outcomes []models.Outcome) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, o := range outcomes {
		r := FromOutcome(o)
		row := []string{
			cleanValue(r.Model),
			cleanValue(r.MemoryGB),
			cleanValue(r.ScreenSize),
			cleanValue(r.Price),
			boolCell(r.IsOLED),
			boolCell(r.HasNFC),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
