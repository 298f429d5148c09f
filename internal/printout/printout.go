// Package printout renders reconciliation results for paper and
// spreadsheets. Amounts are rounded to two places here and nowhere else.
package printout

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
)

const (
	pageWidth   = 190.0
	lineHeight  = 7.0
	labelWidth  = 120.0
	amountWidth = pageWidth - labelWidth
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type document struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newDocument(title string) *document {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAuthor("PetrolHub", true)
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *document) header(station domain.StationConfig, title string, subtitle string) {
	d.pdf.SetFont("Arial", "B", 16)
	d.pdf.CellFormat(pageWidth, 9, d.tr(nonEmpty(station.Name, "Station")), "", 1, "L", false, 0, "")
	d.pdf.SetFont("Arial", "", 9)
	if line := joinNonEmpty(" - ", station.Address, station.City); line != "" {
		d.pdf.CellFormat(pageWidth, 5, d.tr(line), "", 1, "L", false, 0, "")
	}
	if ids := joinNonEmpty("  ", prefixed("ICE ", station.ICE), prefixed("IF ", station.IFNumber), prefixed("RC ", station.RC)); ids != "" {
		d.pdf.CellFormat(pageWidth, 5, d.tr(ids), "", 1, "L", false, 0, "")
	}
	d.pdf.Ln(3)
	d.pdf.SetFont("Arial", "B", 13)
	d.pdf.CellFormat(pageWidth, 8, d.tr(title), "B", 1, "L", false, 0, "")
	if subtitle != "" {
		d.pdf.SetFont("Arial", "", 10)
		d.pdf.CellFormat(pageWidth, 6, d.tr(subtitle), "", 1, "L", false, 0, "")
	}
	d.pdf.Ln(2)
}

func (d *document) section(title string) {
	d.pdf.Ln(2)
	d.pdf.SetFont("Arial", "B", 11)
	d.pdf.SetFillColor(230, 236, 245)
	d.pdf.CellFormat(pageWidth, lineHeight, d.tr(title), "", 1, "L", true, 0, "")
	d.pdf.SetFont("Arial", "", 10)
}

func (d *document) row(label string, value string) {
	d.pdf.CellFormat(labelWidth, lineHeight-1, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.CellFormat(amountWidth, lineHeight-1, d.tr(value), "", 1, "R", false, 0, "")
}

func (d *document) boldRow(label string, value string) {
	d.pdf.SetFont("Arial", "B", 10)
	d.row(label, value)
	d.pdf.SetFont("Arial", "", 10)
}

func (d *document) table(widths []float64, headers []string, rows [][]string) {
	d.pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		d.pdf.CellFormat(widths[i], 6, d.tr(h), "1", 0, "C", false, 0, "")
	}
	d.pdf.Ln(-1)
	d.pdf.SetFont("Arial", "", 9)
	for _, r := range rows {
		for i, cell := range r {
			align := "R"
			if i == 0 {
				align = "L"
			}
			d.pdf.CellFormat(widths[i], 6, d.tr(cell), "1", 0, align, false, 0, "")
		}
		d.pdf.Ln(-1)
	}
}

func (d *document) output(w io.Writer) error {
	if d.pdf.Err() {
		return fmt.Errorf("render pdf: %w", d.pdf.Error())
	}
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func nonEmpty(val string, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}

func prefixed(prefix string, val string) string {
	if strings.TrimSpace(val) == "" {
		return ""
	}
	return prefix + val
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
