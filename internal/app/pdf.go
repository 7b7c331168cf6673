package app

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/covidmx/internal/bulletin"
	"github.com/hyperifyio/covidmx/internal/fileutil"
)

// summaryPDFName returns the PDF file name for a summary date.
func summaryPDFName(s bulletin.Summary) string {
	return s.Date.Compact() + "_comunicado.pdf"
}

// writeSummaryPDF renders a one-page PDF with the four bulletin counters.
func writeSummaryPDF(s bulletin.Summary, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; accents need translating.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Comunicado técnico diario "+s.Date.String()), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Comunicado técnico diario"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, s.Date.String(), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(52, 64, 91)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(90, 9, "Estatus", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 9, "Casos", "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 12)
	for _, c := range s.Counters() {
		label := strings.ToUpper(c.Status[:1]) + c.Status[1:]
		pdf.CellFormat(90, 9, tr(label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 9, fmt.Sprintf("%d", c.Value), "1", 1, "R", false, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return fileutil.WriteAtomic(outPath, pdf.Output)
}
