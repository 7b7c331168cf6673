package extract_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/covidmx/internal/extract"
	"github.com/hyperifyio/covidmx/internal/normalize"
)

// writeCaseListingPDF renders a one page annex: a title, an eight column
// header, n case rows and a footer near the bottom margin.
func writeCaseListingPDF(t *testing.T, n int) string {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 9)
	pdf.AddPage()
	pdf.Text(40, 60, "Casos confirmados")
	xs := []float64{40, 80, 170, 200, 240, 310, 380, 450}
	header := []string{"Caso", "Estado", "Sexo", "Edad", "Inicio", "Estatus", "Procedencia", "Llegada"}
	states := []string{"JALISCO", "SINALOA", "PUEBLA"}
	y := 100.0
	for i, h := range header {
		pdf.Text(xs[i], y, h)
	}
	for num := 1; num <= n; num++ {
		y += 14
		sex := "M"
		if num%2 == 0 {
			sex = "F"
		}
		row := []string{
			strconv.Itoa(num), states[num%3], sex, strconv.Itoa(20 + num),
			fmt.Sprintf("%02d/03/2020", num), "Confirmado", "Italia", "01/03/2020",
		}
		for i, c := range row {
			pdf.Text(xs[i], y, c)
		}
	}
	pdf.Text(40, 740, "Fuente: Secretaria de Salud")
	path := filepath.Join(t.TempDir(), "annex.pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestBackends_CaseListingNormalizes(t *testing.T) {
	path := writeCaseListingPDF(t, 15)
	for _, name := range []string{extract.StreamBackend, extract.GeometricBackend} {
		t.Run(name, func(t *testing.T) {
			ex, err := extract.New(name)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			grids, err := ex.Extract(path, extract.Options{Pages: "all"})
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			for _, g := range grids {
				if g.Cols() != 8 {
					t.Fatalf("page %d: expected 8 columns, got %d: %q", g.Page, g.Cols(), g.Cells)
				}
			}
			res, err := normalize.Normalize(grids, normalize.DefaultOptions())
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			recs := res.Table.Records
			if len(recs) != 15 {
				t.Fatalf("expected 15 records, got %d", len(recs))
			}
			first, last := recs[0], recs[14]
			if first.Number != 1 || first.State != "Sinaloa" || first.Sex != "M" || first.Age != "21" {
				t.Fatalf("unexpected first record %+v", first)
			}
			if last.Number != 15 || last.State != "Jalisco" || last.Origin != "Italia" {
				t.Fatalf("unexpected last record %+v", last)
			}
			if last.SymptomOnset.String() != "2020-03-15" {
				t.Fatalf("onset %s", last.SymptomOnset)
			}
		})
	}
}

func TestGeometric_MinConfidenceRejects(t *testing.T) {
	path := writeCaseListingPDF(t, 15)
	_, err := (&extract.Geometric{MinConfidence: 1.01}).Extract(path, extract.Options{})
	if !errors.Is(err, extract.ErrNoTables) {
		t.Fatalf("an unreachable confidence threshold should reject every region, got %v", err)
	}
}
