package normalize

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hyperifyio/covidmx/internal/extract"
)

// listingGrid builds a page grid with a title row, a header row, n case rows
// starting at first and a sparse margin column on the right.
func listingGrid(page, first, n int) extract.Grid {
	cells := [][]string{
		{"Casos confirmados", "", "", "", "", "", "", "", ""},
		{"N° Caso", "Estado", "Sexo", "Edad", "Fecha de Inicio de síntomas", "Identificación de COVID-19 por RT-PCR en tiempo real", "Procedencia", "Fecha del llegada a México", ""},
	}
	for i := 0; i < n; i++ {
		num := first + i
		margin := ""
		if i == 0 {
			margin = "página"
		}
		arrival := fmt.Sprintf("%d/03/2020", 1+num%9)
		if num == 1 {
			arrival = "NA"
		}
		cells = append(cells, []string{
			fmt.Sprint(num), "CIUDAD DE MÉXICO", "M", fmt.Sprint(20 + num), fmt.Sprintf("%02d/03/2020", 1+num%9), "Confirmado", "Italia", arrival, margin,
		})
	}
	return extract.Grid{Page: page, Cells: cells}
}

func TestClean_DropsSparseColumns(t *testing.T) {
	rows := Clean(listingGrid(1, 1, 12), DefaultMinNonNull)
	if len(rows) != 12 {
		t.Fatalf("expected 12 case rows, got %d", len(rows))
	}
	for _, r := range rows {
		if len(r) != 8 {
			t.Fatalf("margin column should be dropped, row has %d cells", len(r))
		}
		if !isNumeric(r[0].Value) {
			t.Fatalf("non numeric identifier survived: %q", r[0].Value)
		}
	}
}

func TestClean_NullMarkers(t *testing.T) {
	g := listingGrid(1, 1, 12)
	g.Cells[3][6] = "   "
	rows := Clean(g, DefaultMinNonNull)
	if rows[0][7].Valid {
		t.Fatalf("NA should be null, got %q", rows[0][7].Value)
	}
	if rows[1][6].Valid {
		t.Fatalf("whitespace should be null")
	}
	if !rows[1][7].Valid {
		t.Fatalf("date should be kept")
	}
}

func TestClean_BlankGrid(t *testing.T) {
	g := extract.Grid{Page: 3, Cells: [][]string{{"", " "}, {"NA", ""}}}
	if rows := Clean(g, DefaultMinNonNull); rows != nil {
		t.Fatalf("expected nil for a grid without surviving columns, got %v", rows)
	}
	if rows := Clean(extract.Grid{Page: 4}, DefaultMinNonNull); rows != nil {
		t.Fatalf("expected nil for an empty grid")
	}
}

func TestNormalize_TypedTable(t *testing.T) {
	grids := []extract.Grid{
		listingGrid(1, 1, 12),
		{Page: 2, Cells: [][]string{{"", ""}, {" ", "NA"}}},
		listingGrid(3, 13, 10),
	}
	res, err := Normalize(grids, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.Raw != nil || res.Table == nil {
		t.Fatalf("expected typed result")
	}
	if res.Grids != 2 {
		t.Fatalf("expected 2 contributing grids, got %d", res.Grids)
	}
	if got := res.Table.Len(); got != 22 {
		t.Fatalf("expected 22 records, got %d", got)
	}
	first := res.Table.Records[0]
	if first.Number != 1 || first.State != "Ciudad de México" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if got := first.SymptomOnset.String(); got != "2020-03-02" {
		t.Fatalf("onset: got %q", got)
	}
	if !first.Arrival.IsZero() {
		t.Fatalf("NA arrival should be empty")
	}
	if got := res.Table.Records[1].Arrival.String(); got != "2020-03-03" {
		t.Fatalf("arrival: got %q", got)
	}
	if last := res.Table.Records[21]; last.Number != 22 {
		t.Fatalf("page order not preserved: last=%d", last.Number)
	}
}

func TestNormalize_StateCorrections(t *testing.T) {
	g := listingGrid(1, 1, 12)
	g.Cells[2][1] = "\"ESTADOS \nUNIDOS\""
	g.Cells[3][1] = "BAJA CALIFORNIA SUR"
	res, err := Normalize([]extract.Grid{g}, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := res.Table.Records[0].State; got != "Estados Unidos" {
		t.Fatalf("got %q", got)
	}
	if got := res.Table.Records[1].State; got != "Baja California Sur" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalize_SchemaMismatch(t *testing.T) {
	opts := DefaultOptions()
	opts.Header = opts.Header[:7]
	_, err := Normalize([]extract.Grid{listingGrid(1, 1, 12)}, opts)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Page != 1 || se.Got != 8 || se.Want != 7 {
		t.Fatalf("unexpected schema error %+v", se)
	}

	// a wider grid is not truncated either
	g := listingGrid(2, 1, 12)
	for i := range g.Cells {
		g.Cells[i][8] = "x"
	}
	_, err = Normalize([]extract.Grid{g}, DefaultOptions())
	if !errors.As(err, &se) || se.Got != 9 {
		t.Fatalf("expected SchemaError for 9 columns, got %v", err)
	}
}

func TestNormalize_DuplicateKey(t *testing.T) {
	grids := []extract.Grid{listingGrid(1, 1, 12), listingGrid(2, 12, 10)}
	_, err := Normalize(grids, DefaultOptions())
	var de *DuplicateKeyError
	if !errors.As(err, &de) || de.Key != 12 {
		t.Fatalf("expected DuplicateKeyError for 12, got %v", err)
	}

	opts := DefaultOptions()
	opts.VerifyIntegrity = false
	res, err := Normalize(grids, opts)
	if err != nil {
		t.Fatalf("without verification: %v", err)
	}
	if res.Table.Len() != 22 {
		t.Fatalf("duplicates must be kept, got %d rows", res.Table.Len())
	}
}

func TestNormalize_BadDate(t *testing.T) {
	g := listingGrid(1, 1, 12)
	g.Cells[4][4] = "2020-03-01"
	_, err := Normalize([]extract.Grid{g}, DefaultOptions())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Key != 3 || pe.Column != "fecha_inicio_sintomas" {
		t.Fatalf("unexpected parse error %+v", pe)
	}
}

func TestNormalize_RawHeader(t *testing.T) {
	opts := DefaultOptions()
	opts.RawHeader = true
	opts.Header = []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	g := listingGrid(1, 1, 12)
	g.Cells[5][4] = "not a date"
	res, err := Normalize([]extract.Grid{g}, opts)
	if err != nil {
		t.Fatalf("raw mode should not type cells: %v", err)
	}
	if res.Table != nil || res.Raw == nil {
		t.Fatalf("expected raw result")
	}
	out := res.Raw.Strings()
	if len(out) != 13 || out[0][0] != "a" || out[1][1] != "CIUDAD DE MÉXICO" {
		t.Fatalf("unexpected raw table %q", out[:2])
	}
	if out[1][7] != "" {
		t.Fatalf("null should render empty, got %q", out[1][7])
	}
}

func TestNormalize_NoRows(t *testing.T) {
	res, err := Normalize([]extract.Grid{{Page: 1, Cells: [][]string{{""}}}}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Table.Len() != 0 || res.Grids != 0 {
		t.Fatalf("expected empty table")
	}
}
