package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/covidmx/internal/annotate"
	"github.com/hyperifyio/covidmx/internal/bulletin"
	"github.com/hyperifyio/covidmx/internal/cases"
	"github.com/hyperifyio/covidmx/internal/extract"
	"github.com/hyperifyio/covidmx/internal/ledger"
	"github.com/hyperifyio/covidmx/internal/normalize"
)

// gridsExtractor returns fixed grids regardless of the document.
type gridsExtractor struct {
	grids []extract.Grid
	err   error
}

func (g gridsExtractor) Extract(string, extract.Options) ([]extract.Grid, error) {
	return g.grids, g.err
}

var states = []string{"CIUDAD DE MÉXICO", "JALISCO", "SINALOA"}

func listingGrid(page, first, n int) extract.Grid {
	cells := [][]string{
		{"N° Caso", "Estado", "Sexo", "Edad", "Fecha de Inicio de síntomas", "Identificación por RT-PCR", "Procedencia", "Fecha del llegada a México"},
	}
	for i := 0; i < n; i++ {
		num := first + i
		cells = append(cells, []string{
			fmt.Sprint(num), states[num%len(states)], "F", fmt.Sprint(30 + num),
			fmt.Sprintf("%d/03/2020", 1+num%9), "Confirmado", "Estados Unidos", fmt.Sprintf("%d/02/2020", 10+num%9),
		})
	}
	return extract.Grid{Page: page, Cells: cells}
}

type fixture struct {
	dir    string
	source string
	cfg    Config
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "Tabla_casos_positivos_COVID-19_2020.03.25.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4 fixture"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	cfg := DefaultConfig()
	cfg.CacheDir = ""
	cfg.TablesDir = filepath.Join(dir, "tablas")
	cfg.LedgerPath = filepath.Join(dir, "info.tsv")
	cfg.BulletinDir = filepath.Join(dir, "comunicados")
	cfg.ChartDirs = []string{filepath.Join(dir, "graficas")}
	cfg.CurrentDirs = []string{filepath.Join(dir, "actual")}
	cfg.CoordinatesPath = filepath.Join(dir, "coord.tsv")
	coords := "estado\tabrev\tlat\tlong\nCiudad de México\tCDMX\t19.43\t-99.13\nJalisco\tJAL\t20.66\t-103.35\nSinaloa\tSIN\t24.81\t-107.39\n"
	if err := os.WriteFile(cfg.CoordinatesPath, []byte(coords), 0o644); err != nil {
		t.Fatalf("write coords: %v", err)
	}
	return fixture{dir: dir, source: src, cfg: cfg}
}

func newTestApp(t *testing.T, cfg Config, grids ...extract.Grid) *App {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a.WithExtractor(gridsExtractor{grids: grids})
}

var bulletinDate = cases.NewDate(2020, time.March, 25)

func TestParse_WritesTableManifestAndLedger(t *testing.T) {
	f := newFixture(t)
	a := newTestApp(t, f.cfg, listingGrid(1, 1, 12), listingGrid(2, 13, 11))

	res, err := a.Parse(context.Background(), ParseRequest{Source: f.source, Date: bulletinDate, NewCases: "1-3,5,20-23"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	wantOut := filepath.Join(f.cfg.TablesDir, "20200325.tsv")
	if res.Output != wantOut || res.Rows != 23 || res.Grids != 2 || res.Annotated != 8 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !res.LedgerUpdated || res.Diagnostic != nil {
		t.Fatalf("expected ledger update without diagnostic: %+v", res)
	}

	table, err := cases.ReadFile(wantOut)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !table.Annotated || table.Len() != 23 || table.CountNew() != 8 {
		t.Fatalf("round trip lost data: annotated=%v len=%d new=%d", table.Annotated, table.Len(), table.CountNew())
	}
	if table.Records[0].State != "Jalisco" || table.Records[2].State != "Ciudad de México" {
		t.Fatalf("state cleanup not applied: %q %q", table.Records[0].State, table.Records[2].State)
	}

	b, err := os.ReadFile(res.Manifest)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m manifest
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.RunID != res.RunID || len(m.SourceSHA) != 64 || m.Rows != 23 || m.Options.NewCases != "1-3,5,20-23" {
		t.Fatalf("unexpected manifest %+v", m)
	}

	l, err := ledger.Load(f.cfg.LedgerPath)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	latest, ok := l.Latest()
	if !ok || !latest.Date.Equal(bulletinDate.Time) || latest.Output != wantOut || latest.Source != filepath.Base(f.source) {
		t.Fatalf("unexpected ledger entry %+v", latest)
	}

	again, err := a.Parse(context.Background(), ParseRequest{Source: f.source, Date: bulletinDate, NewCases: "1"})
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if again.LedgerUpdated {
		t.Fatalf("same date must not be appended twice")
	}
	if l, _ = ledger.Load(f.cfg.LedgerPath); len(l.Entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(l.Entries))
	}
}

func TestParse_ListedNumbersMissingFromTable(t *testing.T) {
	f := newFixture(t)
	a := newTestApp(t, f.cfg, listingGrid(1, 1, 12))
	out := filepath.Join(f.dir, "listed.tsv")
	res, err := a.Parse(context.Background(), ParseRequest{Source: f.source, Output: out, NewCases: "11-14", SkipLedger: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Annotated != 2 {
		t.Fatalf("expected 2 flagged cases, got %d", res.Annotated)
	}
	d := res.Diagnostic
	if d == nil || d.Missing != 2 || len(d.Omitted) != 2 || d.Omitted[0] != 13 || d.Omitted[1] != 14 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	table, err := cases.ReadFile(out)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !table.Annotated || table.CountNew() != 2 {
		t.Fatalf("table should carry the present flags: annotated=%v new=%d", table.Annotated, table.CountNew())
	}
}

func TestParse_WithoutRangesReportsDiagnostic(t *testing.T) {
	f := newFixture(t)
	a := newTestApp(t, f.cfg, listingGrid(1, 1, 12))
	out := filepath.Join(f.dir, "plain.tsv")
	res, err := a.Parse(context.Background(), ParseRequest{Source: f.source, Output: out, SkipLedger: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Diagnostic == nil || res.Diagnostic.Message != annotate.NoSpecMessage {
		t.Fatalf("expected diagnostic, got %+v", res.Diagnostic)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(b), cases.NewCaseColumn) {
		t.Fatalf("unannotated table must omit %s", cases.NewCaseColumn)
	}
	if _, err := os.Stat(f.cfg.LedgerPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ledger should not be created, stat err=%v", err)
	}
}

func TestParse_FailuresWriteNothing(t *testing.T) {
	narrow := listingGrid(2, 13, 11)
	for i := range narrow.Cells {
		narrow.Cells[i] = narrow.Cells[i][:7]
	}
	dup := listingGrid(2, 12, 11)

	tests := []struct {
		name  string
		grids []extract.Grid
		check func(error) bool
	}{
		{"schema", []extract.Grid{listingGrid(1, 1, 12), narrow}, func(err error) bool {
			var se *normalize.SchemaError
			return errors.As(err, &se)
		}},
		{"duplicate", []extract.Grid{listingGrid(1, 1, 12), dup}, func(err error) bool {
			var de *normalize.DuplicateKeyError
			return errors.As(err, &de) && de.Key == 12
		}},
		{"empty", []extract.Grid{{Page: 1, Cells: [][]string{{"Casos", "", ""}}}}, func(err error) bool {
			return errors.Is(err, ErrNoCaseRows)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			a := newTestApp(t, f.cfg, tc.grids...)
			_, err := a.Parse(context.Background(), ParseRequest{Source: f.source, Date: bulletinDate})
			if !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
			if _, err := os.Stat(filepath.Join(f.cfg.TablesDir, "20200325.tsv")); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("no table should be written, stat err=%v", err)
			}
			if _, err := os.Stat(f.cfg.LedgerPath); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("ledger should be untouched, stat err=%v", err)
			}
		})
	}
}

func TestParse_ExtractionErrorPropagates(t *testing.T) {
	f := newFixture(t)
	a := newTestApp(t, f.cfg)
	a.WithExtractor(gridsExtractor{err: &extract.ExtractionError{Path: f.source, Err: extract.ErrNoTables}})
	_, err := a.Parse(context.Background(), ParseRequest{Source: f.source, Date: bulletinDate})
	if !errors.Is(err, extract.ErrNoTables) {
		t.Fatalf("expected ErrNoTables, got %v", err)
	}
}

func TestParse_RawHeaderMode(t *testing.T) {
	f := newFixture(t)
	a := newTestApp(t, f.cfg, listingGrid(1, 1, 12))
	header := []string{"n", "estado", "sexo", "edad", "inicio", "prueba", "procedencia", "llegada"}
	out := filepath.Join(f.dir, "raw.tsv")
	res, err := a.Parse(context.Background(), ParseRequest{Source: f.source, Date: bulletinDate, Output: out, Header: header})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Rows != 12 || res.LedgerUpdated {
		t.Fatalf("unexpected result %+v", res)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if lines[0] != strings.Join(header, "\t") || len(lines) != 13 {
		t.Fatalf("unexpected raw table:\n%s", b)
	}
	if !strings.HasPrefix(lines[1], "1\tJALISCO") {
		t.Fatalf("raw mode must not clean values: %q", lines[1])
	}
}

func TestParse_RequiresDateOrOutput(t *testing.T) {
	f := newFixture(t)
	a := newTestApp(t, f.cfg, listingGrid(1, 1, 12))
	if _, err := a.Parse(context.Background(), ParseRequest{Source: f.source}); err == nil {
		t.Fatalf("expected error without date or output")
	}
	if _, err := a.Parse(context.Background(), ParseRequest{Date: bulletinDate}); err == nil {
		t.Fatalf("expected error without source")
	}
}

func TestRecordSummaryAndPlots(t *testing.T) {
	f := newFixture(t)
	f.cfg.SummaryPDF = true
	a := newTestApp(t, f.cfg, listingGrid(1, 1, 12))

	for i, s := range []bulletin.Summary{
		{Date: cases.NewDate(2020, time.March, 24), Confirmed: 405, Suspected: 1219, Negative: 1744, Deaths: 5},
		{Date: bulletinDate, Confirmed: 475, Suspected: 1656, Negative: 2275, Deaths: 6},
	} {
		res, err := a.RecordSummary(s)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if len(res.Charts) != 2 {
			t.Fatalf("expected dated and current table, got %v", res.Charts)
		}
		b, err := os.ReadFile(res.PDF)
		if err != nil || !strings.HasPrefix(string(b), "%PDF") {
			t.Fatalf("pdf not written: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(f.cfg.CurrentDirs[0], "CURRENT_tableheader.html")); err != nil {
		t.Fatalf("current table missing: %v", err)
	}

	if _, err := a.Parse(context.Background(), ParseRequest{Source: f.source, Date: bulletinDate, NewCases: "1-3"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	written, err := a.Plots(PlotRequest{})
	if err != nil {
		t.Fatalf("plots: %v", err)
	}
	want := []string{
		filepath.Join(f.cfg.ChartDirs[0], "20200325_casosconfirmados-nacional.html"),
		filepath.Join(f.cfg.CurrentDirs[0], "CURRENT_casosconfirmados-nacional.html"),
		filepath.Join(f.cfg.ChartDirs[0], "20200325_mapa-confirmados.html"),
		filepath.Join(f.cfg.CurrentDirs[0], "CURRENT_mapa-confirmados.html"),
	}
	if strings.Join(written, "\n") != strings.Join(want, "\n") {
		t.Fatalf("written %v\nwant %v", written, want)
	}
	for _, p := range want {
		b, err := os.ReadFile(p)
		if err != nil || !strings.Contains(string(b), "echarts") {
			t.Fatalf("chart %s not rendered: %v", p, err)
		}
	}
}

func TestPlots_EmptyWorkspace(t *testing.T) {
	f := newFixture(t)
	a := newTestApp(t, f.cfg)
	written, err := a.Plots(PlotRequest{})
	if err != nil || len(written) != 0 {
		t.Fatalf("expected nothing to plot, got %v %v", written, err)
	}
	f.cfg.ChartDirs, f.cfg.CurrentDirs = nil, nil
	if _, err := newTestApp(t, f.cfg).Plots(PlotRequest{}); err == nil {
		t.Fatalf("expected error without chart directories")
	}
}

func TestFetch_DownloadsListedDocuments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/listado", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><div class="clearfix"><a href="/docs/a.pdf">a</a><a href="/docs/b.tsv">b</a></div></body></html>`)
	})
	mux.HandleFunc("/docs/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		fmt.Fprint(w, r.URL.Path)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newFixture(t)
	f.cfg.ListingURL = srv.URL + "/listado"
	f.cfg.BaseURL = srv.URL
	f.cfg.DownloadDir = filepath.Join(f.dir, "pdf")
	f.cfg.CacheDir = filepath.Join(f.dir, "cache")
	a := newTestApp(t, f.cfg)

	paths, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[1]) != "b.tsv" {
		t.Fatalf("unexpected downloads %v", paths)
	}
	b, _ := os.ReadFile(paths[0])
	if string(b) != "/docs/a.pdf" {
		t.Fatalf("unexpected content %q", b)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RowTolerance = 0
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected validation error")
	}
	cfg = DefaultConfig()
	cfg.Extractor = "lattice"
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected unknown extractor error")
	}
}
