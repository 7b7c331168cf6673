package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/covidmx/internal/annotate"
	"github.com/hyperifyio/covidmx/internal/bulletin"
	"github.com/hyperifyio/covidmx/internal/cache"
	"github.com/hyperifyio/covidmx/internal/cases"
	"github.com/hyperifyio/covidmx/internal/charts"
	"github.com/hyperifyio/covidmx/internal/extract"
	"github.com/hyperifyio/covidmx/internal/fetch"
	"github.com/hyperifyio/covidmx/internal/fileutil"
	"github.com/hyperifyio/covidmx/internal/ledger"
	"github.com/hyperifyio/covidmx/internal/listing"
	"github.com/hyperifyio/covidmx/internal/normalize"
	"github.com/hyperifyio/covidmx/internal/tsv"
)

type App struct {
	cfg       Config
	client    *fetch.Client
	extractor extract.Extractor
}

// ErrNoCaseRows is returned when normalization yields an empty table. Nothing
// is written in that case.
var ErrNoCaseRows = errors.New("no case rows extracted")

func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	ex, err := extract.New(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, extractor: ex}
	a.client = &fetch.Client{
		HTTPClient:        newHTTPClient(cfg.HTTPTimeout),
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: cfg.HTTPTimeout,
	}
	if cfg.CacheDir != "" && !cfg.NoCache {
		// Apply cache invalidation controls
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.client.Cache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	return a, nil
}

// WithExtractor replaces the table extraction backend.
func (a *App) WithExtractor(ex extract.Extractor) *App {
	a.extractor = ex
	return a
}

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

// Fetch downloads every document linked from the listing page into the
// download directory.
func (a *App) Fetch(ctx context.Context) ([]string, error) {
	f := &listing.Fetcher{
		Client:    a.client,
		BaseURL:   a.cfg.BaseURL,
		Container: a.cfg.Container,
	}
	if err := os.MkdirAll(a.cfg.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	return f.Run(ctx, a.cfg.ListingURL, a.cfg.DownloadDir)
}

// ParseRequest describes one case listing to convert.
type ParseRequest struct {
	// Source is the bulletin annex PDF.
	Source string
	// Date is the bulletin date. It names the default output and the
	// ledger entry.
	Date cases.Date
	// Output overrides <TablesDir>/<YYYYMMDD>.tsv.
	Output string
	// NewCases is the a-b,c range list of new case numbers.
	NewCases string
	// Pages overrides the configured page selector.
	Pages string
	// Header switches to raw mode: the concatenated table is written with
	// these column names and is neither typed nor recorded in the ledger.
	Header []string
	// VerifyIntegrity overrides the configured duplicate check.
	VerifyIntegrity *bool
	// SkipLedger leaves the ledger untouched.
	SkipLedger bool
}

// ParseResult summarizes a successful parse.
type ParseResult struct {
	RunID      string
	Output     string
	Manifest   string
	Grids      int
	Rows       int
	Annotated  int
	Diagnostic *annotate.Diagnostic
	// LedgerUpdated is false when the ledger already covered the date or
	// was not consulted.
	LedgerUpdated bool
}

func (a *App) outputPath(req ParseRequest) (string, error) {
	if req.Output != "" {
		return req.Output, nil
	}
	if req.Date.IsZero() {
		return "", errors.New("parse: an output path or a bulletin date is required")
	}
	return filepath.Join(a.cfg.TablesDir, req.Date.Compact()+".tsv"), nil
}

// Parse extracts, normalizes and annotates the case listing in req.Source,
// writes it atomically with a manifest sidecar and records it in the ledger.
// Nothing is written when any stage fails.
func (a *App) Parse(ctx context.Context, req ParseRequest) (ParseResult, error) {
	var res ParseResult
	if req.Source == "" {
		return res, errors.New("parse: source document is required")
	}
	out, err := a.outputPath(req)
	if err != nil {
		return res, err
	}
	raw := len(req.Header) > 0
	if raw {
		if err := ValidateHeader(req.Header); err != nil {
			return res, err
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	pages := a.cfg.Pages
	if req.Pages != "" {
		pages = req.Pages
	}
	start := time.Now()
	grids, err := a.extractor.Extract(req.Source, extract.Options{Pages: pages, RowTolerance: a.cfg.RowTolerance})
	if err != nil {
		return res, err
	}
	log.Info().Str("source", req.Source).Int("grids", len(grids)).Dur("took", time.Since(start)).Msg("extracted tables")

	opts := normalize.Options{
		Header:          caseHeader(),
		MinNonNull:      a.cfg.MinNonNull,
		VerifyIntegrity: a.cfg.VerifyIntegrity,
		RawHeader:       raw,
	}
	if raw {
		opts.Header = append([]string(nil), req.Header...)
	}
	if req.VerifyIntegrity != nil {
		opts.VerifyIntegrity = *req.VerifyIntegrity
	}
	norm, err := normalize.Normalize(grids, opts)
	if err != nil {
		return res, err
	}
	res.Grids = norm.Grids

	if raw {
		if len(norm.Raw.Rows) == 0 {
			return res, ErrNoCaseRows
		}
		records := norm.Raw.Strings()
		if err := fileutil.WriteAtomic(out, func(w io.Writer) error { return tsv.WriteRecords(w, records) }); err != nil {
			return res, fmt.Errorf("write raw table: %w", err)
		}
		res.Rows = len(norm.Raw.Rows)
	} else {
		table := norm.Table
		if table.Len() == 0 {
			return res, ErrNoCaseRows
		}
		diag, err := annotate.Apply(table, req.NewCases)
		if err != nil {
			return res, err
		}
		if diag != nil {
			log.Warn().Str("source", req.Source).Int("missing", diag.Missing).Ints("omitted", diag.Omitted).Msg(diag.Message)
			res.Diagnostic = diag
		}
		if err := cases.WriteFile(out, table); err != nil {
			return res, err
		}
		res.Rows = table.Len()
		res.Annotated = table.CountNew()
	}
	res.Output = out
	log.Info().Str("out", out).Int("rows", res.Rows).Int("new", res.Annotated).Msg("wrote case table")

	sum, err := fileSHA256Hex(req.Source)
	if err != nil {
		return res, fmt.Errorf("hash source: %w", err)
	}
	res.RunID = uuid.NewString()
	res.Manifest = deriveManifestSidecarPath(out)
	m := manifest{
		RunID:     res.RunID,
		Version:   BuildVersion,
		Source:    req.Source,
		SourceSHA: sum,
		Output:    out,
		Date:      req.Date.String(),
		Grids:     res.Grids,
		Rows:      res.Rows,
		Annotated: res.Annotated,
		Options: manifestOptions{
			Extractor:       a.cfg.Extractor,
			Pages:           pages,
			RowTolerance:    a.cfg.RowTolerance,
			MinNonNull:      a.cfg.MinNonNull,
			VerifyIntegrity: opts.VerifyIntegrity,
			Header:          opts.Header,
			RawHeader:       raw,
			NewCases:        req.NewCases,
		},
		GeneratedAt: time.Now().UTC(),
	}
	if err := writeManifest(res.Manifest, m); err != nil {
		return res, fmt.Errorf("write manifest: %w", err)
	}

	if raw || req.SkipLedger || a.cfg.LedgerPath == "" {
		return res, nil
	}
	if req.Date.IsZero() {
		log.Warn().Msg("no bulletin date given; ledger not updated")
		return res, nil
	}
	entry := ledger.Entry{Date: req.Date, Source: filepath.Base(req.Source), Output: out}
	switch err := ledger.Update(a.cfg.LedgerPath, entry); {
	case errors.Is(err, ledger.ErrAlreadyPresent):
		log.Info().Str("date", req.Date.String()).Msg("date already in ledger")
	case err != nil:
		return res, err
	default:
		res.LedgerUpdated = true
		log.Info().Str("date", req.Date.String()).Str("ledger", a.cfg.LedgerPath).Msg("added to ledger")
	}
	return res, nil
}

// Ledger loads the configured ledger.
func (a *App) Ledger() (*ledger.Ledger, error) {
	return ledger.Load(a.cfg.LedgerPath)
}

func (a *App) targets() charts.Targets {
	return charts.Targets{Dated: a.cfg.ChartDirs, Current: a.cfg.CurrentDirs}
}

func (a *App) chartOptions() charts.Options {
	return charts.Options{AssetsHost: a.cfg.AssetsHost}
}

// SummaryResult lists the files written for one bulletin summary.
type SummaryResult struct {
	Path   string
	Charts []string
	PDF    string
}

// RecordSummary stores the bulletin counters and renders the summary table.
func (a *App) RecordSummary(s bulletin.Summary) (SummaryResult, error) {
	var res SummaryResult
	path, err := bulletin.Save(a.cfg.BulletinDir, s)
	if err != nil {
		return res, err
	}
	res.Path = path
	log.Info().Str("out", path).Str("date", s.Date.String()).Msg("wrote bulletin summary")
	if t := a.targets(); !t.Empty() {
		if res.Charts, err = charts.WriteSummaryTable(s, t); err != nil {
			return res, err
		}
	}
	if a.cfg.SummaryPDF {
		res.PDF = filepath.Join(a.cfg.BulletinDir, summaryPDFName(s))
		if err := writeSummaryPDF(s, res.PDF); err != nil {
			return res, err
		}
		log.Info().Str("out", res.PDF).Msg("wrote summary pdf")
	}
	return res, nil
}

// PlotRequest selects the case table used for the state map. When CaseTable
// is empty the latest ledger entry is used.
type PlotRequest struct {
	CaseTable string
	Date      cases.Date
	SkipMap   bool
}

// Plots renders the confirmed series from every stored summary and the
// state map for one case table.
func (a *App) Plots(req PlotRequest) ([]string, error) {
	t := a.targets()
	if t.Empty() {
		return nil, errors.New("plots: no chart directories configured")
	}
	summaries, err := bulletin.LoadDir(a.cfg.BulletinDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	var written []string
	switch paths, err := charts.WriteConfirmed(summaries, t, a.chartOptions()); {
	case errors.Is(err, charts.ErrNoData):
		log.Warn().Str("dir", a.cfg.BulletinDir).Msg("no bulletin summaries; skipping confirmed series")
	case err != nil:
		return nil, err
	default:
		written = append(written, paths...)
	}
	if req.SkipMap {
		return written, nil
	}

	tablePath, date := req.CaseTable, req.Date
	if tablePath == "" {
		l, err := a.Ledger()
		if err != nil {
			return written, err
		}
		latest, ok := l.Latest()
		if !ok {
			log.Warn().Msg("ledger is empty; skipping state map")
			return written, nil
		}
		tablePath, date = latest.Output, latest.Date
	}
	if date.IsZero() {
		return written, errors.New("plots: a date is required for the state map")
	}
	table, err := cases.ReadFile(tablePath)
	if err != nil {
		return written, err
	}
	coords, err := charts.LoadCoordinates(a.cfg.CoordinatesPath)
	if err != nil {
		return written, err
	}
	paths, err := charts.WriteStateMap(table, coords, date, t, a.chartOptions())
	if err != nil {
		return written, err
	}
	return append(written, paths...), nil
}
