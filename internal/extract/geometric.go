package extract

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/tables"
)

// GeometricBackend names the alignment scoring extractor.
const GeometricBackend = "geometric"

// Geometric lays each page out on a row and column lattice and hands one
// fragment per occupied cell to the tabula geometric detector. The detector
// splits a page into tables at large vertical gaps and rejects regions with
// poor alignment, so stray titles and footers far from the listing are left
// out.
type Geometric struct {
	// MinConfidence overrides the detector threshold when positive.
	MinConfidence float64
}

func (g *Geometric) Extract(path string, opts Options) ([]Grid, error) {
	pages, err := readPages(path, opts.Pages)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	tol := opts.rowTolerance()
	det := tables.NewGeometricDetector()
	var grids []Grid
	for _, p := range pages {
		page, minExtent := latticePage(p, tol)
		if page == nil {
			log.Debug().Str("path", path).Int("page", p.Number).Msg("no text on page")
			continue
		}
		cfg := tables.DefaultConfig()
		cfg.UseLines = false
		cfg.UseWhitespace = true
		cfg.DetectMergedCells = false
		// Lattice edges are exact; the tolerance only has to stay below the
		// narrowest cell so neighbouring boundaries are not merged.
		cfg.AlignmentTolerance = math.Min(tol, minExtent/4)
		if g.MinConfidence > 0 {
			cfg.MinConfidence = g.MinConfidence
		}
		if err := det.Configure(cfg); err != nil {
			return nil, &ExtractionError{Path: path, Err: fmt.Errorf("configure detector: %w", err)}
		}
		found, err := det.Detect(page)
		if err != nil {
			return nil, &ExtractionError{Path: path, Err: fmt.Errorf("page %d: %w", p.Number, err)}
		}
		for _, t := range found {
			grids = append(grids, Grid{Page: p.Number, Cells: tableCells(t)})
		}
	}
	if len(grids) == 0 {
		return nil, &ExtractionError{Path: path, Err: ErrNoTables}
	}
	log.Debug().Str("path", path).Int("pages", len(pages)).Int("grids", len(grids)).Msg("geometric extraction")
	return grids, nil
}

// latticePage builds a tabula page with one fragment per occupied cell,
// each sized to its cell so adjacent cells share edges. It also returns the
// smallest cell width or height. A page without columns yields nil.
func latticePage(p pageText, tol float64) (*model.Page, float64) {
	rows := groupRows(p.Words, tol)
	cols := inferColumns(rows)
	if len(cols) == 0 {
		return nil, 0
	}
	xs := columnEdges(cols)
	bands := rowBands(rows, tol)

	minExtent := math.Inf(1)
	for i := 0; i+1 < len(xs); i++ {
		minExtent = math.Min(minExtent, xs[i+1]-xs[i])
	}
	for _, b := range bands {
		minExtent = math.Min(minExtent, b.Hi-b.Lo)
	}

	page := model.NewPage(p.Width, p.Height)
	page.Number = p.Number
	for i, r := range rows {
		font, size := r.Words[0].FontName, r.Words[0].FontSize
		for c, text := range rowCells(r, cols) {
			if text == "" {
				continue
			}
			page.RawText = append(page.RawText, model.TextFragment{
				Text:     text,
				BBox:     model.NewBBox(xs[c], bands[i].Lo, xs[c+1]-xs[c], bands[i].Hi-bands[i].Lo),
				FontSize: size,
				FontName: font,
			})
		}
	}
	return page, minExtent
}

// columnEdges places a boundary halfway across every gap between column
// spans, plus the outer edges of the first and last span.
func columnEdges(cols []span) []float64 {
	xs := make([]float64, 0, len(cols)+1)
	xs = append(xs, cols[0].Lo)
	for i := 1; i < len(cols); i++ {
		xs = append(xs, (cols[i-1].Hi+cols[i].Lo)/2)
	}
	return append(xs, cols[len(cols)-1].Hi)
}

// rowBands gives each row a vertical band, Lo below Hi. Rows whose baselines
// are within twice max(line height, tol) share the boundary halfway between
// them; farther rows keep their own extent so the gap stays visible.
func rowBands(rows []row, tol float64) []span {
	bands := make([]span, len(rows))
	for i, r := range rows {
		h := lineHeight(r, tol)
		bands[i] = span{Lo: r.Y - h/2, Hi: r.Y + h}
	}
	for i := 1; i < len(rows); i++ {
		gap := rows[i-1].Y - rows[i].Y
		if gap <= 2*math.Max(lineHeight(rows[i-1], tol), tol) {
			mid := rows[i].Y + gap/2
			bands[i-1].Lo = mid
			bands[i].Hi = mid
		}
	}
	return bands
}

func lineHeight(r row, tol float64) float64 {
	h := 0.0
	for _, w := range r.Words {
		h = math.Max(h, math.Max(w.Height, w.FontSize))
	}
	if h == 0 {
		return tol
	}
	return h
}

func tableCells(t *model.Table) [][]string {
	out := make([][]string, 0, t.RowCount())
	for _, r := range t.Rows {
		line := make([]string, len(r))
		empty := true
		for i, c := range r {
			line[i] = strings.TrimSpace(c.Text)
			if line[i] != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, line)
		}
	}
	return out
}
