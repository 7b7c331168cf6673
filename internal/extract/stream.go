package extract

import (
	"github.com/rs/zerolog/log"
)

// StreamBackend names the whitespace based extractor.
const StreamBackend = "stream"

// Stream infers one table per page from text positions alone: rows from
// baseline proximity, columns from whitespace between text runs. It suits
// ruled and unruled listings alike.
type Stream struct{}

func (s *Stream) Extract(path string, opts Options) ([]Grid, error) {
	pages, err := readPages(path, opts.Pages)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	var grids []Grid
	for _, p := range pages {
		cells := streamLayout(p.Words, opts.rowTolerance())
		if len(cells) == 0 {
			log.Debug().Str("path", path).Int("page", p.Number).Msg("no text on page")
			continue
		}
		grids = append(grids, Grid{Page: p.Number, Cells: cells})
	}
	if len(grids) == 0 {
		return nil, &ExtractionError{Path: path, Err: ErrNoTables}
	}
	log.Debug().Str("path", path).Int("pages", len(pages)).Int("grids", len(grids)).Msg("stream extraction")
	return grids, nil
}
