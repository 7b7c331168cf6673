package extract

import "fmt"

// Extractor turns a document on disk into raw cell grids, one per detected
// table region. Implementations must release the document before returning.
type Extractor interface {
	Extract(path string, opts Options) ([]Grid, error)
}

// Grid is an ordered 2D grid of cell text for one table region on one page.
// Rows may be ragged.
type Grid struct {
	// Page is 1-based.
	Page  int
	Cells [][]string
}

// Cols returns the width of the widest row.
func (g Grid) Cols() int {
	n := 0
	for _, row := range g.Cells {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// New returns the backend registered under name. The empty name selects the
// stream backend.
func New(name string) (Extractor, error) {
	switch name {
	case "", StreamBackend:
		return &Stream{}, nil
	case GeometricBackend:
		return &Geometric{}, nil
	default:
		return nil, &ExtractionError{Err: fmt.Errorf("unknown backend %q", name)}
	}
}
