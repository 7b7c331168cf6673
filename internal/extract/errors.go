package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTables means no page of the document produced a table region.
	ErrNoTables = errors.New("no tables found")
	// ErrBadPages reports an unusable page selector.
	ErrBadPages = errors.New("invalid page selector")
)

// ExtractionError wraps any failure to open a document or detect tables in it.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("extract: %v", e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
