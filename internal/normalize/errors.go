package normalize

import "fmt"

// SchemaError reports a table whose column count disagrees with the header.
type SchemaError struct {
	// Page is the source page of the offending grid, or 0 for the header
	// itself.
	Page int
	Got  int
	Want int
}

func (e *SchemaError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("schema: header has %d columns, want %d", e.Got, e.Want)
	}
	return fmt.Sprintf("schema: page %d has %d columns, header has %d", e.Page, e.Got, e.Want)
}

// DuplicateKeyError reports a repeated case number while integrity
// verification is on.
type DuplicateKeyError struct {
	Key int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate case number %d", e.Key)
}

// ParseError reports a cell that could not be converted to its typed form.
type ParseError struct {
	Column string
	// Key is the case number of the row, when known.
	Key   int
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s of case %d: %q: %v", e.Column, e.Key, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
