// Package tsv reads and writes tab-separated tables through gocsv struct tags.
package tsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/hyperifyio/covidmx/internal/fileutil"
)

// ErrEmpty is returned when a file has no header row.
var ErrEmpty = errors.New("tsv: empty file")

// NewReader returns a csv.Reader configured for tab-separated input.
func NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

// Marshal writes rows (a slice of tagged structs) with a header line.
func Marshal(w io.Writer, rows interface{}) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("marshal tsv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecords writes records verbatim, the first one being the header.
func WriteRecords(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write tsv: %w", err)
	}
	return cw.Error()
}

// Rows is a fully buffered table. It satisfies gocsv.CSVReader so a header
// can be inspected or rewritten before decoding.
type Rows struct {
	Records [][]string
	pos     int
}

// ReadAllRows buffers every record of a tab-separated stream.
func ReadAllRows(r io.Reader) (*Rows, error) {
	records, err := NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read tsv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return &Rows{Records: records}, nil
}

// Header returns the first record.
func (r *Rows) Header() []string { return r.Records[0] }

// HasColumn reports whether the header contains name.
func (r *Rows) HasColumn(name string) bool {
	for _, h := range r.Header() {
		if h == name {
			return true
		}
	}
	return false
}

func (r *Rows) Read() ([]string, error) {
	if r.pos >= len(r.Records) {
		return nil, io.EOF
	}
	rec := r.Records[r.pos]
	r.pos++
	return rec, nil
}

func (r *Rows) ReadAll() ([][]string, error) {
	rest := r.Records[r.pos:]
	r.pos = len(r.Records)
	return rest, nil
}

// Decode fills out (a pointer to a slice of tagged structs). A file holding
// only a header yields an empty slice.
func (r *Rows) Decode(out interface{}) error {
	if len(r.Records) < 2 {
		return nil
	}
	r.pos = 0
	if err := gocsv.UnmarshalCSV(r, out); err != nil {
		return fmt.Errorf("decode tsv: %w", err)
	}
	return nil
}

// Unmarshal reads a whole tab-separated stream into out.
func Unmarshal(r io.Reader, out interface{}) error {
	rows, err := ReadAllRows(r)
	if err != nil {
		return err
	}
	return rows.Decode(out)
}

// ReadFile opens path and unmarshals it into out.
func ReadFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := Unmarshal(f, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteFile marshals rows into path atomically.
func WriteFile(path string, rows interface{}) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		return Marshal(w, rows)
	})
}
