// Package normalize turns raw page grids into a typed case table.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	covid "github.com/hyperifyio/covidmx/internal/cases"
	"github.com/hyperifyio/covidmx/internal/extract"
)

// SourceDateLayout is the day/month/year form printed in bulletins. Single
// digit days and months are accepted.
const SourceDateLayout = "2/1/2006"

// Correction is a literal replacement applied to the state field after
// title casing.
type Correction struct {
	From string
	To   string
}

// DefaultCorrections fixes known rendering artifacts of the bulletin PDFs.
var DefaultCorrections = []Correction{
	{From: "Ciudad De México", To: "Ciudad de México"},
	{From: "\"Estados \nUnidos\"", To: "Estados Unidos"},
}

// Options control normalization of one extraction run.
type Options struct {
	// Header names the columns positionally. Typed mode needs exactly the
	// case table width.
	Header []string
	// MinNonNull is the sparse column threshold. Zero means
	// DefaultMinNonNull.
	MinNonNull int
	// VerifyIntegrity rejects repeated case numbers.
	VerifyIntegrity bool
	// RawHeader returns the concatenated table without typing.
	RawHeader bool
	// Corrections replace DefaultCorrections when non-nil.
	Corrections []Correction
}

// DefaultOptions returns the settings used for case listing annexes.
func DefaultOptions() Options {
	return Options{
		Header:          append([]string(nil), covid.Header...),
		MinNonNull:      DefaultMinNonNull,
		VerifyIntegrity: true,
	}
}

func (o Options) minNonNull() int {
	if o.MinNonNull <= 0 {
		return DefaultMinNonNull
	}
	return o.MinNonNull
}

func (o Options) corrections() []Correction {
	if o.Corrections == nil {
		return DefaultCorrections
	}
	return o.Corrections
}

// RawTable is the concatenated, untyped result of cleanup.
type RawTable struct {
	Header []string
	Rows   [][]Cell
}

// Result holds either a raw table (RawHeader mode) or a typed one.
type Result struct {
	Raw   *RawTable
	Table *covid.Table
	// Grids counts the grids that contributed at least one row.
	Grids int
}

// Concat cleans every grid and stacks the surviving rows in page order under
// header. A contributing grid whose width differs from the header is a
// SchemaError.
func Concat(grids []extract.Grid, header []string, minNonNull int) (*RawTable, int, error) {
	if minNonNull <= 0 {
		minNonNull = DefaultMinNonNull
	}
	table := &RawTable{Header: append([]string(nil), header...)}
	used := 0
	for _, g := range grids {
		rows := Clean(g, minNonNull)
		if len(rows) == 0 {
			log.Debug().Int("page", g.Page).Msg("grid contributes no rows")
			continue
		}
		if width := len(rows[0]); width != len(header) {
			return nil, 0, &SchemaError{Page: g.Page, Got: width, Want: len(header)}
		}
		table.Rows = append(table.Rows, rows...)
		used++
	}
	return table, used, nil
}

// Normalize runs the full cleanup and typing pipeline.
func Normalize(grids []extract.Grid, opts Options) (Result, error) {
	header := opts.Header
	if len(header) == 0 {
		header = covid.Header
	}
	raw, used, err := Concat(grids, header, opts.minNonNull())
	if err != nil {
		return Result{}, err
	}
	if opts.RawHeader {
		return Result{Raw: raw, Grids: used}, nil
	}
	if len(header) != len(covid.Header) {
		return Result{}, &SchemaError{Got: len(header), Want: len(covid.Header)}
	}
	table, err := typed(raw, opts)
	if err != nil {
		return Result{}, err
	}
	return Result{Table: table, Grids: used}, nil
}

func typed(raw *RawTable, opts Options) (*covid.Table, error) {
	title := cases.Title(language.Spanish)
	fixes := opts.corrections()
	seen := make(map[int]struct{}, len(raw.Rows))
	table := &covid.Table{Records: make([]covid.Record, 0, len(raw.Rows))}
	for _, row := range raw.Rows {
		key, err := strconv.Atoi(row[0].Value)
		if err != nil {
			return nil, &ParseError{Column: raw.Header[0], Value: row[0].Value, Err: err}
		}
		if _, dup := seen[key]; dup && opts.VerifyIntegrity {
			return nil, &DuplicateKeyError{Key: key}
		}
		seen[key] = struct{}{}

		onset, err := parseSourceDate(row[4])
		if err != nil {
			return nil, &ParseError{Column: raw.Header[4], Key: key, Value: row[4].Value, Err: err}
		}
		arrival, err := parseSourceDate(row[7])
		if err != nil {
			return nil, &ParseError{Column: raw.Header[7], Key: key, Value: row[7].Value, Err: err}
		}
		table.Records = append(table.Records, covid.Record{
			Number:       key,
			State:        fixState(title.String(row[1].String()), fixes),
			Sex:          strings.TrimSpace(row[2].String()),
			Age:          strings.TrimSpace(row[3].String()),
			SymptomOnset: onset,
			TestID:       strings.TrimSpace(row[5].String()),
			Origin:       strings.TrimSpace(row[6].String()),
			Arrival:      arrival,
		})
	}
	return table, nil
}

func parseSourceDate(c Cell) (covid.Date, error) {
	if !c.Valid {
		return covid.Date{}, nil
	}
	t, err := time.Parse(SourceDateLayout, strings.TrimSpace(c.Value))
	if err != nil {
		return covid.Date{}, fmt.Errorf("want day/month/year: %w", err)
	}
	return covid.NewDate(t.Year(), t.Month(), t.Day()), nil
}

func fixState(s string, fixes []Correction) string {
	for _, f := range fixes {
		s = strings.ReplaceAll(s, f.From, f.To)
	}
	return strings.TrimSpace(s)
}

// Strings renders the raw table with nulls as empty strings, header first.
func (t *RawTable) Strings() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Header...))
	for _, row := range t.Rows {
		line := make([]string, len(row))
		for i, c := range row {
			line[i] = c.String()
		}
		out = append(out, line)
	}
	return out
}
