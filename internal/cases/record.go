package cases

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the on-disk form of calendar dates in every TSV file.
const DateLayout = "2006-01-02"

// dateLayouts lists the accepted input forms. Older tables carry a midnight
// time component.
var dateLayouts = []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339}

// Date is a calendar date without a time of day. The zero value means the
// source cell was empty.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts DateLayout and a few compatible timestamp forms.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Compact renders the date as YYYYMMDD, the prefix used for output file names.
func (d Date) Compact() string { return d.Format("20060102") }

func (d Date) MarshalCSV() (string, error) { return d.String(), nil }

func (d *Date) UnmarshalCSV(s string) error {
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Flag is the persisted form of the new-case marker.
type Flag bool

func (f Flag) MarshalCSV() (string, error) {
	if f {
		return "True", nil
	}
	return "False", nil
}

func (f *Flag) UnmarshalCSV(s string) error {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid flag %q", s)
	}
	*f = Flag(b)
	return nil
}

// Record is one confirmed case as listed in a bulletin annex.
type Record struct {
	Number       int    `csv:"num_caso"`
	State        string `csv:"estado"`
	Sex          string `csv:"sexo"`
	Age          string `csv:"edad"`
	SymptomOnset Date   `csv:"fecha_inicio_sintomas"`
	TestID       string `csv:"id_rt-pcr"`
	Origin       string `csv:"procedencia"`
	Arrival      Date   `csv:"fecha_llegada_mx"`
	// IsNewCase is nil when the table was not annotated.
	IsNewCase *bool `csv:"-"`
}

// Table is the ordered set of records produced by one extraction run.
type Table struct {
	Records []Record
	// Annotated reports whether IsNewCase is populated on every record and
	// the casos_nuevos column is written.
	Annotated bool
}

// Header is the column order of a case table, without the optional
// casos_nuevos column.
var Header = []string{
	"num_caso",
	"estado",
	"sexo",
	"edad",
	"fecha_inicio_sintomas",
	"id_rt-pcr",
	"procedencia",
	"fecha_llegada_mx",
}

// NewCaseColumn names the optional annotation column.
const NewCaseColumn = "casos_nuevos"

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// CountNew returns how many records are flagged as new cases.
func (t *Table) CountNew() int {
	n := 0
	for _, r := range t.Records {
		if r.IsNewCase != nil && *r.IsNewCase {
			n++
		}
	}
	return n
}

// CountByState tallies records per state, preserving first-seen order in
// the returned key slice.
func (t *Table) CountByState() ([]string, map[string]int) {
	counts := make(map[string]int)
	var order []string
	for _, r := range t.Records {
		if _, ok := counts[r.State]; !ok {
			order = append(order, r.State)
		}
		counts[r.State]++
	}
	return order, counts
}
