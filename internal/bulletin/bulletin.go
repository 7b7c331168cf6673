// Package bulletin stores the daily aggregate counters of a technical
// bulletin.
package bulletin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperifyio/covidmx/internal/cases"
	"github.com/hyperifyio/covidmx/internal/tsv"
)

// Status labels used in the long form file.
const (
	StatusConfirmed = "confirmados"
	StatusSuspected = "sospechosos"
	StatusNegative  = "negativos"
	StatusDeaths    = "defunciones"
)

// FileSuffix is appended to the YYYYMMDD date to name a summary file.
const FileSuffix = "_comunicado.tsv"

// Summary holds the four counters reported on one date.
type Summary struct {
	Date      cases.Date
	Confirmed int
	Suspected int
	Negative  int
	Deaths    int
}

// Counter is one status and its value, in bulletin order.
type Counter struct {
	Status string
	Value  int
}

// Counters lists the summary in the order bulletins print them.
func (s Summary) Counters() []Counter {
	return []Counter{
		{StatusConfirmed, s.Confirmed},
		{StatusSuspected, s.Suspected},
		{StatusNegative, s.Negative},
		{StatusDeaths, s.Deaths},
	}
}

// Validate rejects summaries without a date or with negative counters.
func (s Summary) Validate() error {
	if s.Date.IsZero() {
		return errors.New("bulletin: missing date")
	}
	for _, c := range s.Counters() {
		if c.Value < 0 {
			return fmt.Errorf("bulletin: negative %s count %d", c.Status, c.Value)
		}
	}
	return nil
}

// FileName returns the summary file name for the summary's date.
func (s Summary) FileName() string { return s.Date.Compact() + FileSuffix }

type longRow struct {
	Status string     `csv:"status"`
	Num    int        `csv:"num"`
	Date   cases.Date `csv:"fecha"`
}

// Save writes the summary into dir and returns the file path.
func Save(dir string, s Summary) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	rows := make([]longRow, 0, 4)
	for _, c := range s.Counters() {
		rows = append(rows, longRow{Status: c.Status, Num: c.Value, Date: s.Date})
	}
	path := filepath.Join(dir, s.FileName())
	if err := tsv.WriteFile(path, rows); err != nil {
		return "", fmt.Errorf("save summary: %w", err)
	}
	return path, nil
}

// Load reads one summary file. Rows may carry several dates; each date
// becomes its own summary.
func Load(path string) ([]Summary, error) {
	var rows []longRow
	if err := tsv.ReadFile(path, &rows); err != nil {
		return nil, err
	}
	byDate := make(map[string]*Summary)
	var order []string
	for _, r := range rows {
		key := r.Date.String()
		s, ok := byDate[key]
		if !ok {
			s = &Summary{Date: r.Date}
			byDate[key] = s
			order = append(order, key)
		}
		switch strings.ToLower(strings.TrimSpace(r.Status)) {
		case StatusConfirmed:
			s.Confirmed = r.Num
		case StatusSuspected:
			s.Suspected = r.Num
		case StatusNegative:
			s.Negative = r.Num
		case StatusDeaths:
			s.Deaths = r.Num
		default:
			return nil, fmt.Errorf("%s: unknown status %q", path, r.Status)
		}
	}
	out := make([]Summary, 0, len(order))
	for _, k := range order {
		out = append(out, *byDate[k])
	}
	return out, nil
}

// LoadDir reads every summary file in dir, ordered by date. Later files win
// when two carry the same date.
func LoadDir(dir string) ([]Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read summaries: %w", err)
	}
	byDate := make(map[string]Summary)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileSuffix) {
			continue
		}
		list, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, s := range list {
			byDate[s.Date.String()] = s
		}
	}
	out := make([]Summary, 0, len(byDate))
	for _, s := range byDate {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}
