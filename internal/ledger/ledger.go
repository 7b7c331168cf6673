// Package ledger keeps the index of processed bulletin dates.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/hyperifyio/covidmx/internal/cases"
	"github.com/hyperifyio/covidmx/internal/tsv"
)

// ErrAlreadyPresent is returned by Update when the ledger already covers a
// date at or after the new entry.
var ErrAlreadyPresent = errors.New("ledger: date already present")

// Entry records one processed bulletin.
type Entry struct {
	Date   cases.Date `csv:"fecha"`
	Source string     `csv:"pdf_original"`
	Output string     `csv:"archivo_tsv"`
}

// Ledger is an append-only sequence of entries ordered by date.
type Ledger struct {
	Entries []Entry
}

// Load reads the ledger at path. A missing file yields an empty ledger.
func Load(path string) (*Ledger, error) {
	var entries []Entry
	err := tsv.ReadFile(path, &entries)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &Ledger{}, nil
	case errors.Is(err, tsv.ErrEmpty):
		return &Ledger{}, nil
	case err != nil:
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	l := &Ledger{Entries: entries}
	l.sort()
	return l, nil
}

func (l *Ledger) sort() {
	sort.SliceStable(l.Entries, func(i, j int) bool {
		return l.Entries[i].Date.Before(l.Entries[j].Date.Time)
	})
}

// Latest returns the most recent entry.
func (l *Ledger) Latest() (Entry, bool) {
	if len(l.Entries) == 0 {
		return Entry{}, false
	}
	return l.Entries[len(l.Entries)-1], true
}

// Insert appends e when its date is strictly after every date in the ledger
// and reports whether it did.
func (l *Ledger) Insert(e Entry) (bool, error) {
	if e.Date.IsZero() {
		return false, errors.New("ledger: entry without date")
	}
	if last, ok := l.Latest(); ok && !e.Date.After(last.Date.Time) {
		return false, nil
	}
	l.Entries = append(l.Entries, e)
	return true, nil
}

// Save writes the ledger to path, replacing any previous file.
func (l *Ledger) Save(path string) error {
	if err := tsv.WriteFile(path, l.Entries); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// Update loads the ledger at path, inserts e and saves the result. When the
// date is already covered nothing is written and ErrAlreadyPresent is
// returned.
func Update(path string, e Entry) error {
	l, err := Load(path)
	if err != nil {
		return err
	}
	added, err := l.Insert(e)
	if err != nil {
		return err
	}
	if !added {
		return ErrAlreadyPresent
	}
	return l.Save(path)
}
