package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/covidmx/internal/cases"
)

func entry(day int) Entry {
	return Entry{
		Date:   cases.NewDate(2020, time.March, day),
		Source: fmt.Sprintf("https://www.gob.mx/cms/uploads/attachment/file/5438%02d/Tabla_casos.pdf", day),
		Output: fmt.Sprintf("tablas/202003%02d.tsv", day),
	}
}

func sameEntry(a, b Entry) bool {
	return a.Date.Equal(b.Date.Time) && a.Source == b.Source && a.Output == b.Output
}

func TestInsert_MonotonicDates(t *testing.T) {
	l := &Ledger{}
	if ok, err := l.Insert(entry(10)); err != nil || !ok {
		t.Fatalf("first insert: ok=%v err=%v", ok, err)
	}
	if ok, _ := l.Insert(entry(10)); ok {
		t.Fatalf("same date must be a no-op")
	}
	if ok, _ := l.Insert(entry(9)); ok {
		t.Fatalf("older date must be a no-op")
	}
	if ok, _ := l.Insert(entry(11)); !ok {
		t.Fatalf("newer date must append")
	}
	if len(l.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(l.Entries))
	}
	if _, err := l.Insert(Entry{Source: "x"}); err == nil {
		t.Fatalf("expected error for missing date")
	}
}

func TestUpdate_AppendsAndNoOps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.tsv")
	if err := Update(path, entry(10)); err != nil {
		t.Fatalf("update new ledger: %v", err)
	}
	if err := Update(path, entry(12)); err != nil {
		t.Fatalf("append: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	dup := entry(12)
	dup.Source = "other.pdf"
	if err := Update(path, dup); !errors.Is(err, ErrAlreadyPresent) {
		t.Fatalf("expected ErrAlreadyPresent, got %v", err)
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Fatalf("no-op insert changed the ledger")
	}

	if err := Update(path, entry(13)); err != nil {
		t.Fatalf("append: %v", err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(l.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(l.Entries))
	}
	if !sameEntry(l.Entries[0], entry(10)) || !sameEntry(l.Entries[1], entry(12)) {
		t.Fatalf("prior rows changed: %+v", l.Entries[:2])
	}
	last, _ := l.Latest()
	if last.Date.String() != "2020-03-13" {
		t.Fatalf("latest: %s", last.Date)
	}
}

func TestLoad_ExistingFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.tsv")
	data := "fecha\tpdf_original\tarchivo_tsv\n" +
		"2020-03-12\tb.pdf\t20200312.tsv\n" +
		"2020-03-10 00:00:00\ta.pdf\t20200310.tsv\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.Entries[0].Source != "a.pdf" {
		t.Fatalf("entries should be ordered by date: %+v", l.Entries)
	}
	if err := l.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(b), "fecha\tpdf_original\tarchivo_tsv\n2020-03-10\t") {
		t.Fatalf("unexpected saved ledger %q", string(b))
	}
}

func TestLoad_Missing(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "none.tsv"))
	if err != nil || len(l.Entries) != 0 {
		t.Fatalf("missing ledger should be empty: %v", err)
	}
}
