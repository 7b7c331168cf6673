package cases

import (
	"fmt"
	"io"
	"os"

	"github.com/hyperifyio/covidmx/internal/fileutil"
	"github.com/hyperifyio/covidmx/internal/tsv"
)

type annotatedRecord struct {
	Record
	NewCase Flag `csv:"casos_nuevos"`
}

// Write serializes the table as TSV. The casos_nuevos column is present only
// for annotated tables.
func Write(w io.Writer, t *Table) error {
	if !t.Annotated {
		return tsv.Marshal(w, t.Records)
	}
	rows := make([]annotatedRecord, len(t.Records))
	for i, r := range t.Records {
		rows[i].Record = r
		if r.IsNewCase != nil {
			rows[i].NewCase = Flag(*r.IsNewCase)
		}
	}
	return tsv.Marshal(w, rows)
}

// Read parses a case table. Tables written with an unnamed index column are
// accepted; the first column is then taken as num_caso.
func Read(r io.Reader) (*Table, error) {
	rows, err := tsv.ReadAllRows(r)
	if err != nil {
		return nil, err
	}
	if h := rows.Header(); len(h) > 0 && h[0] == "" {
		h[0] = Header[0]
	}
	if !rows.HasColumn(NewCaseColumn) {
		var recs []Record
		if err := rows.Decode(&recs); err != nil {
			return nil, err
		}
		return &Table{Records: recs}, nil
	}
	var annotated []annotatedRecord
	if err := rows.Decode(&annotated); err != nil {
		return nil, err
	}
	t := &Table{Records: make([]Record, len(annotated)), Annotated: true}
	for i, a := range annotated {
		rec := a.Record
		flag := bool(a.NewCase)
		rec.IsNewCase = &flag
		t.Records[i] = rec
	}
	return t, nil
}

// WriteFile writes the table to path atomically.
func WriteFile(path string, t *Table) error {
	if err := fileutil.WriteAtomic(path, func(w io.Writer) error { return Write(w, t) }); err != nil {
		return fmt.Errorf("write case table: %w", err)
	}
	return nil
}

// ReadFile loads a case table from path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
