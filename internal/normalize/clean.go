package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/covidmx/internal/extract"
)

// DefaultMinNonNull is the least number of non-null cells a column needs to
// survive cleanup. Sparser columns come from page headers, footers and
// margins.
const DefaultMinNonNull = 10

// nullLiteral is the placeholder bulletins print for missing values.
const nullLiteral = "NA"

// notNumber fills empty identifier cells so the numeric filter drops them.
const notNumber = "notnum"

// Cell is a cleaned cell. Null cells have Valid false.
type Cell struct {
	Value string
	Valid bool
}

// String renders nulls as the empty string.
func (c Cell) String() string {
	if !c.Valid {
		return ""
	}
	return c.Value
}

func newCell(raw string) Cell {
	v := norm.NFC.String(raw)
	if strings.TrimSpace(v) == "" || v == nullLiteral {
		return Cell{}
	}
	return Cell{Value: v, Valid: true}
}

// Clean applies null marking, sparse column removal and the numeric
// identifier filter to one grid. It returns nil when no column survives. The
// returned rows may be empty while columns remain.
func Clean(g extract.Grid, minNonNull int) [][]Cell {
	width := g.Cols()
	if width == 0 {
		return nil
	}
	rows := make([][]Cell, len(g.Cells))
	counts := make([]int, width)
	for i, raw := range g.Cells {
		row := make([]Cell, width)
		for j, v := range raw {
			row[j] = newCell(v)
			if row[j].Valid {
				counts[j]++
			}
		}
		rows[i] = row
	}

	keep := make([]int, 0, width)
	for j, n := range counts {
		if n >= minNonNull {
			keep = append(keep, j)
		}
	}
	if len(keep) == 0 {
		return nil
	}

	out := make([][]Cell, 0, len(rows))
	for _, row := range rows {
		packed := make([]Cell, len(keep))
		for k, j := range keep {
			packed[k] = row[j]
		}
		if !packed[0].Valid {
			packed[0] = Cell{Value: notNumber, Valid: true}
		}
		if !isNumeric(packed[0].Value) {
			continue
		}
		out = append(out, packed)
	}
	return out
}

// isNumeric reports whether s is a non-empty run of ASCII digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
