package extract

import (
	"sort"
	"strings"
)

// minColumnGap is the horizontal whitespace, in points, that separates two
// column spans.
const minColumnGap = 3.0

type row struct {
	Y     float64
	Words []word
}

// groupRows clusters words whose baselines lie within tol of the row's first
// word, top of the page first. Words inside a row are ordered left to right.
func groupRows(words []word, tol float64) []row {
	if len(words) == 0 {
		return nil
	}
	sorted := make([]word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})
	var rows []row
	cur := row{Y: sorted[0].Y, Words: []word{sorted[0]}}
	for _, w := range sorted[1:] {
		if cur.Y-w.Y <= tol {
			cur.Words = append(cur.Words, w)
			continue
		}
		rows = append(rows, cur)
		cur = row{Y: w.Y, Words: []word{w}}
	}
	rows = append(rows, cur)
	for i := range rows {
		ws := rows[i].Words
		sort.SliceStable(ws, func(a, b int) bool { return ws[a].X < ws[b].X })
	}
	return rows
}

type span struct{ Lo, Hi float64 }

func (s span) distance(x float64) float64 {
	switch {
	case x < s.Lo:
		return s.Lo - x
	case x > s.Hi:
		return x - s.Hi
	default:
		return 0
	}
}

// inferColumns derives column spans from the horizontal extent of words in
// the rows with the most common word count. Titles and footnotes that cut
// across columns are thereby kept out of the projection.
func inferColumns(rows []row) []span {
	freq := make(map[int]int)
	for _, r := range rows {
		if len(r.Words) > 1 {
			freq[len(r.Words)]++
		}
	}
	mode, best := 1, 0
	for n, c := range freq {
		if c > best || (c == best && n > mode) {
			mode, best = n, c
		}
	}
	var spans []span
	for _, r := range rows {
		if len(r.Words) != mode {
			continue
		}
		for _, w := range r.Words {
			spans = append(spans, span{Lo: w.X, Hi: w.right()})
		}
	}
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Lo < spans[j].Lo })
	merged := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Lo-last.Hi < minColumnGap {
			if s.Hi > last.Hi {
				last.Hi = s.Hi
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func nearestColumn(cols []span, x float64) int {
	best, dist := 0, cols[0].distance(x)
	for i := 1; i < len(cols); i++ {
		if d := cols[i].distance(x); d < dist {
			best, dist = i, d
		}
	}
	return best
}

// streamLayout lays words out on a grid using row proximity and whitespace
// column inference. Words landing in the same cell are joined with a space.
func streamLayout(words []word, tol float64) [][]string {
	rows := groupRows(words, tol)
	cols := inferColumns(rows)
	if len(cols) == 0 {
		return nil
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = rowCells(r, cols)
	}
	return cells
}

// rowCells assigns the words of r to their nearest column.
func rowCells(r row, cols []span) []string {
	parts := make([][]string, len(cols))
	for _, w := range r.Words {
		c := nearestColumn(cols, w.centerX())
		parts[c] = append(parts[c], strings.TrimSpace(w.Text))
	}
	line := make([]string, len(cols))
	for c, p := range parts {
		line[c] = strings.Join(p, " ")
	}
	return line
}
