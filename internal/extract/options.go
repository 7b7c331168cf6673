package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultRowTolerance is the vertical distance, in points, within which text
// fragments are considered part of the same row.
const DefaultRowTolerance = 10.0

// Options control a single extraction pass.
type Options struct {
	// Pages is "all" or a comma separated list of page numbers and ranges
	// such as "1,3-5,7-end".
	Pages string
	// RowTolerance groups fragments into rows. Zero means DefaultRowTolerance.
	RowTolerance float64
}

func (o Options) rowTolerance() float64 {
	if o.RowTolerance <= 0 {
		return DefaultRowTolerance
	}
	return o.RowTolerance
}

// ParsePages resolves a page selector against a document of count pages and
// returns sorted, de-duplicated 1-based page numbers.
func ParsePages(sel string, count int) ([]int, error) {
	sel = strings.TrimSpace(strings.ToLower(sel))
	if sel == "" || sel == "all" {
		pages := make([]int, count)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}
	seen := make(map[int]struct{})
	for _, tok := range strings.Split(sel, ",") {
		tok = strings.TrimSpace(tok)
		lo, hi, err := pageSpan(tok, count)
		if err != nil {
			return nil, err
		}
		for p := lo; p <= hi; p++ {
			seen[p] = struct{}{}
		}
	}
	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func pageSpan(tok string, count int) (int, int, error) {
	parts := strings.Split(tok, "-")
	switch len(parts) {
	case 1:
		p, err := pageNumber(parts[0], count)
		return p, p, err
	case 2:
		lo, err := pageNumber(parts[0], count)
		if err != nil {
			return 0, 0, err
		}
		hi, err := pageNumber(parts[1], count)
		if err != nil {
			return 0, 0, err
		}
		if hi < lo {
			return 0, 0, fmt.Errorf("%w: reversed range %q", ErrBadPages, tok)
		}
		return lo, hi, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrBadPages, tok)
	}
}

func pageNumber(s string, count int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "end" {
		return count, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPages, s)
	}
	if p < 1 || p > count {
		return 0, fmt.Errorf("%w: page %d outside 1-%d", ErrBadPages, p, count)
	}
	return p, nil
}
