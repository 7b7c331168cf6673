// Package annotate flags case records listed as new in a bulletin.
package annotate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperifyio/covidmx/internal/cases"
)

// FormatError reports a malformed token in a range specification.
type FormatError struct {
	Token  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("range %q: %s", e.Token, e.Reason)
}

// Set is a set of case numbers held as sorted, disjoint inclusive
// intervals.
type Set struct {
	spans []interval
}

type interval struct{ lo, hi int }

// Has reports membership.
func (s Set) Has(n int) bool {
	i := sort.Search(len(s.spans), func(i int) bool { return s.spans[i].hi >= n })
	return i < len(s.spans) && s.spans[i].lo <= n
}

// Len returns the number of members.
func (s Set) Len() int {
	n := 0
	for _, sp := range s.spans {
		n += sp.hi - sp.lo + 1
	}
	return n
}

// Intervals returns the merged ranges as [lo, hi] pairs in ascending order.
func (s Set) Intervals() [][2]int {
	out := make([][2]int, len(s.spans))
	for i, sp := range s.spans {
		out[i] = [2]int{sp.lo, sp.hi}
	}
	return out
}

// absent returns up to limit members, in ascending order, that are not in
// present.
func (s Set) absent(present map[int]struct{}, limit int) []int {
	var out []int
	for _, sp := range s.spans {
		for n := sp.lo; n <= sp.hi; n++ {
			if len(out) == limit {
				return out
			}
			if _, ok := present[n]; !ok {
				out = append(out, n)
			}
		}
	}
	return out
}

// ParseRanges parses "a-b,c,d-e" into the union of its inclusive ranges.
// Whitespace around tokens is ignored. Overlapping and adjacent ranges are
// merged.
func ParseRanges(spec string) (Set, error) {
	var spans []interval
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return Set{}, &FormatError{Token: tok, Reason: "empty token"}
		}
		lo, hi, err := parseToken(tok)
		if err != nil {
			return Set{}, err
		}
		spans = append(spans, interval{lo: lo, hi: hi})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
	merged := spans[:1]
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.lo <= last.hi+1 {
			if sp.hi > last.hi {
				last.hi = sp.hi
			}
			continue
		}
		merged = append(merged, sp)
	}
	return Set{spans: merged}, nil
}

func parseToken(tok string) (int, int, error) {
	parts := strings.Split(tok, "-")
	switch len(parts) {
	case 1:
		n, err := parseBound(tok, parts[0])
		return n, n, err
	case 2:
		lo, err := parseBound(tok, parts[0])
		if err != nil {
			return 0, 0, err
		}
		hi, err := parseBound(tok, parts[1])
		if err != nil {
			return 0, 0, err
		}
		if hi < lo {
			return 0, 0, &FormatError{Token: tok, Reason: "range end before start"}
		}
		return lo, hi, nil
	default:
		return 0, 0, &FormatError{Token: tok, Reason: "too many dashes"}
	}
}

func parseBound(tok, s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil || strings.HasPrefix(s, "+") {
		return 0, &FormatError{Token: tok, Reason: fmt.Sprintf("%q is not an integer", s)}
	}
	return n, nil
}

// Diagnostic is surfaced to the caller when the table is left unannotated
// or when listed case numbers match no record.
type Diagnostic struct {
	Message string
	// Omitted holds the first listed case numbers absent from the table.
	Omitted []int
	// Missing counts every listed case number absent from the table.
	Missing int
}

// NoSpecMessage is reported when no range specification was given.
const NoSpecMessage = "no new case ranges given; the casos_nuevos column is omitted"

// maxOmitted bounds Diagnostic.Omitted.
const maxOmitted = 20

// Apply flags every record whose case number is in the parsed spec. An empty
// spec leaves the table untouched and returns a diagnostic, as do listed
// case numbers that match no record. In the latter case the table is still
// annotated.
func Apply(t *cases.Table, spec string) (*Diagnostic, error) {
	if strings.TrimSpace(spec) == "" {
		t.Annotated = false
		for i := range t.Records {
			t.Records[i].IsNewCase = nil
		}
		return &Diagnostic{Message: NoSpecMessage}, nil
	}
	set, err := ParseRanges(spec)
	if err != nil {
		return nil, err
	}
	present := make(map[int]struct{})
	for i := range t.Records {
		flag := set.Has(t.Records[i].Number)
		t.Records[i].IsNewCase = &flag
		if flag {
			present[t.Records[i].Number] = struct{}{}
		}
	}
	t.Annotated = true

	missing := set.Len() - len(present)
	if missing == 0 {
		return nil, nil
	}
	omitted := set.absent(present, maxOmitted)
	nums := make([]string, len(omitted))
	for i, n := range omitted {
		nums[i] = strconv.Itoa(n)
	}
	list := strings.Join(nums, ", ")
	if missing > len(omitted) {
		list += ", ..."
	}
	return &Diagnostic{
		Message: fmt.Sprintf("%d listed new case numbers are not in the table: %s", missing, list),
		Omitted: omitted,
		Missing: missing,
	}, nil
}
