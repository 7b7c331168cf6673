// Package charts renders bulletin data as standalone HTML documents.
package charts

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/covidmx/internal/cases"
	"github.com/hyperifyio/covidmx/internal/fileutil"
)

// Chart kinds, used in output file names.
const (
	KindConfirmed    = "casosconfirmados-nacional"
	KindMap          = "mapa-confirmados"
	KindSummaryTable = "tableheader"
)

// CurrentPrefix names the stable copy of the latest chart of each kind.
const CurrentPrefix = "CURRENT_"

// Targets lists where a rendered chart is written. Dated directories receive
// <YYYYMMDD>_<kind>.html; Current directories receive CURRENT_<kind>.html.
type Targets struct {
	Dated   []string
	Current []string
}

// Empty reports whether no output directory is configured.
func (t Targets) Empty() bool { return len(t.Dated) == 0 && len(t.Current) == 0 }

// Paths expands the targets for one chart.
func (t Targets) Paths(kind string, date cases.Date) []string {
	out := make([]string, 0, len(t.Dated)+len(t.Current))
	for _, dir := range t.Dated {
		out = append(out, filepath.Join(dir, fmt.Sprintf("%s_%s.html", date.Compact(), kind)))
	}
	for _, dir := range t.Current {
		out = append(out, filepath.Join(dir, CurrentPrefix+kind+".html"))
	}
	return out
}

// renderer is satisfied by every go-echarts chart.
type renderer interface {
	Render(w io.Writer) error
}

// write renders once and stores the document at every target path.
func write(r renderer, kind string, date cases.Date, targets Targets) ([]string, error) {
	if targets.Empty() {
		return nil, fmt.Errorf("%s: no output targets", kind)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	paths := targets.Paths(kind, date)
	for _, p := range paths {
		if err := fileutil.WriteAtomic(p, func(w io.Writer) error {
			_, err := w.Write(buf.Bytes())
			return err
		}); err != nil {
			return nil, fmt.Errorf("write %s: %w", p, err)
		}
		log.Info().Str("out", p).Str("kind", kind).Msg("wrote chart")
	}
	return paths, nil
}

// Options tune chart rendering.
type Options struct {
	// AssetsHost serves the echarts scripts. Empty uses the library default.
	AssetsHost string
	Width      string
	Height     string
}

func (o Options) width() string {
	if o.Width == "" {
		return "900px"
	}
	return o.Width
}

func (o Options) height() string {
	if o.Height == "" {
		return "500px"
	}
	return o.Height
}
