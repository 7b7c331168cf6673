package charts

import (
	"errors"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/hyperifyio/covidmx/internal/bulletin"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("charts: no data")

const confirmedColor = "rgb(255, 0, 0)"

// ConfirmedSeries builds the national confirmed cases line chart from
// summaries ordered by date.
func ConfirmedSeries(summaries []bulletin.Summary, o Options) (*charts.Line, error) {
	if len(summaries) == 0 {
		return nil, ErrNoData
	}
	last := summaries[len(summaries)-1].Date
	dates := make([]string, 0, len(summaries))
	points := make([]opts.LineData, 0, len(summaries))
	for _, s := range summaries {
		dates = append(dates, s.Date.String())
		points = append(points, opts.LineData{Name: s.Date.String(), Value: s.Confirmed})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  "covid19: casos confirmados",
			Width:      o.width(),
			Height:     o.height(),
			AssetsHost: o.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "covid19: casos confirmados",
			Subtitle: last.String(),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
	)
	line.SetXAxis(dates).AddSeries("confirmados", points,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true), SymbolSize: 4}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: confirmedColor}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: 1}),
	)
	return line, nil
}

// WriteConfirmed renders the confirmed series and writes it to targets,
// dated by the latest summary.
func WriteConfirmed(summaries []bulletin.Summary, targets Targets, o Options) ([]string, error) {
	line, err := ConfirmedSeries(summaries, o)
	if err != nil {
		return nil, fmt.Errorf("confirmed series: %w", err)
	}
	return write(line, KindConfirmed, summaries[len(summaries)-1].Date, targets)
}
