package charts

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/covidmx/internal/cases"
	"github.com/hyperifyio/covidmx/internal/tsv"
)

// markerScale converts log(count) into a symbol size in pixels.
const markerScale = 6.0

// Coordinate places a state on the map.
type Coordinate struct {
	State  string  `csv:"estado"`
	Abbrev string  `csv:"abrev"`
	Lat    float64 `csv:"lat"`
	Long   float64 `csv:"long"`
}

// LoadCoordinates reads a state coordinates table.
func LoadCoordinates(path string) ([]Coordinate, error) {
	var coords []Coordinate
	if err := tsv.ReadFile(path, &coords); err != nil {
		return nil, fmt.Errorf("load coordinates: %w", err)
	}
	return coords, nil
}

// StatePoint is one map marker.
type StatePoint struct {
	Coordinate
	Count int
	Size  float64
}

// markerSize grows with the logarithm of the count. States without cases
// get no marker.
func markerSize(count int) float64 {
	if count <= 0 {
		return 0
	}
	return markerScale * (1 + math.Log(float64(count)))
}

// StatePoints joins per-state case counts onto the coordinates table. Every
// coordinate yields a point; case states missing from the table are returned
// separately.
func StatePoints(t *cases.Table, coords []Coordinate) ([]StatePoint, []string) {
	order, counts := t.CountByState()
	known := make(map[string]bool, len(coords))
	points := make([]StatePoint, 0, len(coords))
	for _, c := range coords {
		known[c.State] = true
		n := counts[c.State]
		points = append(points, StatePoint{Coordinate: c, Count: n, Size: markerSize(n)})
	}
	var missing []string
	for _, s := range order {
		if !known[s] {
			missing = append(missing, s)
		}
	}
	return points, missing
}

// Map window over Mexico, in degrees.
const (
	viewWest  = -127.0
	viewEast  = -76.0
	viewSouth = 14.0
	viewNorth = 34.0
)

// mexicoView centres the world map on the window above and zooms so its
// longitude span fills the chart width.
func mexicoView() string {
	lon := (viewWest + viewEast) / 2
	lat := (viewSouth + viewNorth) / 2
	zoom := 360 / (viewEast - viewWest)
	return fmt.Sprintf("%%MY_ECHARTS%%.setOption({geo: {center: [%g, %g], zoom: %.2f}});", lon, lat, zoom)
}

// StateMap builds the bubble map of confirmed cases per state.
func StateMap(t *cases.Table, coords []Coordinate, date cases.Date, o Options) (*charts.Geo, error) {
	if t.Len() == 0 || len(coords) == 0 {
		return nil, ErrNoData
	}
	points, missing := StatePoints(t, coords)
	for _, s := range missing {
		log.Warn().Str("estado", s).Msg("state has no coordinates; left off the map")
	}
	data := make([]opts.GeoData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.GeoData{
			Name:  p.Abbrev,
			Value: []float64{p.Long, p.Lat, float64(p.Count), p.Size},
		})
	}

	geo := charts.NewGeo()
	geo.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  "covid19: casos confirmados por estado",
			Width:      o.width(),
			Height:     o.height(),
			AssetsHost: o.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "covid19: casos confirmados por estado",
			Subtitle: date.String(),
		}),
		charts.WithGeoComponentOpts(opts.GeoComponent{
			Map:       "world",
			ItemStyle: &opts.ItemStyle{AreaColor: "#f3f3f3", Color: "#d9d9d9"},
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Formatter: opts.FuncOpts("function (p) { return p.name + '<br>' + p.value[2]; }"),
		}),
	)
	geo.AddJSFuncStrs(types.FuncStr(mexicoView()))
	geo.AddSeries("confirmados", types.ChartScatter, data,
		charts.WithScatterChartOpts(opts.ScatterChart{
			SymbolSize: opts.FuncOpts("function (val) { return val[3]; }"),
		}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: confirmedColor}),
	)
	return geo, nil
}

// WriteStateMap renders the state map and writes it to targets.
func WriteStateMap(t *cases.Table, coords []Coordinate, date cases.Date, targets Targets, o Options) ([]string, error) {
	geo, err := StateMap(t, coords, date, o)
	if err != nil {
		return nil, fmt.Errorf("state map: %w", err)
	}
	return write(geo, KindMap, date, targets)
}
