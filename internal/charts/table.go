package charts

import (
	"html/template"
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hyperifyio/covidmx/internal/bulletin"
)

var counterColors = map[string]string{
	bulletin.StatusConfirmed: "#BF0002",
	bulletin.StatusSuspected: "#7F7F7F",
	bulletin.StatusNegative:  "#2F5596",
	bulletin.StatusDeaths:    "#000000",
}

var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; background: transparent; font-family: sans-serif; }
table { width: 100%; table-layout: fixed; border-collapse: collapse; }
th { color: #34405B; font-size: 18px; font-weight: normal; }
td { font-size: 30px; height: 40px; }
th, td { text-align: center; }
</style>
</head>
<body>
<table data-fecha="{{.Date}}">
<tr>{{range .Cells}}<th>{{.Label}}</th>{{end}}</tr>
<tr>{{range .Cells}}<td style="color: {{.Color}}">{{.Value}}</td>{{end}}</tr>
</table>
</body>
</html>
`))

type summaryCell struct {
	Label string
	Color template.CSS
	Value string
}

type summaryView struct {
	Title string
	Date  string
	Cells []summaryCell
}

// groupThousands renders n with comma separators.
func groupThousands(n int) string {
	return message.NewPrinter(language.English).Sprint(n)
}

// SummaryTable renders the four bulletin counters as a one row table.
type SummaryTable struct {
	Summary bulletin.Summary
}

func (t SummaryTable) Render(w io.Writer) error {
	title := cases.Title(language.Spanish)
	view := summaryView{Title: "covid19: comunicado técnico " + t.Summary.Date.String(), Date: t.Summary.Date.String()}
	for _, c := range t.Summary.Counters() {
		view.Cells = append(view.Cells, summaryCell{
			Label: title.String(c.Status),
			Color: template.CSS(counterColors[c.Status]),
			Value: groupThousands(c.Value),
		})
	}
	return summaryTemplate.Execute(w, view)
}

// WriteSummaryTable writes the counters table to targets.
func WriteSummaryTable(s bulletin.Summary, targets Targets) ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return write(SummaryTable{Summary: s}, KindSummaryTable, s.Date, targets)
}
