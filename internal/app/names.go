package app

import (
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/hyperifyio/covidmx/internal/cases"
)

// bulletinDateRe matches the YYYY.MM.DD stamp of bulletin file names; dots,
// dashes, underscores or nothing may separate the parts.
var bulletinDateRe = regexp.MustCompile(`(20\d{2})[._-]?(0[1-9]|1[0-2])[._-]?(0[1-9]|[12]\d|3[01])`)

// DateFromFileName returns the date stamped in a bulletin file name such as
// Tabla_casos_positivos_COVID-19_2020.03.25.pdf.
func DateFromFileName(path string) (cases.Date, bool) {
	m := bulletinDateRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return cases.Date{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	date := cases.NewDate(y, time.Month(mo), d)
	if date.Day() != d {
		return cases.Date{}, false
	}
	return date, true
}
