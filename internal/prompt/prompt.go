// Package prompt collects bulletin counters from an operator.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/hyperifyio/covidmx/internal/bulletin"
	"github.com/hyperifyio/covidmx/internal/cases"
)

// ErrNotInteractive is returned by callers that refuse to prompt without a
// terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Prompter asks questions on Out and reads one answer per line from In.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New returns a Prompter reading from in and writing questions to out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprintln(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Date asks for the bulletin date in YYYY-MM-DD form.
func (p *Prompter) Date() (cases.Date, error) {
	s, err := p.ask("Fecha (aaaa-mm-dd):")
	if err != nil {
		return cases.Date{}, err
	}
	d, err := cases.ParseDate(s)
	if err != nil {
		return cases.Date{}, fmt.Errorf("fecha %q: %w", s, err)
	}
	if d.IsZero() {
		return cases.Date{}, errors.New("fecha vacía")
	}
	return d, nil
}

// Int asks for a non-negative count. Thousands separators are accepted.
func (p *Prompter) Int(label string) (int, error) {
	s, err := p.ask(fmt.Sprintf("Número de %s:", label))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.NewReplacer(",", "", " ", "").Replace(s))
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", label, s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s: negative count %d", label, n)
	}
	return n, nil
}

// Summary asks for the date and the four counters in bulletin order.
func (p *Prompter) Summary() (bulletin.Summary, error) {
	var s bulletin.Summary
	d, err := p.Date()
	if err != nil {
		return s, err
	}
	s.Date = d
	fields := []struct {
		label string
		dst   *int
	}{
		{"casos confirmados", &s.Confirmed},
		{"casos sospechosos", &s.Suspected},
		{"casos negativos", &s.Negative},
		{"defunciones", &s.Deaths},
	}
	for _, f := range fields {
		n, err := p.Int(f.label)
		if err != nil {
			return s, err
		}
		*f.dst = n
	}
	return s, nil
}

// Confirm asks a yes/no question. Anything but an affirmative answer,
// including a read failure, is a no.
func (p *Prompter) Confirm(question string) bool {
	s, err := p.ask(question + " (y/n)")
	if err != nil {
		return false
	}
	return Affirmative(s)
}

// Affirmative reports whether s is a yes in English or Spanish.
func Affirmative(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}
