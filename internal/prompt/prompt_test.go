package prompt

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestSummary_ReadsDateAndCounters(t *testing.T) {
	in := strings.NewReader("2020-03-25\n475\n1,656\n2,275\n6\n")
	var out bytes.Buffer
	s, err := New(in, &out).Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Date.Year() != 2020 || s.Date.Month() != time.March || s.Date.Day() != 25 {
		t.Fatalf("date %v", s.Date)
	}
	if s.Confirmed != 475 || s.Suspected != 1656 || s.Negative != 2275 || s.Deaths != 6 {
		t.Fatalf("counters %+v", s)
	}
	if !strings.Contains(out.String(), "Fecha (aaaa-mm-dd):") || !strings.Contains(out.String(), "Número de defunciones:") {
		t.Fatalf("questions missing:\n%s", out.String())
	}
}

func TestSummary_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad date", "25/03/2020\n"},
		{"empty date", "\n"},
		{"bad count", "2020-03-25\nmuchos\n"},
		{"negative", "2020-03-25\n-1\n"},
		{"truncated", "2020-03-25\n1\n2\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(strings.NewReader(tc.input), io.Discard).Summary(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSummary_LastLineWithoutNewline(t *testing.T) {
	s, err := New(strings.NewReader("2020-03-25\n1\n2\n3\n4"), io.Discard).Summary()
	if err != nil || s.Deaths != 4 {
		t.Fatalf("got %+v %v", s, err)
	}
}

func TestInt_EOF(t *testing.T) {
	_, err := New(strings.NewReader(""), io.Discard).Int("x")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestConfirm(t *testing.T) {
	for _, ans := range []string{"y", "Y", "yes", "s", "Si", "sí", " SÍ "} {
		if !New(strings.NewReader(ans+"\n"), io.Discard).Confirm("¿Guardar?") {
			t.Fatalf("%q should confirm", ans)
		}
	}
	for _, ans := range []string{"n", "no", "", "yep"} {
		if New(strings.NewReader(ans+"\n"), io.Discard).Confirm("¿Guardar?") {
			t.Fatalf("%q should not confirm", ans)
		}
	}
	if New(strings.NewReader(""), io.Discard).Confirm("¿Guardar?") {
		t.Fatalf("EOF should not confirm")
	}
}
