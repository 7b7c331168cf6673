package extract

import (
	"fmt"
	"strings"

	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/text"
)

// word is a positioned run of text. Y is the baseline in PDF space, growing
// upwards.
type word struct {
	Text          string
	X, Y          float64
	Width, Height float64
	FontName      string
	FontSize      float64
}

func (w word) right() float64   { return w.X + w.Width }
func (w word) centerX() float64 { return w.X + w.Width/2 }

type pageText struct {
	Number        int
	Width, Height float64
	Words         []word
}

// readPages opens the document, resolves the page selector and collects the
// text fragments of every selected page. The reader is closed before return.
func readPages(path string, sel string) ([]pageText, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	numbers, err := ParsePages(sel, count)
	if err != nil {
		return nil, err
	}
	out := make([]pageText, 0, len(numbers))
	for _, n := range numbers {
		page, err := r.GetPage(n - 1)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		frags, err := r.ExtractTextFragments(page)
		if err != nil {
			return nil, fmt.Errorf("page %d text: %w", n, err)
		}
		pt := pageText{Number: n, Words: wordsFromFragments(frags)}
		if w, err := page.Width(); err == nil {
			pt.Width = w
		}
		if h, err := page.Height(); err == nil {
			pt.Height = h
		}
		out = append(out, pt)
	}
	return out, nil
}

func wordsFromFragments(frags []text.TextFragment) []word {
	words := make([]word, 0, len(frags))
	for _, f := range frags {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		words = append(words, word{
			Text:     f.Text,
			X:        f.X,
			Y:        f.Y,
			Width:    f.Width,
			Height:   f.Height,
			FontName: f.FontName,
			FontSize: f.FontSize,
		})
	}
	return words
}
