package pattern

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// composing scans the NFC form of the text, the form patterns are compiled
// in, and reports hits with offsets into the text as given.
type composing struct {
	Index
}

// Scan implements [Index]. Text already in NFC is scanned directly.
func (x composing) Scan(text string) []Hit {
	if norm.NFC.IsNormalString(text) {
		return x.Index.Scan(text)
	}
	c := compose(text)
	hits := x.Index.Scan(c.text)
	for i := range hits {
		h := &hits[i]
		h.Start, h.End = c.inputStart(h.Start), c.inputEnd(h.End)
		h.Text = text[h.Start:h.End]
	}
	return hits
}

// composed is a text in NFC together with its normalisation segment
// boundaries: out[i] in the composed text corresponds to in[i] in the input.
type composed struct {
	text    string
	out, in []int
}

func compose(text string) composed {
	var (
		it norm.Iter
		sb strings.Builder
		c  composed
	)
	sb.Grow(len(text))
	it.InitString(norm.NFC, text)
	for !it.Done() {
		c.out = append(c.out, sb.Len())
		c.in = append(c.in, it.Pos())
		sb.Write(it.Next())
	}
	c.out = append(c.out, sb.Len())
	c.in = append(c.in, len(text))
	c.text = sb.String()
	return c
}

// inputStart maps a composed offset to the input, rounding down to the start
// of its segment.
func (c composed) inputStart(off int) int {
	i, found := slices.BinarySearch(c.out, off)
	if !found {
		i--
	}
	return c.in[i]
}

// inputEnd maps a composed offset to the input, rounding up to the end of
// its segment.
func (c composed) inputEnd(off int) int {
	i, _ := slices.BinarySearch(c.out, off)
	return c.in[i]
}
