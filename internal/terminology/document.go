package terminology

import (
	"slices"
	"strings"

	"github.com/MrWong99/termfix/pkg/types"
)

// edit is a proposed rewrite of text[start:end] in the current text.
type edit struct {
	start, end  int
	replacement string
	// runes and order break ties between overlapping candidates.
	runes int
	order int
}

// claim is a span of the current text that a stage has taken. Claims with
// equal original and replacement mark text that was already correct.
type claim struct {
	start, end  int
	origStart   int
	original    string
	replacement string
	stage       types.Stage
}

// document is the text being corrected together with the spans claimed so
// far. Claims are kept sorted and never overlap, so a position in the
// current text maps back to the input by undoing the length changes of the
// claims before it.
type document struct {
	text   string
	claims []claim
}

func newDocument(text string) *document {
	return &document{text: text}
}

// claimed reports whether [start,end) overlaps a claimed span.
func (d *document) claimed(start, end int) bool {
	for _, c := range d.claims {
		if c.start >= end {
			return false
		}
		if start < c.end {
			return true
		}
	}
	return false
}

// toOriginal maps an offset in the current text that lies outside every
// claim to the corresponding offset in the input text.
func (d *document) toOriginal(pos int) int {
	for _, c := range d.claims {
		if c.end > pos {
			break
		}
		pos -= len(c.replacement) - len(c.original)
	}
	return pos
}

// resolve picks a non-overlapping subset of candidates outside claimed
// spans. Candidates are considered by start position, then longest first,
// then discovery order; each is taken when it does not overlap one already
// taken.
func (d *document) resolve(candidates []edit) []edit {
	if len(candidates) == 0 {
		return nil
	}
	slices.SortStableFunc(candidates, func(a, b edit) int {
		if a.start != b.start {
			return a.start - b.start
		}
		if a.runes != b.runes {
			return b.runes - a.runes
		}
		return a.order - b.order
	})
	accepted := candidates[:0]
	lastEnd := 0
	for _, c := range candidates {
		if c.start < lastEnd || d.claimed(c.start, c.end) {
			continue
		}
		accepted = append(accepted, c)
		lastEnd = c.end
	}
	return accepted
}

// apply rewrites the text with edits, which must come from resolve, and
// records them as claims of stage.
func (d *document) apply(stage types.Stage, edits []edit) {
	if len(edits) == 0 {
		return
	}

	type pending struct {
		claim
		fresh bool
	}
	all := make([]pending, 0, len(d.claims)+len(edits))
	for _, c := range d.claims {
		all = append(all, pending{claim: c})
	}

	var sb strings.Builder
	sb.Grow(len(d.text))
	prev := 0
	for _, e := range edits {
		sb.WriteString(d.text[prev:e.start])
		sb.WriteString(e.replacement)
		prev = e.end
		all = append(all, pending{
			claim: claim{
				start:       e.start,
				end:         e.end,
				origStart:   d.toOriginal(e.start),
				original:    d.text[e.start:e.end],
				replacement: e.replacement,
				stage:       stage,
			},
			fresh: true,
		})
	}
	sb.WriteString(d.text[prev:])
	d.text = sb.String()

	slices.SortFunc(all, func(a, b pending) int { return a.start - b.start })
	shift := 0
	d.claims = d.claims[:0]
	for _, p := range all {
		c := p.claim
		c.start += shift
		if p.fresh {
			shift += len(c.replacement) - len(c.original)
		}
		c.end = c.start + len(c.replacement)
		d.claims = append(d.claims, c)
	}
}

// corrections returns the records of every claim that changed the text, in
// input order.
func (d *document) corrections() []types.Correction {
	var out []types.Correction
	for _, c := range d.claims {
		if c.original == c.replacement {
			continue
		}
		out = append(out, types.Correction{
			Original:  c.original,
			Corrected: c.replacement,
			Position:  c.origStart,
			Stage:     c.stage,
		})
	}
	return out
}
