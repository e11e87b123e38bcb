package pattern

import "github.com/MrWong99/termfix/internal/normalize"

// naiveIndex compares every pattern at every position of the text.
type naiveIndex struct {
	patterns []Pattern
	compiled []compiled
}

func newNaive(patterns []Pattern) *naiveIndex {
	return &naiveIndex{patterns: patterns, compiled: compile(patterns)}
}

// Scan implements [Index]. Hits are grouped by pattern in dictionary order.
func (x *naiveIndex) Scan(text string) []Hit {
	if text == "" {
		return nil
	}
	folded := normalize.Fold(text)
	offsets := runeOffsets(text)

	var hits []Hit
	for _, c := range x.compiled {
		n := len(c.folded)
		for i := 0; i+n <= len(folded); i++ {
			if !equalRunes(folded[i:i+n], c.folded) {
				continue
			}
			start, end := offsets[i], offsets[i+n]
			hits = append(hits, Hit{
				Start:       start,
				End:         end,
				Pattern:     c.id,
				Text:        text[start:end],
				Replacement: x.patterns[c.id].Replacement,
				Order:       len(hits),
			})
		}
	}
	return hits
}

// Len implements [Index].
func (x *naiveIndex) Len() int { return len(x.compiled) }

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
