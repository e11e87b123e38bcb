// Package pattern implements the multi-pattern search used by the terminology
// engine to find every known variant in a text in one pass.
//
// An [Index] is built once from an ordered list of [Pattern] values and is
// read-only afterwards, so a single Index may be shared by any number of
// goroutines. Matching is case-insensitive: the text is folded rune for rune
// (see [normalize.Fold]) and every [Hit] carries byte offsets into the
// original, unfolded text so callers can recover the original casing.
//
// Three backends are available and selected by name through [New]:
//
//   - "automaton" (default): an Aho–Corasick automaton over runes. Runs in
//     time proportional to text length plus the number of hits and reports
//     every occurrence, including overlapping ones.
//   - "regex": a single alternation compiled with [regexp]. Linear in the text
//     but reports only leftmost, non-overlapping matches.
//   - "naive": per-pattern scanning. Quadratic; kept as a reference oracle for
//     tests and tiny dictionaries.
package pattern

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/MrWong99/termfix/internal/normalize"
)

// Backend names accepted by [New].
const (
	BackendAutomaton = "automaton"
	BackendRegex     = "regex"
	BackendNaive     = "naive"
)

// ErrUnknownBackend is returned by [New] for an unrecognised backend name.
var ErrUnknownBackend = errors.New("pattern: unknown backend")

// Pattern is a searchable surface form and the text it should be replaced with.
type Pattern struct {
	// Text is the surface form to look for. Matching ignores case.
	Text string

	// Replacement is the canonical form associated with Text. It may equal
	// Text (an identity pattern that only claims its span).
	Replacement string
}

// Hit is a single occurrence of a pattern in a scanned text.
type Hit struct {
	// Start and End are byte offsets into the scanned text; End is exclusive.
	Start, End int

	// Pattern is the index of the matched pattern in the slice given to [New].
	Pattern int

	// Text is the matched substring exactly as it appears in the input.
	Text string

	// Replacement is the matched pattern's replacement.
	Replacement string

	// Order is the position of this hit in discovery order (0-based).
	Order int
}

// Runes returns the length of the matched pattern in runes.
func (h Hit) Runes() int {
	return utf8.RuneCountInString(h.Text)
}

// Index finds occurrences of a fixed set of patterns in text.
// Implementations must be safe for concurrent use.
type Index interface {
	// Scan returns every occurrence the backend can report, in discovery
	// order. Scan never fails; an empty text yields no hits.
	Scan(text string) []Hit

	// Len returns the number of distinct searchable patterns.
	Len() int
}

// New builds an [Index] for patterns using the named backend. An empty
// backend selects [BackendAutomaton]. Patterns whose folded text is empty are
// skipped; when two patterns fold to the same text the first one wins.
// Patterns and text are both matched in Unicode NFC, so decomposed input
// finds composed patterns.
func New(backend string, patterns []Pattern) (Index, error) {
	switch backend {
	case "", BackendAutomaton:
		return composing{newAutomaton(patterns)}, nil
	case BackendRegex:
		idx, err := newRegex(patterns)
		if err != nil {
			return nil, err
		}
		return composing{idx}, nil
	case BackendNaive:
		return composing{newNaive(patterns)}, nil
	default:
		return nil, fmt.Errorf("%w %q; valid values: automaton, regex, naive", ErrUnknownBackend, backend)
	}
}

// Backends lists the names accepted by [New].
func Backends() []string {
	return []string{BackendAutomaton, BackendRegex, BackendNaive}
}

// compiled is the folded form of a pattern shared by all backends.
type compiled struct {
	id     int
	folded []rune
}

// compile folds and de-duplicates patterns, preserving their original
// positions so that hits report indexes into the caller's slice.
func compile(patterns []Pattern) []compiled {
	seen := make(map[string]struct{}, len(patterns))
	out := make([]compiled, 0, len(patterns))
	for i, p := range patterns {
		folded := normalize.Fold(normalize.NFC(p.Text))
		if len(folded) == 0 {
			continue
		}
		key := string(folded)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, compiled{id: i, folded: folded})
	}
	return out
}

// runeOffsets returns the byte offset of every rune in text plus a final
// entry equal to len(text), so offsets[i] is where rune i starts.
func runeOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

// AtWordBoundary reports whether text[start:end] begins and ends on word
// boundaries: the rune before start and the rune at end are not word runes
// (see [normalize.IsWordRune]), or lie outside the text.
func AtWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if normalize.IsWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if normalize.IsWordRune(r) {
			return false
		}
	}
	return true
}
