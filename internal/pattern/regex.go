package pattern

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/MrWong99/termfix/internal/normalize"
)

// regexIndex is the [regexp]-backed [Index]. The alternation lists longer
// patterns first so that leftmost-first matching prefers the longest variant
// starting at a position.
type regexIndex struct {
	patterns []Pattern
	re       *regexp.Regexp
	byFolded map[string]int
	n        int
}

func newRegex(patterns []Pattern) (*regexIndex, error) {
	cs := compile(patterns)
	idx := &regexIndex{
		patterns: patterns,
		byFolded: make(map[string]int, len(cs)),
		n:        len(cs),
	}
	if len(cs) == 0 {
		return idx, nil
	}
	sort.SliceStable(cs, func(i, j int) bool { return len(cs[i].folded) > len(cs[j].folded) })

	alts := make([]string, 0, len(cs))
	for _, c := range cs {
		key := string(c.folded)
		idx.byFolded[key] = c.id
		alts = append(alts, regexp.QuoteMeta(key))
	}
	re, err := regexp.Compile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("pattern: compile regex backend: %w", err)
	}
	idx.re = re
	return idx, nil
}

// Scan implements [Index]. Only leftmost, non-overlapping matches are
// reported.
func (x *regexIndex) Scan(text string) []Hit {
	if x.re == nil || text == "" {
		return nil
	}
	var hits []Hit
	for _, loc := range x.re.FindAllStringIndex(text, -1) {
		matched := text[loc[0]:loc[1]]
		id, ok := x.byFolded[string(normalize.Fold(matched))]
		if !ok {
			// (?i) folds a few runes (e.g. the Kelvin sign) that Fold keeps.
			continue
		}
		hits = append(hits, Hit{
			Start:       loc[0],
			End:         loc[1],
			Pattern:     id,
			Text:        matched,
			Replacement: x.patterns[id].Replacement,
			Order:       len(hits),
		})
	}
	return hits
}

// Len implements [Index].
func (x *regexIndex) Len() int { return x.n }
