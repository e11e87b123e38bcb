// Package fuzzy recovers misspellings of known proper names that are not
// listed verbatim in the dictionary.
//
// The [Matcher] proceeds in three steps:
//
//  1. Candidate extraction: runs of capitalised words, optionally joined by
//     lowercase name particles ("de", "da", "do", "dos", "das", "e"), at most
//     six words long and containing at least two capitalised words.
//
//  2. Resolution: the accent- and case-insensitive key of each candidate is
//     handed to a [NameResolver]. The default [BruteForce] resolver tries an
//     exact lookup in the name-variant index first and otherwise scores the
//     key against every known variant, accepting the best score only when it
//     reaches the threshold (default 0.90).
//
//  3. Safety and re-casing: a candidate that already spells the canonical
//     name is left alone, as is one whose replacement would end in the word
//     that follows it in the text. Accepted names are rendered with
//     [TitleCase].
//
// A Matcher is read-only after construction and safe for concurrent use.
package fuzzy

import (
	"github.com/MrWong99/termfix/internal/normalize"
)

const (
	// DefaultThreshold is the minimum similarity for a fuzzy name match.
	DefaultThreshold = 0.90

	// DefaultMaxTokens caps the length of a candidate name in words.
	DefaultMaxTokens = 6
)

// DefaultParticles are the lowercase words allowed inside a Portuguese name.
var DefaultParticles = []string{"de", "da", "do", "dos", "das", "e"}

// Replacement is one fuzzy name correction.
type Replacement struct {
	// Start and End are byte offsets of the candidate in the scanned text.
	Start, End int

	// Original is the candidate as it appears in the text.
	Original string

	// Replacement is the title-cased canonical name.
	Replacement string

	// Score is the resolver's similarity score (1 for exact index hits).
	Score float64
}

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithThreshold sets the minimum similarity accepted by the default
// resolver. Default: [DefaultThreshold]. Ignored when [WithResolver] is used.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// WithScorer sets the similarity function used by the default resolver.
// Default: [LCSRatio]. Ignored when [WithResolver] is used.
func WithScorer(s Scorer) Option {
	return func(m *Matcher) {
		m.scorer = s
	}
}

// WithResolver replaces the default brute-force resolver, for example with an
// indexed nearest-neighbour structure.
func WithResolver(r NameResolver) Option {
	return func(m *Matcher) {
		m.resolver = r
	}
}

// WithMaxTokens caps candidate names at n words. Values below 2 are ignored.
// Default: [DefaultMaxTokens].
func WithMaxTokens(n int) Option {
	return func(m *Matcher) {
		if n >= 2 {
			m.maxTokens = n
		}
	}
}

// WithParticles replaces the set of lowercase words allowed inside a name.
// Default: [DefaultParticles].
func WithParticles(particles ...string) Option {
	return func(m *Matcher) {
		m.particles = particleSet(particles)
	}
}

// Matcher finds near-miss spellings of known proper names.
type Matcher struct {
	resolver  NameResolver
	scorer    Scorer
	threshold float64
	maxTokens int
	particles map[string]struct{}
}

// New returns a [Matcher] over index, which maps normalised name variants
// (see [normalize.Key]) to canonical names.
func New(index map[string]string, opts ...Option) *Matcher {
	m := &Matcher{
		scorer:    LCSRatio,
		threshold: DefaultThreshold,
		maxTokens: DefaultMaxTokens,
		particles: particleSet(DefaultParticles),
	}
	for _, o := range opts {
		o(m)
	}
	if m.resolver == nil {
		m.resolver = NewBruteForce(index, m.threshold, m.scorer)
	}
	return m
}

// Find returns the fuzzy name corrections for text in position order. The
// returned spans never overlap.
func (m *Matcher) Find(text string) []Replacement {
	toks := tokenize(text)
	if len(toks) < 2 {
		return nil
	}

	var out []Replacement
	for _, run := range m.candidates(text, toks) {
		if rep, ok := m.resolveRun(text, toks, run); ok {
			out = append(out, rep)
		}
	}
	return out
}

// resolveRun tries the whole run first and then its shorter suffixes, so a
// capitalised sentence opener in front of a name does not hide the name.
func (m *Matcher) resolveRun(text string, toks []token, run span) (Replacement, bool) {
	for s := run.from; s < run.to; s++ {
		if m.isParticle(toks[s]) {
			continue
		}
		if m.substantive(toks[s:run.to]) < 2 {
			break
		}
		start, end := toks[s].start, toks[run.to-1].end
		original := text[start:end]
		key := normalize.Key(original)

		canonical, score, ok := m.resolver.Resolve(key)
		if !ok {
			continue
		}
		if normalize.Key(canonical) == key {
			// Already correct; a suffix of a correct name is not worth a retry.
			return Replacement{}, false
		}
		if next, ok := nextWord(text, toks, run.to); ok && normalize.Key(lastWord(canonical)) == normalize.Key(next) {
			continue
		}
		replacement := TitleCase(canonical, m.particles)
		if replacement == original {
			return Replacement{}, false
		}
		return Replacement{
			Start:       start,
			End:         end,
			Original:    original,
			Replacement: replacement,
			Score:       score,
		}, true
	}
	return Replacement{}, false
}

func particleSet(particles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(particles))
	for _, p := range particles {
		set[p] = struct{}{}
	}
	return set
}
