// Package contextual rewrites ambiguous terms whose correct form depends on
// meaning rather than spelling.
//
// A [Disambiguator] holds an ordered list of [Rule] values. For every
// whole-word occurrence of a rule's term it inspects a symmetric window of
// surrounding text and applies the target of the first trigger whose pattern
// matches the window. Declaration order is the tie-break at both levels: the
// first matching trigger of a rule wins, and when the terms of two rules
// overlap in the text the earlier rule wins.
package contextual

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/MrWong99/termfix/internal/normalize"
	"github.com/MrWong99/termfix/internal/pattern"
)

// DefaultWindow is the number of runes inspected on each side of a term.
const DefaultWindow = 50

// Replacement is one context-driven rewrite.
type Replacement struct {
	// Start and End are byte offsets of the term in the scanned text.
	Start, End int

	// Original is the term as it appears in the text.
	Original string

	// Replacement is the cased target form.
	Replacement string

	// Rule is the index of the rule that produced the rewrite.
	Rule int
}

// Option configures a [Disambiguator].
type Option func(*Disambiguator)

// WithWindow sets the number of runes inspected on each side of a term.
// Non-positive values are ignored. Default: [DefaultWindow].
func WithWindow(runes int) Option {
	return func(d *Disambiguator) {
		if runes > 0 {
			d.window = runes
		}
	}
}

// Disambiguator applies context rules. It is read-only after [New] and safe
// for concurrent use.
type Disambiguator struct {
	rules  []compiledRule
	window int
}

type compiledRule struct {
	term     *regexp.Regexp
	triggers []compiledTrigger
}

type compiledTrigger struct {
	re     *regexp.Regexp
	target string
}

// New compiles rules in order. Every rule must pass [Rule.Validate].
func New(rules []Rule, opts ...Option) (*Disambiguator, error) {
	d := &Disambiguator{window: DefaultWindow}
	for _, o := range opts {
		o(d)
	}

	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("contextual: rule %d (%q): %w", i, r.Term, err)
		}
		cr := compiledRule{
			term: regexp.MustCompile("(?i)" + regexp.QuoteMeta(normalize.NFC(strings.TrimSpace(r.Term)))),
		}
		for _, tr := range r.Triggers {
			cr.triggers = append(cr.triggers, compiledTrigger{
				re:     regexp.MustCompile("(?i)" + tr.Pattern),
				target: strings.TrimSpace(tr.Target),
			})
		}
		d.rules = append(d.rules, cr)
	}
	return d, nil
}

// Len returns the number of rules.
func (d *Disambiguator) Len() int { return len(d.rules) }

// Window returns the configured window size in runes.
func (d *Disambiguator) Window() int { return d.window }

// Find returns the rewrites for text, sorted by position and pairwise
// non-overlapping. Occurrences whose cased target equals the original text are
// not reported.
func (d *Disambiguator) Find(text string) []Replacement {
	if text == "" || len(d.rules) == 0 {
		return nil
	}

	var found []Replacement
	for ri, r := range d.rules {
		for _, loc := range r.term.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if !pattern.AtWordBoundary(text, start, end) {
				continue
			}
			window := d.windowAround(text, start, end)
			for _, tr := range r.triggers {
				if !tr.re.MatchString(window) {
					continue
				}
				original := text[start:end]
				cased := Recase(original, tr.target)
				if cased != original {
					found = append(found, Replacement{
						Start:       start,
						End:         end,
						Original:    original,
						Replacement: cased,
						Rule:        ri,
					})
				}
				break
			}
		}
	}

	// Earlier rules claim their spans first.
	slices.SortStableFunc(found, func(a, b Replacement) int {
		if a.Rule != b.Rule {
			return a.Rule - b.Rule
		}
		return a.Start - b.Start
	})
	accepted := found[:0]
	for _, rep := range found {
		if slices.ContainsFunc(accepted, func(o Replacement) bool {
			return rep.Start < o.End && o.Start < rep.End
		}) {
			continue
		}
		accepted = append(accepted, rep)
	}
	slices.SortFunc(accepted, func(a, b Replacement) int { return a.Start - b.Start })
	return accepted
}

// windowAround returns text[start:end] extended by up to d.window runes on
// each side.
func (d *Disambiguator) windowAround(text string, start, end int) string {
	lo := start
	for n := 0; n < d.window && lo > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for n := 0; n < d.window && hi < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return text[lo:hi]
}

// Recase renders target in the case style of original. An all-uppercase
// original yields an all-uppercase target and a title-case original
// capitalises the target. Otherwise, and always for multi-word targets, the
// target is used as declared.
func Recase(original, target string) string {
	if normalize.IsMultiWord(target) {
		return target
	}
	switch {
	case normalize.IsUpper(original) && utf8.RuneCountInString(original) > 1:
		return strings.ToUpper(target)
	case normalize.IsTitle(original):
		return normalize.Capitalize(target)
	default:
		return target
	}
}
