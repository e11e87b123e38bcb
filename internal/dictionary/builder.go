package dictionary

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/MrWong99/termfix/internal/contextual"
	"github.com/MrWong99/termfix/internal/normalize"
	"github.com/MrWong99/termfix/internal/pattern"
)

// Dictionary is the immutable result of [Build]. All methods are safe for
// concurrent use.
type Dictionary struct {
	corrections map[string]string
	names       map[string]string
	patterns    []pattern.Pattern
	targeted    []pattern.Pattern
	context     []contextual.Rule
	stats       []CategoryStats
	fingerprint uint64
}

// CategoryStats summarises what one category contributed to a [Dictionary].
type CategoryStats struct {
	Name    string
	Kind    Kind
	Entries int
	// Variants is the number of correction-map keys this category owns.
	Variants int
	// Dropped counts variants discarded because an earlier entry already
	// claimed them or because they spell another entry's canonical term.
	Dropped int
}

// Build validates t and compiles it into a [Dictionary].
//
// Variants are keyed by their rune-wise lowercase form. When the same key
// appears more than once the first occurrence in category order wins and the
// later one is dropped with a debug log. A variant that spells the canonical
// term of a different entry is dropped as well, so canonical forms are never
// rewritten and a corrected text stays stable under re-correction.
func Build(t Table) (*Dictionary, error) {
	if err := Validate(t); err != nil {
		return nil, fmt.Errorf("dictionary: build: %w", err)
	}

	d := &Dictionary{
		corrections: make(map[string]string),
		names:       make(map[string]string),
		stats:       make([]CategoryStats, 0, len(t.Categories)),
	}

	owners := canonicalOwners(t)

	for _, cat := range t.Categories {
		st := CategoryStats{Name: cat.Name, Kind: cat.Kind}
		if st.Kind == "" {
			st.Kind = KindTerm
		}
		for _, e := range cat.Entries {
			st.Entries++
			canonical := clean(e.Canonical)
			for _, raw := range e.Variants {
				variant := clean(raw)
				key := foldKey(variant)
				if owner, ok := owners[key]; ok && owner != canonical {
					slog.Debug("dictionary: variant spells another canonical term, dropped",
						"category", cat.Name, "variant", variant, "canonical", canonical, "owner", owner)
					st.Dropped++
					continue
				}
				if prev, ok := d.corrections[key]; ok {
					if prev != canonical {
						slog.Debug("dictionary: duplicate variant dropped",
							"category", cat.Name, "variant", variant, "canonical", canonical, "kept", prev)
						st.Dropped++
					}
					continue
				}
				d.corrections[key] = canonical
				d.patterns = append(d.patterns, pattern.Pattern{Text: variant, Replacement: canonical})
				st.Variants++
			}
			if st.Kind == KindName {
				d.addName(canonical, canonical)
				for _, raw := range e.Variants {
					d.addName(clean(raw), canonical)
				}
			}
		}
		d.stats = append(d.stats, st)
	}

	// Canonical forms claim their own spans so that shorter variants cannot
	// match inside an already correct term.
	for _, cat := range t.Categories {
		for _, e := range cat.Entries {
			canonical := clean(e.Canonical)
			if _, ok := d.corrections[foldKey(canonical)]; ok {
				continue
			}
			d.patterns = append(d.patterns, pattern.Pattern{Text: canonical, Replacement: canonical})
		}
	}

	for _, f := range t.Targeted {
		d.targeted = append(d.targeted, pattern.Pattern{Text: clean(f.From), Replacement: clean(f.To)})
	}
	d.context = slices.Clone(t.Context)
	d.fingerprint = fingerprint(t)

	slog.Debug("dictionary: built",
		"corrections", len(d.corrections),
		"names", len(d.names),
		"patterns", len(d.patterns),
		"targeted", len(d.targeted),
		"context_rules", len(d.context),
	)
	return d, nil
}

// canonicalOwners maps the folded form of every canonical term to the first
// entry that declares it.
func canonicalOwners(t Table) map[string]string {
	owners := make(map[string]string)
	for _, cat := range t.Categories {
		for _, e := range cat.Entries {
			canonical := clean(e.Canonical)
			key := foldKey(canonical)
			if _, ok := owners[key]; !ok {
				owners[key] = canonical
			}
		}
	}
	return owners
}

func (d *Dictionary) addName(variant, canonical string) {
	key := normalize.Key(variant)
	if key == "" {
		return
	}
	if _, ok := d.names[key]; !ok {
		d.names[key] = canonical
	}
}

// clean trims s and brings it to NFC.
func clean(s string) string {
	return normalize.NFC(strings.TrimSpace(s))
}

// foldKey is the correction-map key of s.
func foldKey(s string) string {
	return string(normalize.Fold(s))
}

// fingerprint hashes the table contents in declaration order.
func fingerprint(t Table) uint64 {
	h := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.WriteString(p)
			_, _ = h.Write([]byte{0x1f})
		}
		_, _ = h.Write([]byte{0x1e})
	}
	for _, cat := range t.Categories {
		write("category", cat.Name, string(cat.Kind))
		for _, e := range cat.Entries {
			write(append([]string{"entry", e.Canonical}, e.Variants...)...)
		}
	}
	for _, f := range t.Targeted {
		write("fix", f.From, f.To)
	}
	for _, r := range t.Context {
		write("rule", r.Term)
		for _, tr := range r.Triggers {
			write("trigger", tr.Pattern, tr.Target)
		}
	}
	return h.Sum64()
}

// Lookup returns the canonical term for variant, matching case-insensitively.
func (d *Dictionary) Lookup(variant string) (string, bool) {
	c, ok := d.corrections[foldKey(clean(variant))]
	return c, ok
}

// Name returns the canonical proper name for s, matching case- and
// accent-insensitively against the name-variant index.
func (d *Dictionary) Name(s string) (string, bool) {
	c, ok := d.names[normalize.Key(s)]
	return c, ok
}

// NameIndex returns a copy of the name-variant index
// (normalised variant → canonical name).
func (d *Dictionary) NameIndex() map[string]string {
	out := make(map[string]string, len(d.names))
	for k, v := range d.names {
		out[k] = v
	}
	return out
}

// Patterns returns the ordered pattern list: every retained variant in
// dictionary order followed by identity patterns for canonical terms.
func (d *Dictionary) Patterns() []pattern.Pattern { return slices.Clone(d.patterns) }

// Targeted returns the targeted fixes as patterns, in declaration order.
func (d *Dictionary) Targeted() []pattern.Pattern { return slices.Clone(d.targeted) }

// ContextRules returns the context rules in declaration order.
func (d *Dictionary) ContextRules() []contextual.Rule { return slices.Clone(d.context) }

// Len returns the number of keys in the correction map.
func (d *Dictionary) Len() int { return len(d.corrections) }

// Stats returns per-category build statistics in category order.
func (d *Dictionary) Stats() []CategoryStats { return slices.Clone(d.stats) }

// Fingerprint identifies the dictionary contents. Two tables with the same
// categories, fixes and rules in the same order share a fingerprint.
func (d *Dictionary) Fingerprint() string {
	return strconv.FormatUint(d.fingerprint, 16)
}
