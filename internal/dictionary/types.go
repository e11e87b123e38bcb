// Package dictionary turns categorised terminology tables into the immutable
// lookup structures used by the correction engine.
//
// A [Table] is plain data: ordered categories of canonical terms, each with the
// known incorrect variants that should be rewritten to it, plus the targeted
// fixes and context rules of the dictionary. [Build] validates a Table and
// produces a [Dictionary] holding
//
//   - the correction map (lowercased variant → canonical term),
//   - the name-variant index (accent/case-normalised variant → canonical name)
//     restricted to categories of kind [KindName],
//   - the ordered pattern list fed to the pattern index.
//
// Tables are usually read from YAML with [LoadFile] or [LoadReader]; an
// embedded Brazilian Portuguese philosophy dictionary is available through
// [Default]. A Dictionary is read-only after Build and safe to share.
package dictionary

import "github.com/MrWong99/termfix/internal/contextual"

// Kind classifies a category.
type Kind string

const (
	// KindTerm is a category of concepts, expressions or common misspellings.
	KindTerm Kind = "term"

	// KindName is a category of proper names. Its entries also feed the
	// name-variant index used by fuzzy name matching.
	KindName Kind = "name"
)

// IsValid reports whether k is a recognised category kind. The empty kind is
// treated as [KindTerm].
func (k Kind) IsValid() bool {
	switch k {
	case "", KindTerm, KindName:
		return true
	}
	return false
}

// Table is the raw, categorised dictionary. Category order is significant:
// when two canonical terms claim the same variant, the first one wins.
//
// Example:
//
//	categories:
//	  - name: concepts
//	    entries:
//	      - canonical: causa
//	        variants: [cauza]
//	  - name: philosophers
//	    kind: name
//	    entries:
//	      - canonical: Tomás de Aquino
//	        variants: [Tomas de Aquino, Tomaz de Aquino]
//	targeted:
//	  - from: justanous
//	    to: justamente
//	context:
//	  - term: ser
//	    triggers:
//	      - pattern: ontolog
//	        target: Ser
type Table struct {
	Categories []Category        `yaml:"categories"`
	Targeted   []Fix             `yaml:"targeted"`
	Context    []contextual.Rule `yaml:"context"`
}

// Category groups canonical terms of one kind.
type Category struct {
	// Name identifies the category in logs and statistics
	// (e.g. "philosophers_ancient_medieval").
	Name string `yaml:"name"`

	// Kind selects term or proper-name handling. Default: term.
	Kind Kind `yaml:"kind"`

	// Entries are the canonical terms of the category in priority order.
	Entries []Entry `yaml:"entries"`
}

// Entry is a canonical term with its known incorrect variants.
type Entry struct {
	// Canonical is the correct surface form.
	Canonical string `yaml:"canonical"`

	// Variants are known incorrect spellings rewritten to Canonical.
	Variants []string `yaml:"variants"`
}

// Fix is a targeted whole-word correction applied before any dictionary
// lookup, for recurring transcription or generation artefacts such as
// hallucinated word endings.
type Fix struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}
