package dictionary

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyCanonical reports an entry or targeted fix without a target term.
	ErrEmptyCanonical = errors.New("canonical term must not be empty")

	// ErrEmptyVariant reports an empty or whitespace-only variant.
	ErrEmptyVariant = errors.New("variant must not be empty")
)

// Validate checks t for malformed data. A malformed dictionary is a
// configuration error, so every problem found is reported in one joined error.
//
// Rules:
//   - Every category has a name and a recognised [Kind].
//   - Every entry has a non-blank canonical term ([ErrEmptyCanonical]).
//   - Every variant and every targeted fix source is non-blank ([ErrEmptyVariant]).
//   - Every context rule passes [contextual.Rule.Validate].
func Validate(t Table) error {
	var errs []error

	for ci, cat := range t.Categories {
		prefix := fmt.Sprintf("categories[%d]", ci)
		if strings.TrimSpace(cat.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			prefix = fmt.Sprintf("%s (%s)", prefix, cat.Name)
		}
		if !cat.Kind.IsValid() {
			errs = append(errs, fmt.Errorf("%s.kind %q is invalid; valid values: term, name", prefix, cat.Kind))
		}
		for ei, e := range cat.Entries {
			if strings.TrimSpace(e.Canonical) == "" {
				errs = append(errs, fmt.Errorf("%s.entries[%d]: %w", prefix, ei, ErrEmptyCanonical))
			}
			for vi, v := range e.Variants {
				if strings.TrimSpace(v) == "" {
					errs = append(errs, fmt.Errorf("%s.entries[%d].variants[%d]: %w", prefix, ei, vi, ErrEmptyVariant))
				}
			}
		}
	}

	for i, f := range t.Targeted {
		if strings.TrimSpace(f.From) == "" {
			errs = append(errs, fmt.Errorf("targeted[%d].from: %w", i, ErrEmptyVariant))
		}
		if strings.TrimSpace(f.To) == "" {
			errs = append(errs, fmt.Errorf("targeted[%d].to: %w", i, ErrEmptyCanonical))
		}
	}

	for i, r := range t.Context {
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("context[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}
