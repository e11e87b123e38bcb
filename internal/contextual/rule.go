package contextual

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Rule declares one ambiguous term and the ordered triggers that decide its
// surface form. Rules and triggers are evaluated in declaration order; the
// first trigger whose pattern matches the context window wins.
type Rule struct {
	// Term is the ambiguous word or phrase as it appears in running text
	// (matched case-insensitively on word boundaries).
	Term string `yaml:"term"`

	// Triggers are tried in order against the window around each occurrence.
	Triggers []Trigger `yaml:"triggers"`
}

// Trigger maps a context pattern to the form Term takes when it matches.
type Trigger struct {
	// Pattern is a regular expression (RE2 syntax) matched case-insensitively
	// against the context window.
	Pattern string `yaml:"pattern"`

	// Target is the form the term is rewritten to when Pattern matches.
	Target string `yaml:"target"`
}

// Validate checks that r has a term and that every trigger has a compilable
// pattern and a non-empty target.
func (r Rule) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Term) == "" {
		errs = append(errs, errors.New("term must not be empty"))
	}
	if len(r.Triggers) == 0 {
		errs = append(errs, errors.New("at least one trigger is required"))
	}
	for i, tr := range r.Triggers {
		if strings.TrimSpace(tr.Pattern) == "" {
			errs = append(errs, fmt.Errorf("triggers[%d]: pattern must not be empty", i))
		} else if _, err := regexp.Compile("(?i)" + tr.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("triggers[%d]: %w", i, err))
		}
		if strings.TrimSpace(tr.Target) == "" {
			errs = append(errs, fmt.Errorf("triggers[%d]: target must not be empty", i))
		}
	}
	return errors.Join(errs...)
}
