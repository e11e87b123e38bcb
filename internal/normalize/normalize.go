// Package normalize provides the comparison keys shared by every stage of the
// terminology engine.
//
// [Key] folds case and strips diacritics so that "Tomás", "TOMAS" and "tomas"
// compare equal. [Fold] lowercases rune for rune without changing the rune count,
// which lets scanners map positions in the folded copy straight back to the
// original text. The case-shape helpers ([IsUpper], [IsTitle]) drive the
// case-preserving rewrite.
//
// All functions are pure and total over any UTF-8 input.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key returns the accent- and case-insensitive comparison key for s: the
// lowercased, canonically decomposed string with all combining marks removed.
// Leading and trailing whitespace is trimmed. Key("") returns "".
func Key(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		// transform only fails on invalid state; fall back to a manual strip.
		return stripMarks(strings.ToLower(s))
	}
	return out
}

// stripMarks is the slow path of [Key] used when the transformer reports an
// error. It decomposes rune by rune and drops nonspacing marks.
func stripMarks(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Fold lowercases s one rune at a time. Unlike [strings.ToLower] the result
// always has exactly as many runes as s, so rune offsets are shared between s
// and Fold(s). Invalid UTF-8 bytes are folded to [utf8.RuneError].
func Fold(s string) []rune {
	out := make([]rune, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return out
}

// NFC returns s in Unicode normalisation form C. Dictionary patterns are
// stored in NFC so that they match NFC input text.
func NFC(s string) string {
	return norm.NFC.String(s)
}

// IsMultiWord reports whether s holds more than one token, separated by any
// Unicode space (tab and no-break space included).
func IsMultiWord(s string) bool {
	return strings.ContainsFunc(strings.TrimFunc(s, unicode.IsSpace), unicode.IsSpace)
}

// IsUpper reports whether s contains at least one letter and no lowercase
// letters ("CAUZA", "SÓCRATES").
func IsUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		hasLetter = true
		if unicode.IsLower(r) {
			return false
		}
	}
	return hasLetter
}

// IsTitle reports whether the first letter of s is uppercase and every
// following letter is lowercase ("Cauza"). A single uppercase letter counts as
// title case.
func IsTitle(s string) bool {
	first := true
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if first {
			if !unicode.IsUpper(r) {
				return false
			}
			first = false
			continue
		}
		if unicode.IsUpper(r) {
			return false
		}
	}
	return !first
}

// Capitalize uppercases the first letter of s and lowercases the rest.
func Capitalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	first := true
	for _, r := range s {
		if first && unicode.IsLetter(r) {
			sb.WriteRune(unicode.ToUpper(r))
			first = false
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// IsWordRune reports whether r continues a word for boundary checks: letters,
// digits, combining marks and '_'. Hyphens separate words, so "ser-aí" has an
// inner boundary.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || r == '_'
}
