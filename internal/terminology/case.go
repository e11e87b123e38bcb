package terminology

import (
	"strings"
	"unicode/utf8"

	"github.com/MrWong99/termfix/internal/normalize"
)

// matchCase renders canonical in the casing of matched. A single-word
// canonical takes the case style of the match: all-uppercase, title case,
// or lowercase otherwise, so an already correct lowercase word is left as
// is. Multi-word canonicals are proper names or fixed expressions and keep
// their declared casing.
func matchCase(matched, canonical string) string {
	if normalize.IsMultiWord(canonical) {
		return canonical
	}
	switch {
	case normalize.IsUpper(matched) && utf8.RuneCountInString(matched) > 1:
		return strings.ToUpper(canonical)
	case normalize.IsTitle(matched):
		return normalize.Capitalize(canonical)
	default:
		return strings.ToLower(canonical)
	}
}
