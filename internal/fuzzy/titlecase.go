package fuzzy

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TitleCase renders a proper name in Portuguese title case: words found in
// particles are lowercased and every other word starts with an uppercase
// letter. The rest of each word keeps its casing, so "McDonald" and
// "Jean-Paul" survive. A nil particles set selects [DefaultParticles].
func TitleCase(name string, particles map[string]struct{}) string {
	if particles == nil {
		particles = particleSet(DefaultParticles)
	}
	words := strings.Fields(name)
	for i, w := range words {
		lower := strings.ToLower(w)
		if _, ok := particles[lower]; ok && i > 0 {
			words[i] = lower
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
