package fuzzy

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrWong99/termfix/internal/normalize"
)

// token is a word in the scanned text, addressed by byte offsets.
type token struct {
	start, end int
	text       string
}

// span is a half-open range of token indexes.
type span struct {
	from, to int
}

// tokenize splits text into words. A hyphen or apostrophe between two word
// runes stays inside the word ("Jean-Paul", "d'Aquino").
func tokenize(text string) []token {
	var toks []token
	start := -1
	for i, r := range text {
		if normalize.IsWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && isJoiner(r) {
			next, _ := utf8.DecodeRuneInString(text[i+utf8.RuneLen(r):])
			if normalize.IsWordRune(next) {
				continue
			}
		}
		if start >= 0 {
			toks = append(toks, token{start: start, end: i, text: text[start:i]})
			start = -1
		}
	}
	if start >= 0 {
		toks = append(toks, token{start: start, end: len(text), text: text[start:]})
	}
	return toks
}

func isJoiner(r rune) bool {
	return r == '-' || r == '\'' || r == '’'
}

// candidates returns the name-like runs of toks: maximal sequences of
// capitalised words and particles separated only by whitespace, capped at
// maxTokens, with trailing particles trimmed and at least two capitalised
// words.
func (m *Matcher) candidates(text string, toks []token) []span {
	var out []span
	i := 0
	for i < len(toks) {
		if !isCapitalized(toks[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(toks) && j-i < m.maxTokens &&
			adjacent(text, toks[j-1], toks[j]) &&
			(isCapitalized(toks[j]) || m.isParticle(toks[j])) {
			j++
		}
		k := j
		for k > i && m.isParticle(toks[k-1]) {
			k--
		}
		if m.substantive(toks[i:k]) >= 2 {
			out = append(out, span{from: i, to: k})
		}
		i = j
	}
	return out
}

func (m *Matcher) isParticle(t token) bool {
	_, ok := m.particles[t.text]
	return ok
}

// substantive counts the tokens that are not particles.
func (m *Matcher) substantive(toks []token) int {
	n := 0
	for _, t := range toks {
		if !m.isParticle(t) {
			n++
		}
	}
	return n
}

func isCapitalized(t token) bool {
	r, _ := utf8.DecodeRuneInString(t.text)
	return unicode.IsUpper(r)
}

// adjacent reports whether only whitespace separates a and b.
func adjacent(text string, a, b token) bool {
	gap := text[a.end:b.start]
	return gap != "" && strings.TrimSpace(gap) == ""
}

// nextWord returns the token at index i when it directly follows the token
// before it.
func nextWord(text string, toks []token, i int) (string, bool) {
	if i <= 0 || i >= len(toks) || !adjacent(text, toks[i-1], toks[i]) {
		return "", false
	}
	return toks[i].text, true
}

// lastWord returns the final space-separated word of s.
func lastWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
