package refine

import (
	"regexp"
	"strings"
)

// paragraphBreak matches a blank line, possibly containing spaces.
var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n\s*`)

// paragraphSep joins paragraphs and chunks in refined output.
const paragraphSep = "\n\n"

// splitChunks packs the paragraphs of text into chunks of at most maxWords
// words. A paragraph longer than maxWords is cut on word boundaries.
func splitChunks(text string, maxWords int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxWords <= 0 {
		return []string{text}
	}

	var (
		chunks []string
		cur    []string
		words  int
	)
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, paragraphSep))
			cur, words = nil, 0
		}
	}

	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		n := wordCount(para)
		if n == 0 {
			continue
		}
		if n > maxWords {
			flush()
			chunks = append(chunks, splitWords(para, maxWords)...)
			continue
		}
		if words+n > maxWords {
			flush()
		}
		cur = append(cur, para)
		words += n
	}
	flush()
	return chunks
}

// splitWords cuts s into pieces of at most maxWords words, keeping the
// original spacing inside each piece.
func splitWords(s string, maxWords int) []string {
	var out []string
	start, n := 0, 0
	inWord := false
	for i, r := range s {
		space := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		switch {
		case !space && !inWord:
			if n == maxWords {
				out = append(out, strings.TrimSpace(s[start:i]))
				start, n = i, 0
			}
			n++
			inWord = true
		case space:
			inWord = false
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// halve cuts s in two at the whitespace nearest its middle. ok is false when
// s has no inner whitespace.
func halve(s string) (left, right string, ok bool) {
	mid := len(s) / 2
	best := -1
	for i, r := range s {
		if r != ' ' && r != '\n' && r != '\t' {
			continue
		}
		if best < 0 || abs(i-mid) < abs(best-mid) {
			best = i
		}
	}
	if best <= 0 {
		return s, "", false
	}
	left, right = strings.TrimSpace(s[:best]), strings.TrimSpace(s[best:])
	if left == "" || right == "" {
		return s, "", false
	}
	return left, right, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
