package refine

import (
	"strings"
	"unicode"
)

// systemPrompt keeps the model to spelling, punctuation and terminology.
const systemPrompt = `You correct spelling and terminology in transcribed philosophy lectures.
Make only minimal corrections to spelling, punctuation and specific terms.
Never change the structure, the content or the order of ideas.`

// userPromptTemplate wraps the text to correct. %s is replaced with the text.
const userPromptTemplate = `Correct only typos, spelling mistakes and philosophical terminology in the text below.

Rules:
1) Keep the order of words, sentences and paragraphs.
2) Do not add or remove information.
3) Do not add transitions or commentary.
4) Keep the spoken tone of the lecture.
5) Fix only obvious spelling, punctuation and terminology errors.

Reply with the corrected text only.

TEXT:
%s`

// cleanResponse strips whitespace and an optional markdown code fence that
// some models wrap around their answer.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		// Drop an optional language tag on the fence line.
		if i := strings.IndexByte(rest, '\n'); i >= 0 && !strings.ContainsFunc(rest[:i], unicode.IsSpace) {
			rest = rest[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(rest), "```")
	}
	return strings.TrimSpace(s)
}

// wordCount counts whitespace-separated words.
func wordCount(s string) int {
	return len(strings.Fields(s))
}
