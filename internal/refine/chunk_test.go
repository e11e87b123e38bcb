package refine

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitChunks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		maxWords int
		want     []string
	}{
		{name: "empty", text: "  \n ", maxWords: 5},
		{name: "single paragraph", text: "a b c", maxWords: 5, want: []string{"a b c"}},
		{name: "paragraphs packed", text: "a b\n\nc d\n\ne f", maxWords: 4, want: []string{"a b\n\nc d", "e f"}},
		{name: "blank line with spaces", text: "a b\n \t\nc", maxWords: 2, want: []string{"a b", "c"}},
		{name: "long paragraph cut", text: "a b c d e\n\nf", maxWords: 2, want: []string{"a b", "c d", "e", "f"}},
		{name: "no limit", text: "a b\n\nc", maxWords: 0, want: []string{"a b\n\nc"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := splitChunks(tc.text, tc.maxWords)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("splitChunks(%q, %d) = %q, want %q", tc.text, tc.maxWords, got, tc.want)
			}
		})
	}
}

func TestSplitWords_KeepsInnerSpacing(t *testing.T) {
	t.Parallel()
	got := splitWords("um,  dois\ttrês quatro", 2)
	want := []string{"um,  dois", "três quatro"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitWords = %q, want %q", got, want)
	}
}

func TestHalve(t *testing.T) {
	t.Parallel()

	left, right, ok := halve("um dois três quatro")
	if !ok || left+" "+right != "um dois três quatro" {
		t.Errorf("halve = %q, %q, %v", left, right, ok)
	}
	if _, _, ok := halve("palavra"); ok {
		t.Error("halve of a single word should fail")
	}
}

func TestCleanResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"  texto  ", "texto"},
		{"```\ntexto\n```", "texto"},
		{"```text\ntexto corrigido\n```", "texto corrigido"},
		{"```texto```", "texto"},
	}
	for _, tc := range tests {
		if got := cleanResponse(tc.in); got != tc.want {
			t.Errorf("cleanResponse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	t.Parallel()
	if n := wordCount(strings.Repeat("palavra ", 10)); n != 10 {
		t.Errorf("wordCount = %d, want 10", n)
	}
}
