package fuzzy_test

import (
	"testing"

	"github.com/MrWong99/termfix/internal/fuzzy"
	"github.com/MrWong99/termfix/internal/normalize"
)

func nameIndex(pairs ...string) map[string]string {
	idx := make(map[string]string)
	for i := 0; i+1 < len(pairs); i += 2 {
		idx[normalize.Key(pairs[i])] = pairs[i+1]
	}
	return idx
}

var philosophers = nameIndex(
	"Tomás de Aquino", "Tomás de Aquino",
	"Tomas de Aquino", "Tomás de Aquino",
	"Marilena Chauí", "Marilena Chauí",
	"Olavo de Carvalho", "Olavo de Carvalho",
)

func TestMatcher_Find(t *testing.T) {
	t.Parallel()

	m := fuzzy.New(philosophers)

	tests := []struct {
		name string
		text string
		want []string // replacements in order
	}{
		{name: "missing letter", text: "segundo Tomas de Aqino, a causa", want: []string{"Tomás de Aquino"}},
		{name: "sentence opener before name", text: "Segundo Marilena Chaue, a filosofia", want: []string{"Marilena Chauí"}},
		{name: "normalised form equals canonical", text: "segundo TOMAS DE AQUINO hoje"},
		{name: "already canonical", text: "segundo Tomás de Aquino, a causa"},
		{name: "single capitalised word", text: "segundo Aquino, a causa"},
		{name: "below threshold", text: "segundo Maria Chaves, a causa"},
		{name: "lowercase text", text: "tomas de aqino"},
		{name: "empty", text: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := m.Find(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("Find(%q) = %+v, want replacements %v", tc.text, got, tc.want)
			}
			for i, rep := range got {
				if rep.Replacement != tc.want[i] {
					t.Errorf("Find(%q)[%d].Replacement = %q, want %q", tc.text, i, rep.Replacement, tc.want[i])
				}
				if tc.text[rep.Start:rep.End] != rep.Original {
					t.Errorf("Find(%q)[%d]: offsets [%d,%d) do not address %q", tc.text, i, rep.Start, rep.End, rep.Original)
				}
			}
		})
	}
}

func TestMatcher_OffsetsAndTrailingParticles(t *testing.T) {
	t.Parallel()

	m := fuzzy.New(philosophers)
	text := "li Olavo Carvalho de manhã"
	got := m.Find(text)
	if len(got) != 1 {
		t.Fatalf("Find(%q) = %+v, want one replacement", text, got)
	}
	if got[0].Original != "Olavo Carvalho" {
		t.Errorf("Original = %q, want %q (trailing particle trimmed)", got[0].Original, "Olavo Carvalho")
	}
	if got[0].Start != 3 || got[0].End != 17 {
		t.Errorf("span = [%d,%d), want [3,17)", got[0].Start, got[0].End)
	}
	if got[0].Replacement != "Olavo de Carvalho" {
		t.Errorf("Replacement = %q, want %q", got[0].Replacement, "Olavo de Carvalho")
	}
}

func TestMatcher_ThresholdBoundary(t *testing.T) {
	t.Parallel()

	idx := nameIndex("Immanuel Kant", "Immanuel Kant")

	tests := []struct {
		name  string
		score float64
		want  int
	}{
		{name: "exactly at threshold", score: 0.90, want: 1},
		{name: "just below threshold", score: 0.89, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := fuzzy.New(idx, fuzzy.WithScorer(func(a, b string) float64 { return tc.score }))
			got := m.Find("segundo Emanuel Kent, a razão")
			if len(got) != tc.want {
				t.Fatalf("score %.2f: Find = %+v, want %d replacements", tc.score, got, tc.want)
			}
		})
	}
}

func TestMatcher_SkipsDuplicatedTrailingWord(t *testing.T) {
	t.Parallel()

	idx := nameIndex("Agostinho de Hipona", "Agostinho de Hipona")
	// The replacement would end in "Hipona" right before the word "hipona".
	m := fuzzy.New(idx)
	got := m.Find("Agostinho Hipóna hipona")
	for _, rep := range got {
		if rep.Replacement == "Agostinho de Hipona" {
			t.Errorf("Find produced %+v, which duplicates the following word", rep)
		}
	}
}

type stubResolver struct {
	calls []string
}

func (s *stubResolver) Resolve(key string) (string, float64, bool) {
	s.calls = append(s.calls, key)
	if key == "ze ninguen" {
		return "Zé Ninguém", 0.95, true
	}
	return "", 0, false
}

func TestMatcher_WithResolver(t *testing.T) {
	t.Parallel()

	r := &stubResolver{}
	m := fuzzy.New(nil, fuzzy.WithResolver(r))
	got := m.Find("falou Ze Ninguen ontem")
	if len(got) != 1 || got[0].Replacement != "Zé Ninguém" || got[0].Score != 0.95 {
		t.Fatalf("Find = %+v, want Zé Ninguém with score 0.95", got)
	}
	if len(r.calls) == 0 || r.calls[0] != "ze ninguen" {
		t.Errorf("resolver calls = %v, want first key %q", r.calls, "ze ninguen")
	}
}

func TestMatcher_MaxTokens(t *testing.T) {
	t.Parallel()

	idx := nameIndex("Georg Wilhelm Friedrich Hegel", "Georg Wilhelm Friedrich Hegel")
	m := fuzzy.New(idx, fuzzy.WithMaxTokens(3))
	// Capped at three words the run cannot reach the full name.
	if got := m.Find("o Georg Wilhelm Friedrich Hegl disse"); len(got) != 0 {
		t.Errorf("Find = %+v, want none with max 3 tokens", got)
	}

	m = fuzzy.New(idx)
	got := m.Find("o Georg Wilhelm Friedrich Hegl disse")
	if len(got) != 1 || got[0].Replacement != "Georg Wilhelm Friedrich Hegel" {
		t.Errorf("Find = %+v, want Georg Wilhelm Friedrich Hegel", got)
	}
}

func TestBruteForce_Resolve(t *testing.T) {
	t.Parallel()

	b := fuzzy.NewBruteForce(philosophers, 0.9, nil)
	if b.Len() != len(philosophers) {
		t.Errorf("Len() = %d, want %d", b.Len(), len(philosophers))
	}

	if c, s, ok := b.Resolve("tomas de aquino"); !ok || c != "Tomás de Aquino" || s != 1 {
		t.Errorf("Resolve(exact) = (%q, %v, %v)", c, s, ok)
	}
	if c, _, ok := b.Resolve("marilena chaue"); !ok || c != "Marilena Chauí" {
		t.Errorf("Resolve(near) = (%q, %v)", c, ok)
	}
	if _, _, ok := b.Resolve("immanuel kant"); ok {
		t.Error("Resolve(unknown) matched")
	}
	if _, _, ok := b.Resolve(""); ok {
		t.Error("Resolve(\"\") matched")
	}
}

func TestScorers(t *testing.T) {
	t.Parallel()

	if got := fuzzy.LCSRatio("", ""); got != 1 {
		t.Errorf("LCSRatio(\"\", \"\") = %v, want 1", got)
	}
	if got := fuzzy.LCSRatio("abc", "abc"); got != 1 {
		t.Errorf("LCSRatio(abc, abc) = %v, want 1", got)
	}
	// LCS("abcdefghij", "abcdefghik") = 9, so 18/20.
	if got := fuzzy.LCSRatio("abcdefghij", "abcdefghik"); got != 0.9 {
		t.Errorf("LCSRatio = %v, want 0.9", got)
	}
	if got := fuzzy.JaroWinkler("martha", "marhta"); got < 0.95 {
		t.Errorf("JaroWinkler(martha, marhta) = %v, want >= 0.95", got)
	}
}

func TestMatcher_WithParticles(t *testing.T) {
	t.Parallel()

	idx := nameIndex("Ludwig van Beethoven", "Ludwig van Beethoven")
	text := "ouviu Ludwig van Bethoven ontem"

	if got := fuzzy.New(idx).Find(text); len(got) != 0 {
		t.Errorf("default particles: Find = %+v, want none", got)
	}
	got := fuzzy.New(idx, fuzzy.WithParticles("van", "de")).Find(text)
	if len(got) != 1 || got[0].Replacement != "Ludwig van Beethoven" {
		t.Errorf("with van: Find = %+v, want Ludwig van Beethoven", got)
	}
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"tomás de aquino", "Tomás de Aquino"},
		{"Olavo De Carvalho", "Olavo de Carvalho"},
		{"jean-Paul sartre", "Jean-Paul Sartre"},
		{"De Beauvoir", "De Beauvoir"},
		{"mário ferreira dos santos", "Mário Ferreira dos Santos"},
	}
	for _, tc := range tests {
		if got := fuzzy.TitleCase(tc.in, nil); got != tc.want {
			t.Errorf("TitleCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
