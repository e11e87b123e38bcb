package normalize_test

import (
	"testing"
	"unicode/utf8"

	"github.com/MrWong99/termfix/internal/normalize"
)

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: "   ", want: ""},
		{name: "accents and case", in: "Árvore São", want: "arvore sao"},
		{name: "cedilla", in: "Relação", want: "relacao"},
		{name: "multi token name", in: "Tomás de Aquino", want: "tomas de aquino"},
		{name: "already plain", in: "causa", want: "causa"},
		{name: "decomposed input", in: "Platão", want: "platao"},
		{name: "upper with circumflex", in: "PARMÊNIDES", want: "parmenides"},
		{name: "trim", in: "  Chauí ", want: "chaui"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := normalize.Key(tc.in); got != tc.want {
				t.Errorf("Key(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestKey_Idempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Sócrates", "AGOSTINHO DE HIPONA", "ser-aí", "ﬁlosoﬁa", "\xff\xfe"} {
		once := normalize.Key(in)
		if twice := normalize.Key(once); twice != once {
			t.Errorf("Key(Key(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestFold_PreservesRuneCount(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "CAUZA", "İstanbul", "Tomás de Aquino", "ǅemal", "\xffabc"} {
		folded := normalize.Fold(in)
		if got, want := len(folded), utf8.RuneCountInString(in); got != want {
			t.Errorf("len(Fold(%q)) = %d, want %d", in, got, want)
		}
	}
}

func TestCaseShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in        string
		wantUpper bool
		wantTitle bool
	}{
		{"CAUZA", true, false},
		{"Cauza", false, true},
		{"cauza", false, false},
		{"cAUZA", false, false},
		{"C", true, true},
		{"123", false, false},
		{"SÓCRATES", true, false},
		{"Ética", false, true},
	}

	for _, tc := range tests {
		if got := normalize.IsUpper(tc.in); got != tc.wantUpper {
			t.Errorf("IsUpper(%q) = %v, want %v", tc.in, got, tc.wantUpper)
		}
		if got := normalize.IsTitle(tc.in); got != tc.wantTitle {
			t.Errorf("IsTitle(%q) = %v, want %v", tc.in, got, tc.wantTitle)
		}
	}
}

func TestIsMultiWord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"causa", false},
		{" causa ", false},
		{"a priori", true},
		{"a\tpriori", true},
		{"Tomás\u00a0de Aquino", true},
		{"", false},
	}
	for _, tc := range tests {
		if got := normalize.IsMultiWord(tc.in); got != tc.want {
			t.Errorf("IsMultiWord(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCapitalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"causa":   "Causa",
		"CAUSA":   "Causa",
		"ética":   "Ética",
		"":        "",
		"'logos'": "'Logos'",
	}
	for in, want := range tests {
		if got := normalize.Capitalize(in); got != want {
			t.Errorf("Capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}
