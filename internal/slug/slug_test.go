package slug

import "testing"

// TestGenerate exercises the slug generator with typical model-produced
// titles, special characters, whitespace and hyphen edge cases.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{name: "single letter", input: "X", want: "x"},
		{name: "simple two words", input: "Pricing Table", want: "pricing-table"},
		{name: "title with year", input: "Dashboard 2026", want: "dashboard-2026"},
		{name: "mixed case sentence", input: "The Quick Brown Fox Card", want: "the-quick-brown-fox-card"},

		// --- Special characters ---
		{name: "slash in title", input: "Pricing Page A/B", want: "pricing-page-ab"},
		{name: "punctuation marks", input: "Hello, World! How's it going?", want: "hello-world-hows-it-going"},
		{name: "ampersand", input: "Rock & Roll Player", want: "rock-roll-player"},
		{name: "parentheses and brackets", input: "Version (2.0) [Beta]", want: "version-20-beta"},
		{name: "hash and dollar", input: "Plan #2 costs $100", want: "plan-2-costs-100"},
		{name: "emoji stripped", input: "Launch 🚀 Screen", want: "launch-screen"},
		{name: "accents stripped", input: "Café Menu", want: "caf-menu"},

		// --- Whitespace ---
		{name: "leading and trailing spaces", input: "  Hero Section  ", want: "hero-section"},
		{name: "multiple spaces", input: "Bento   Grid", want: "bento-grid"},
		{name: "tabs become hyphens", input: "hello\tworld", want: "hello-world"},
		{name: "newlines become hyphens", input: "hello\nworld", want: "hello-world"},

		// --- Hyphen handling ---
		{name: "existing hyphens kept", input: "Sign-Up Form", want: "sign-up-form"},
		{name: "double hyphens collapsed", input: "Login -- Dark", want: "login-dark"},
		{name: "leading and trailing hyphens trimmed", input: "-Glass Card-", want: "glass-card"},

		// --- Edge cases ---
		{name: "empty string", input: "", want: ""},
		{name: "only symbols", input: "!@#$%^&*()", want: ""},
		{name: "only spaces", input: "     ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_Idempotent verifies that generating a slug from an already
// valid slug produces the same result.
func TestGenerate_Idempotent(t *testing.T) {
	slugs := []string{"hello-world", "pricing-table-2", "a", "123"}

	for _, s := range slugs {
		t.Run(s, func(t *testing.T) {
			if got := Generate(s); got != s {
				t.Errorf("Generate(%q) = %q, want idempotent result %q", s, got, s)
			}
		})
	}
}

func setOf(slugs ...string) func(string) bool {
	m := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		m[s] = true
	}
	return func(s string) bool { return m[s] }
}

func TestUnique(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		taken []string
		want  string
	}{
		{name: "free base", base: "x", want: "x"},
		{name: "base taken", base: "x", taken: []string{"x"}, want: "x-2"},
		{name: "suffixes taken", base: "x", taken: []string{"x", "x-2", "x-3"}, want: "x-4"},
		{name: "gap in suffixes", base: "card", taken: []string{"card", "card-3"}, want: "card-2"},
		{name: "unrelated slugs ignored", base: "card", taken: []string{"card-2", "cards"}, want: "card"},
		{name: "empty base falls back", base: "", want: Fallback},
		{name: "fallback taken", base: "", taken: []string{Fallback}, want: Fallback + "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unique(tt.base, setOf(tt.taken...)); got != tt.want {
				t.Errorf("Unique(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

// TestUnique_SequenceIsDistinct inserts the same title many times and checks
// that every allocated slug is new.
func TestUnique_SequenceIsDistinct(t *testing.T) {
	taken := map[string]bool{}
	isTaken := func(s string) bool { return taken[s] }

	for i := 0; i < 50; i++ {
		title := "Glass Card"
		if i%3 == 0 {
			title = "Glass Card 2" // collides with the "-2" suffix of the base
		}
		got := Unique(Generate(title), isTaken)
		if taken[got] {
			t.Fatalf("iteration %d: slug %q allocated twice", i, got)
		}
		taken[got] = true
	}

	if len(taken) != 50 {
		t.Errorf("expected 50 distinct slugs, got %d", len(taken))
	}
	if !taken["glass-card"] || !taken["glass-card-2"] {
		t.Errorf("expected base slugs to be allocated, got %v", taken)
	}
}
