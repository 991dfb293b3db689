package services

import (
	"testing"
)

func TestResolveFallsBackToGeneral(t *testing.T) {
	store := NewLexiconStore()

	tests := []struct {
		name          string
		tradeCategory string
		wantGeneral   bool
	}{
		{name: "Known trade", tradeCategory: "construction", wantGeneral: false},
		{name: "Known trade with whitespace", tradeCategory: "  welding ", wantGeneral: false},
		{name: "Known trade mixed case", tradeCategory: "Electrical", wantGeneral: false},
		{name: "Unknown trade", tradeCategory: "astronaut", wantGeneral: true},
		{name: "Empty trade", tradeCategory: "", wantGeneral: true},
	}

	general := store.Resolve("general")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lex := store.Resolve(tt.tradeCategory)
			if len(lex.Primary) == 0 || len(lex.Safety) == 0 {
				t.Fatalf("Resolve(%q) returned an empty lexicon", tt.tradeCategory)
			}
			isGeneral := lex.Primary[0] == general.Primary[0]
			if isGeneral != tt.wantGeneral {
				t.Errorf("Resolve(%q) general fallback = %v, expected %v", tt.tradeCategory, isGeneral, tt.wantGeneral)
			}
		})
	}
}

func TestMatchTier(t *testing.T) {
	keywords := []string{"concrete", "hard hat", "osha"}

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "Case-insensitive match",
			text:     "I pour CONCRETE every day and always wear my Hard Hat",
			expected: []string{"concrete", "hard hat"},
		},
		{
			name:     "Substring containment",
			text:     "we follow all the osha-required procedures",
			expected: []string{"osha"},
		},
		{
			name:     "No matches",
			text:     "I mostly answer phones",
			expected: nil,
		},
		{
			name:     "Empty text",
			text:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := MatchTier(tt.text, keywords)
			if len(hits) != len(tt.expected) {
				t.Fatalf("MatchTier() = %v, expected %v", hits, tt.expected)
			}
			for i, hit := range hits {
				if hit != tt.expected[i] {
					t.Errorf("MatchTier()[%d] = %q, expected %q", i, hit, tt.expected[i])
				}
			}
		})
	}
}

func TestEveryTradeHasSafetyVocabulary(t *testing.T) {
	store := NewLexiconStore()
	trades := []string{"construction", "electrical", "plumbing", "welding", "manufacturing", "maintenance", "general"}

	for _, trade := range trades {
		lex := store.Resolve(trade)
		if len(lex.Safety) == 0 {
			t.Errorf("trade %q has no safety vocabulary", trade)
		}
	}
}
