package services

import (
	"strings"
	"testing"

	"github.com/tradescreenhq/tradescreen/backend/models"
)

func testPolicy() ScoringPolicy {
	return ScoringPolicy{
		WeightTechnical:       0.35,
		WeightCommunication:   0.25,
		WeightExperience:      0.25,
		WeightEngagement:      0.15,
		PassThreshold:         65,
		TopPerformerThreshold: 90,
		VendorSignalFloor:     70,
		VendorSignalCeiling:   60,
		MinSessionSeconds:     120,
	}
}

func TestScoringPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScoringPolicy)
		wantErr bool
	}{
		{name: "Reference weights", mutate: func(p *ScoringPolicy) {}, wantErr: false},
		{name: "Weights exceed one", mutate: func(p *ScoringPolicy) { p.WeightTechnical = 0.5 }, wantErr: true},
		{name: "Weights short of one", mutate: func(p *ScoringPolicy) { p.WeightEngagement = 0 }, wantErr: true},
		{name: "Within tolerance", mutate: func(p *ScoringPolicy) {
			p.WeightTechnical = 0.3505
			p.WeightEngagement = 0.15
		}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := testPolicy()
			tt.mutate(&policy)
			err := policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTechnicalScoreClamped(t *testing.T) {
	lexicon := NewLexiconStore().Resolve(models.TradeConstruction)

	// Every keyword from every tier in one answer. The raw weighted sum far
	// exceeds 100; the score must not.
	allKeywords := strings.Join(lexicon.Primary, " ") + " " +
		strings.Join(lexicon.Secondary, " ") + " " +
		strings.Join(lexicon.Safety, " ")
	transcript := NormalizeTranscript([]models.TranscriptEntry{
		entry(0, models.SpeakerCandidate, allKeywords, true),
	})

	result := TechnicalScore(transcript, lexicon)
	if result.Score != 100 {
		t.Errorf("Score = %d, expected clamp at 100", result.Score)
	}
	if len(result.PrimaryHits) != len(lexicon.Primary) {
		t.Errorf("PrimaryHits = %d, expected %d", len(result.PrimaryHits), len(lexicon.Primary))
	}
}

func TestTechnicalScorePathologicalRepetition(t *testing.T) {
	lexicon := NewLexiconStore().Resolve(models.TradeWelding)

	// A candidate repeating one keyword hundreds of times scores it once:
	// matching is containment, not frequency.
	repeated := strings.Repeat("weld ", 500)
	transcript := NormalizeTranscript([]models.TranscriptEntry{
		entry(0, models.SpeakerCandidate, repeated, true),
	})

	result := TechnicalScore(transcript, lexicon)
	if len(result.PrimaryHits) != 1 {
		t.Fatalf("PrimaryHits = %v, expected exactly one distinct hit", result.PrimaryHits)
	}
	if result.Score != primaryHitWeight {
		t.Errorf("Score = %d, expected %d", result.Score, primaryHitWeight)
	}
}

func TestTechnicalScoreEmptyTranscript(t *testing.T) {
	lexicon := NewLexiconStore().Resolve(models.TradeGeneral)
	result := TechnicalScore(NormalizedTranscript{}, lexicon)
	if result.Score != 0 {
		t.Errorf("Score = %d, expected 0 for empty transcript", result.Score)
	}
}

func TestSafetyScore(t *testing.T) {
	tests := []struct {
		name          string
		hits          []string
		tradeCategory string
		wantScore     int
		wantCritical  bool
	}{
		{
			name:          "Safety hits in critical trade",
			hits:          []string{"safety", "hard hat", "osha"},
			tradeCategory: models.TradeConstruction,
			wantScore:     90,
			wantCritical:  false,
		},
		{
			name:          "No hits in critical trade",
			hits:          nil,
			tradeCategory: models.TradeElectrical,
			wantScore:     0,
			wantCritical:  true,
		},
		{
			name:          "No hits in non-critical trade",
			hits:          nil,
			tradeCategory: models.TradeMaintenance,
			wantScore:     0,
			wantCritical:  false,
		},
		{
			name:          "Many hits clamp at 100",
			hits:          []string{"safety", "ppe", "lockout", "tagout", "hazard"},
			tradeCategory: models.TradeManufacturing,
			wantScore:     100,
			wantCritical:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafetyScore(tt.hits, tt.tradeCategory)
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, expected %d", got.Score, tt.wantScore)
			}
			if got.CriticalFailure != tt.wantCritical {
				t.Errorf("CriticalFailure = %v, expected %v", got.CriticalFailure, tt.wantCritical)
			}
		})
	}
}

func TestCompletionScore(t *testing.T) {
	policy := testPolicy()

	tests := []struct {
		name     string
		duration int
		expected int
	}{
		{name: "Unknown duration treated as complete", duration: 0, expected: 100},
		{name: "Half the minimum", duration: 60, expected: 50},
		{name: "Exactly the minimum", duration: 120, expected: 100},
		{name: "Beyond the minimum clamps", duration: 600, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompletionScore(tt.duration, policy); got != tt.expected {
				t.Errorf("CompletionScore(%d) = %d, expected %d", tt.duration, got, tt.expected)
			}
		})
	}
}

func TestBlend(t *testing.T) {
	policy := testPolicy()

	tests := []struct {
		name     string
		scores   SubScores
		expected int
	}{
		{
			name:     "All perfect",
			scores:   SubScores{Technical: 100, Communication: 100, Experience: 100, Engagement: 100},
			expected: 100,
		},
		{
			name:     "All zero",
			scores:   SubScores{},
			expected: 0,
		},
		{
			name: "Weighted mix rounds to nearest",
			// 0.35*80 + 0.25*60 + 0.25*70 + 0.15*100 = 75.5
			scores:   SubScores{Technical: 80, Communication: 60, Experience: 70, Engagement: 100},
			expected: 76,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Blend(tt.scores); got != tt.expected {
				t.Errorf("Blend() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestApplyVendorSignal(t *testing.T) {
	policy := testPolicy()
	positive := true
	negative := false

	tests := []struct {
		name     string
		score    int
		signal   *bool
		expected int
	}{
		{name: "Nil signal leaves score unchanged", score: 55, signal: nil, expected: 55},
		{name: "Positive signal lifts to floor", score: 50, signal: &positive, expected: 70},
		{name: "Positive signal never lowers", score: 80, signal: &positive, expected: 80},
		{name: "Negative signal caps at ceiling", score: 80, signal: &negative, expected: 60},
		{name: "Negative signal never raises", score: 40, signal: &negative, expected: 40},
		{name: "Positive signal at floor boundary", score: 70, signal: &positive, expected: 70},
		{name: "Negative signal at ceiling boundary", score: 60, signal: &negative, expected: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.ApplyVendorSignal(tt.score, tt.signal); got != tt.expected {
				t.Errorf("ApplyVendorSignal(%d) = %d, expected %d", tt.score, got, tt.expected)
			}
		})
	}
}

func TestCommunicationScoreBounds(t *testing.T) {
	// A long, many-turn transcript must still land inside [0,100].
	var entries []models.TranscriptEntry
	for i := 0; i < 50; i++ {
		entries = append(entries, entry(i, models.SpeakerCandidate,
			strings.Repeat("word ", 200), true))
	}
	transcript := NormalizeTranscript(entries)

	got := CommunicationScore(transcript)
	if got != 100 {
		t.Errorf("CommunicationScore = %d, expected clamp at 100", got)
	}

	if got := CommunicationScore(NormalizedTranscript{}); got != 0 {
		t.Errorf("CommunicationScore(empty) = %d, expected 0", got)
	}
}

func TestExperienceScoreBounds(t *testing.T) {
	long := "I have twelve years of experience, worked as a certified journeyman, " +
		"supervised crews, trained apprentices, managed projects and led installations. " +
		strings.Repeat("Detailed answer content. ", 30)
	transcript := NormalizeTranscript([]models.TranscriptEntry{
		entry(0, models.SpeakerCandidate, long, true),
	})

	result := ExperienceScore(transcript)
	if result.Score > 100 || result.Score < 0 {
		t.Fatalf("Score = %d, outside [0,100]", result.Score)
	}
	if result.Score != 100 {
		t.Errorf("Score = %d, expected both components capped (60+40)", result.Score)
	}
	if len(result.IndicatorHits) == 0 {
		t.Error("IndicatorHits empty for an indicator-rich answer")
	}
}

func TestDeriveVoiceMetrics(t *testing.T) {
	transcript := NormalizedTranscript{
		AvgWordsPerTurn: 10,
		AvgConfidence:   0.9,
	}
	got := DeriveVoiceMetrics(transcript, 50)

	if got.Confidence != 90 {
		t.Errorf("Confidence = %v, expected 90", got.Confidence)
	}
	if got.Fluency != 40 {
		t.Errorf("Fluency = %v, expected 40", got.Fluency)
	}
	if got.Hesitation != 60 {
		t.Errorf("Hesitation = %v, expected 60", got.Hesitation)
	}

	// No transport confidence: fall back to the communication score.
	noConf := DeriveVoiceMetrics(NormalizedTranscript{AvgWordsPerTurn: 30}, 72)
	if noConf.Confidence != 72 {
		t.Errorf("fallback Confidence = %v, expected 72", noConf.Confidence)
	}
	if noConf.Fluency != 100 || noConf.Hesitation != 0 {
		t.Errorf("Fluency/Hesitation = %v/%v, expected 100/0", noConf.Fluency, noConf.Hesitation)
	}
}
