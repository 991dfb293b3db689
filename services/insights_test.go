package services

import (
	"testing"

	"github.com/tradescreenhq/tradescreen/backend/models"
)

func TestGenerateInsightsStrengthsNeverEmpty(t *testing.T) {
	// Worst possible assessment: every sub-score at zero.
	assessment := &models.Assessment{
		OverallScore: 0,
		Passed:       false,
		Safety:       models.SafetyScores{CriticalFailure: true},
	}

	bundle := GenerateInsights(assessment, models.TradeConstruction)

	if len(bundle.Strengths) == 0 {
		t.Fatal("Strengths must never be empty")
	}
	if len(bundle.Weaknesses) != 4 {
		t.Errorf("Weaknesses = %d, expected one per sub-score group", len(bundle.Weaknesses))
	}
	if len(bundle.RiskFactors) == 0 {
		t.Error("expected risk factors for a critical safety failure with no responses")
	}
	if bundle.NextStep != "Reject with notification" {
		t.Errorf("NextStep = %q", bundle.NextStep)
	}
}

func TestGenerateInsightsDeterministic(t *testing.T) {
	assessment := &models.Assessment{
		OverallScore:  78,
		Passed:        true,
		Technical:     models.TechnicalScores{Score: 85},
		Safety:        models.SafetyScores{Score: 90},
		Experience:    models.ExperienceScores{Score: 60},
		Communication: models.CommunicationScores{Score: 72, ResponseCount: 8},
	}

	first := GenerateInsights(assessment, models.TradeWelding)
	second := GenerateInsights(assessment, models.TradeWelding)

	if len(first.Strengths) != len(second.Strengths) || first.NextStep != second.NextStep {
		t.Error("insights must be deterministic for identical scores")
	}
	if len(first.Strengths) != 3 {
		t.Errorf("Strengths = %v, expected technical, safety and communication entries", first.Strengths)
	}
	if len(first.RiskFactors) != 0 {
		t.Errorf("RiskFactors = %v, expected none", first.RiskFactors)
	}
	if first.NextStep != "In-person interview" {
		t.Errorf("NextStep = %q", first.NextStep)
	}
}

func TestNextStepBands(t *testing.T) {
	tests := []struct {
		name     string
		passed   bool
		score    int
		expected string
	}{
		{name: "Top performer", passed: true, score: 93, expected: "Priority interview"},
		{name: "Standard pass", passed: true, score: 70, expected: "In-person interview"},
		{name: "Borderline fail", passed: false, score: 55, expected: "Manual review"},
		{name: "Clear fail", passed: false, score: 20, expected: "Reject with notification"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextStepFor(tt.passed, tt.score); got != tt.expected {
				t.Errorf("nextStepFor(%v, %d) = %q, expected %q", tt.passed, tt.score, got, tt.expected)
			}
		})
	}
}
