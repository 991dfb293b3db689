package services

import (
	"math"

	"github.com/tradescreenhq/tradescreen/backend/models"
)

// ScoringPolicy is the single auditable table of scoring weights and
// thresholds. The four weights must sum to 1.0; Validate refuses anything
// else. The historical implementations carried three divergent pass
// thresholds (60, 65 and 70 depending on the scoring path); they are unified
// here into the one configured PassThreshold.
type ScoringPolicy struct {
	WeightTechnical     float64
	WeightCommunication float64
	WeightExperience    float64
	WeightEngagement    float64

	PassThreshold         int
	TopPerformerThreshold int

	// Vendor success-signal clamp bounds. A positive signal raises the score
	// to at least the floor; a negative signal caps it at the ceiling. The
	// signal never moves a score in the opposite direction.
	VendorSignalFloor   int
	VendorSignalCeiling int

	// MinSessionSeconds is the minimum call duration before the completion
	// component stops penalizing the session.
	MinSessionSeconds int
}

// Validate checks the convexity requirement on the weights.
func (p ScoringPolicy) Validate() error {
	sum := p.WeightTechnical + p.WeightCommunication + p.WeightExperience + p.WeightEngagement
	if math.Abs(sum-1.0) > 0.001 {
		return ErrConfiguration
	}
	return nil
}

// Per-hit weights for the technical keyword score. Primary trade vocabulary
// is the strongest signal of hands-on expertise; safety vocabulary outranks
// generic process terms.
const (
	primaryHitWeight   = 15
	safetyHitWeight    = 10
	secondaryHitWeight = 8
)

// Experience-indicator phrases matched against candidate text.
var experienceIndicators = []string{
	"years", "year of", "experience", "worked", "managed", "supervised",
	"led ", "trained", "certified", "license", "apprentice", "journeyman",
	"foreman", "crew lead",
}

// Trades where absent safety vocabulary is a hard gate rather than just a low
// sub-score.
var safetyCriticalTrades = map[string]bool{
	models.TradeConstruction:  true,
	models.TradeElectrical:    true,
	models.TradeWelding:       true,
	models.TradeManufacturing: true,
}

// TechnicalResult carries the keyword score together with the per-tier hit
// lists that justify it.
type TechnicalResult struct {
	Score         int
	PrimaryHits   []string
	SecondaryHits []string
	SafetyHits    []string
}

// TechnicalScore computes the weighted keyword-match score. The raw weighted
// sum has no natural upper bound, so the clamp is mandatory: a candidate who
// repeats keywords endlessly must not exceed 100. Total function, never errors.
func TechnicalScore(transcript NormalizedTranscript, lexicon Lexicon) TechnicalResult {
	text := transcript.CandidateText()
	result := TechnicalResult{
		PrimaryHits:   MatchTier(text, lexicon.Primary),
		SecondaryHits: MatchTier(text, lexicon.Secondary),
		SafetyHits:    MatchTier(text, lexicon.Safety),
	}
	raw := len(result.PrimaryHits)*primaryHitWeight +
		len(result.SafetyHits)*safetyHitWeight +
		len(result.SecondaryHits)*secondaryHitWeight
	result.Score = clampScore(raw)
	return result
}

// SafetyScore derives the safety sub-score group from safety-tier hits. Zero
// safety vocabulary in a safety-critical trade is flagged as a critical
// failure; the evaluator turns that flag into a hard fail.
func SafetyScore(hits []string, tradeCategory string) models.SafetyScores {
	score := clampScore(len(hits) * 30)
	critical := len(hits) == 0 && safetyCriticalTrades[tradeCategory]
	return models.SafetyScores{
		Score:           score,
		SafetyHits:      hits,
		CriticalFailure: critical,
	}
}

// ExperienceResult carries the experience score and the indicator phrases
// that contributed to it.
type ExperienceResult struct {
	Score         int
	IndicatorHits []string
}

// ExperienceScore blends experience-indicator density with average answer
// length, on the theory that substantive answers are both indicator-rich and
// longer. Clamped to [0,100].
func ExperienceScore(transcript NormalizedTranscript) ExperienceResult {
	hits := MatchTier(transcript.CandidateText(), experienceIndicators)

	indicatorComponent := len(hits) * 12
	if indicatorComponent > 60 {
		indicatorComponent = 60
	}
	lengthComponent := int(transcript.AvgCharsPerTurn / 2)
	if lengthComponent > 40 {
		lengthComponent = 40
	}

	return ExperienceResult{
		Score:         clampScore(indicatorComponent + lengthComponent),
		IndicatorHits: hits,
	}
}

// CommunicationScore rewards both participation breadth (number of turns) and
// depth (words per turn). A candidate with one long answer and a candidate
// with many short answers can score similarly; that is an accepted tradeoff.
func CommunicationScore(transcript NormalizedTranscript) int {
	participation := transcript.ResponseCount * 15
	if participation > 40 {
		participation = 40
	}
	depth := int(transcript.AvgWordsPerTurn * 3)
	if depth > 60 {
		depth = 60
	}
	return clampScore(participation + depth)
}

// CompletionScore is the ratio of actual session duration to the required
// minimum, capped at 100. A session whose duration is unknown (zero) is
// treated as fully complete: the caller has already established that the
// session ended normally before scoring it.
func CompletionScore(durationSeconds int, policy ScoringPolicy) int {
	if durationSeconds <= 0 {
		return 100
	}
	minSeconds := policy.MinSessionSeconds
	if minSeconds <= 0 {
		minSeconds = 120
	}
	return clampScore(durationSeconds * 100 / minSeconds)
}

// SubScores are the four blended components.
type SubScores struct {
	Technical     int
	Communication int
	Experience    int
	Engagement    int
}

// Blend combines the sub-scores into the overall score using the policy
// weights, rounded to the nearest integer and clamped to [0,100].
func (p ScoringPolicy) Blend(scores SubScores) int {
	weighted := p.WeightTechnical*float64(scores.Technical) +
		p.WeightCommunication*float64(scores.Communication) +
		p.WeightExperience*float64(scores.Experience) +
		p.WeightEngagement*float64(scores.Engagement)
	return clampScore(int(math.Round(weighted)))
}

// ApplyVendorSignal clamps the computed score against the vendor's optional
// success evaluation. The signal is corroborating, not authoritative: a
// positive signal raises the score to at least the floor but never lowers it;
// a negative signal caps the score at the ceiling but never raises it; a nil
// signal leaves the score unchanged.
func (p ScoringPolicy) ApplyVendorSignal(score int, signal *bool) int {
	if signal == nil {
		return score
	}
	if *signal {
		if score < p.VendorSignalFloor {
			return p.VendorSignalFloor
		}
		return score
	}
	if score > p.VendorSignalCeiling {
		return p.VendorSignalCeiling
	}
	return score
}

// DeriveVoiceMetrics produces the heuristic voice-analysis placeholders from
// transcript statistics. These are stand-ins, not measured acoustic features.
func DeriveVoiceMetrics(transcript NormalizedTranscript, communicationScore int) models.VoiceMetrics {
	confidence := transcript.AvgConfidence * 100
	if confidence == 0 {
		confidence = float64(communicationScore)
	}
	fluency := transcript.AvgWordsPerTurn * 4
	if fluency > 100 {
		fluency = 100
	}
	hesitation := 100 - fluency
	return models.VoiceMetrics{
		Confidence: math.Round(confidence),
		Fluency:    math.Round(fluency),
		Hesitation: math.Round(hesitation),
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
