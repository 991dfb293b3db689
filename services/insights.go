package services

import (
	"fmt"

	"github.com/tradescreenhq/tradescreen/backend/models"
)

// Insight rule thresholds: a sub-score at or above the strength threshold
// contributes a canned strength, below the weakness threshold a canned
// weakness.
const (
	insightStrengthThreshold = 70
	insightWeaknessThreshold = 50
)

// GenerateInsights maps the scored assessment to the HR-facing narrative.
// Deterministic: the same scores always produce the same bundle. The
// strengths list is guaranteed non-empty.
func GenerateInsights(assessment *models.Assessment, tradeCategory string) models.InsightBundle {
	var bundle models.InsightBundle

	if assessment.Technical.Score >= insightStrengthThreshold {
		bundle.Strengths = append(bundle.Strengths, fmt.Sprintf("Strong %s trade vocabulary and hands-on terminology", tradeCategory))
	} else if assessment.Technical.Score < insightWeaknessThreshold {
		bundle.Weaknesses = append(bundle.Weaknesses, "Limited use of trade-specific terminology")
	}

	if assessment.Safety.Score >= insightStrengthThreshold {
		bundle.Strengths = append(bundle.Strengths, "Safety-conscious; referenced safety practices unprompted")
	} else if assessment.Safety.Score < insightWeaknessThreshold {
		bundle.Weaknesses = append(bundle.Weaknesses, "Little mention of safety practices or protective equipment")
	}

	if assessment.Experience.Score >= insightStrengthThreshold {
		bundle.Strengths = append(bundle.Strengths, "Substantive answers with concrete experience indicators")
	} else if assessment.Experience.Score < insightWeaknessThreshold {
		bundle.Weaknesses = append(bundle.Weaknesses, "Few concrete experience details; answers stayed general")
	}

	if assessment.Communication.Score >= insightStrengthThreshold {
		bundle.Strengths = append(bundle.Strengths, "Engaged, well-developed responses throughout the call")
	} else if assessment.Communication.Score < insightWeaknessThreshold {
		bundle.Weaknesses = append(bundle.Weaknesses, "Short or sparse responses; limited engagement")
	}

	// The dashboard contract requires at least one strength entry.
	if len(bundle.Strengths) == 0 {
		bundle.Strengths = append(bundle.Strengths, "Completed the interview")
	}

	if assessment.Safety.CriticalFailure {
		bundle.RiskFactors = append(bundle.RiskFactors, "No safety vocabulary in a safety-critical trade")
	}
	if assessment.Communication.ResponseCount <= 2 {
		bundle.RiskFactors = append(bundle.RiskFactors, "Very short interview; signal may be unreliable")
	}

	bundle.Recommendations = recommendationsFor(assessment.Passed, assessment.OverallScore)
	bundle.NextStep = nextStepFor(assessment.Passed, assessment.OverallScore)
	return bundle
}

// recommendationsFor is a fixed lookup keyed by (passed, score band).
func recommendationsFor(passed bool, score int) []string {
	switch {
	case passed && score >= 90:
		return []string{"Fast-track to an in-person interview", "Verify certifications and references"}
	case passed && score >= 75:
		return []string{"Schedule an in-person interview", "Probe depth on the weaker sub-scores"}
	case passed:
		return []string{"Proceed to the next round with a skills check", "Review transcript for borderline areas"}
	case score >= 50:
		return []string{"Consider a second screening with targeted questions", "Review transcript before rejecting"}
	default:
		return []string{"Does not meet the screening bar for this role", "Keep on file for lower-requirement openings"}
	}
}

func nextStepFor(passed bool, score int) string {
	switch {
	case passed && score >= 90:
		return "Priority interview"
	case passed:
		return "In-person interview"
	case score >= 50:
		return "Manual review"
	default:
		return "Reject with notification"
	}
}
