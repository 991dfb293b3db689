package models

import (
	"time"

	"gorm.io/gorm"
)

// Assessment is the scored outcome of exactly one session. The unique index on
// SessionID is the authoritative guard against duplicate assessments: a second
// insert for the same session fails at the database regardless of what the
// application-level existence check saw.
type Assessment struct {
	ID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID   string `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	CandidateID string `gorm:"type:uuid;not null;index" json:"candidate_id"` // Denormalized for query convenience

	OverallScore int  `gorm:"not null" json:"overall_score"` // 0-100
	Passed       bool `gorm:"not null" json:"passed"`

	Technical     TechnicalScores     `gorm:"serializer:json;type:jsonb" json:"technical"`
	Safety        SafetyScores        `gorm:"serializer:json;type:jsonb" json:"safety"`
	Experience    ExperienceScores    `gorm:"serializer:json;type:jsonb" json:"experience"`
	Communication CommunicationScores `gorm:"serializer:json;type:jsonb" json:"communication"`

	VoiceMetrics VoiceMetrics       `gorm:"serializer:json;type:jsonb" json:"voice_metrics"`
	Responses    []QuestionResponse `gorm:"serializer:json;type:jsonb" json:"responses,omitempty"`
	Insights     InsightBundle      `gorm:"serializer:json;type:jsonb" json:"insights"`

	VendorSignalApplied bool       `gorm:"default:false" json:"vendor_signal_applied"`
	CompletedAt         time.Time  `gorm:"not null" json:"completed_at"`
	OverriddenBy        string     `gorm:"size:255" json:"overridden_by,omitempty"` // HR user id when manually corrected
	OverriddenAt        *time.Time `json:"overridden_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session   ScreeningSession `gorm:"foreignKey:SessionID" json:"-"`
	Candidate Candidate        `gorm:"foreignKey:CandidateID" json:"-"`
}

// TechnicalScores records the keyword-match group with per-tier hit lists so
// the score stays explainable to a reviewer.
type TechnicalScores struct {
	Score         int      `json:"score"` // 0-100
	PrimaryHits   []string `json:"primary_hits,omitempty"`
	SecondaryHits []string `json:"secondary_hits,omitempty"`
	SafetyHits    []string `json:"safety_hits,omitempty"`
}

// SafetyScores records the safety vocabulary group. CriticalFailure marks a
// hard gate: no safety vocabulary at all in a safety-critical trade.
type SafetyScores struct {
	Score           int      `json:"score"` // 0-100
	SafetyHits      []string `json:"safety_hits,omitempty"`
	CriticalFailure bool     `json:"critical_failure"`
}

type ExperienceScores struct {
	Score          int      `json:"score"` // 0-100
	IndicatorHits  []string `json:"indicator_hits,omitempty"`
	AvgAnswerChars int      `json:"avg_answer_chars"`
}

type CommunicationScores struct {
	Score           int     `json:"score"` // 0-100
	ResponseCount   int     `json:"response_count"`
	AvgWordsPerTurn float64 `json:"avg_words_per_turn"`
	EngagementScore int     `json:"engagement_score"` // 0-100, completion/participation component
}

// VoiceMetrics are heuristic placeholders derived from transcript statistics;
// they are not independently measured acoustic features.
type VoiceMetrics struct {
	Confidence float64 `json:"confidence"` // 0-100
	Fluency    float64 `json:"fluency"`    // 0-100
	Hesitation float64 `json:"hesitation"` // 0-100, higher means more hesitant
}

// QuestionResponse pairs an interviewer prompt with the candidate answer that
// followed it in the transcript.
type QuestionResponse struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	WordCount int       `json:"word_count"`
	AskedAt   time.Time `json:"asked_at"`
}

// InsightBundle is the rule-generated narrative attached to an assessment.
// Strengths is never empty: the generator always emits at least a default
// completion strength.
type InsightBundle struct {
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	RiskFactors     []string `json:"risk_factors,omitempty"`
	NextStep        string   `json:"next_step"`
}
