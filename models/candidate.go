package models

import (
	"time"

	"gorm.io/gorm"
)

// Trade categories used to select a scoring lexicon. Unknown values fall back
// to TradeGeneral at lookup time rather than being rejected here.
const (
	TradeConstruction  = "construction"
	TradeElectrical    = "electrical"
	TradePlumbing      = "plumbing"
	TradeWelding       = "welding"
	TradeManufacturing = "manufacturing"
	TradeMaintenance   = "maintenance"
	TradeGeneral       = "general"
)

// Screening statuses a candidate moves through. Transitions are driven by
// session lifecycle events and assessment outcomes, never set directly by the
// dashboard except through the explicit HR override endpoint.
const (
	ScreeningInvited       = "invited"
	ScreeningInProgress    = "in_progress"
	ScreeningCompleted     = "completed"
	ScreeningPassed        = "passed"
	ScreeningFailed        = "failed"
	ScreeningPendingReview = "pending_review"
)

// Candidate represents one applicant. Email is the natural key; duplicate
// emails are rejected at creation. Candidates are flagged rather than hard
// deleted to preserve the audit trail.
type Candidate struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email           string         `gorm:"uniqueIndex;not null" json:"email"`
	FullName        string         `gorm:"size:255;not null" json:"full_name"`
	Phone           string         `gorm:"size:50" json:"phone,omitempty"`
	TradeCategory   string         `gorm:"size:50;not null;default:'general'" json:"trade_category"`
	Position        string         `gorm:"size:255" json:"position,omitempty"`
	ScreeningStatus string         `gorm:"size:50;not null;default:'invited';check:screening_status IN ('invited', 'in_progress', 'completed', 'passed', 'failed', 'pending_review')" json:"screening_status"`
	Flagged         bool           `gorm:"default:false" json:"flagged"`
	FlagReason      string         `gorm:"type:text" json:"flag_reason,omitempty"`
	ConsentRecorded bool           `gorm:"default:false" json:"consent_recorded"`
	ConsentAt       *time.Time     `json:"consent_at,omitempty"`
	LastContactAt   *time.Time     `json:"last_contact_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Sessions    []ScreeningSession `gorm:"foreignKey:CandidateID" json:"sessions,omitempty"`
	Assessments []Assessment       `gorm:"foreignKey:CandidateID" json:"assessments,omitempty"`
}
