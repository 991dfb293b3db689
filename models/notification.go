package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification types raised by the evaluator and the session monitor.
const (
	NotificationTopPerformer       = "top_performer"
	NotificationSafetyFailure      = "safety_failure"
	NotificationScreeningCompleted = "screening_completed"
	NotificationSessionAbandoned   = "session_abandoned"
	NotificationTechnicalIssue     = "technical_issue"
)

// Notification priorities.
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// Notification is a fire-and-forget side-effect record of a threshold crossing
// or session event. The core never depends on delivery succeeding.
type Notification struct {
	ID           string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Type         string         `gorm:"size:50;not null;index" json:"type"`
	Priority     string         `gorm:"size:20;not null;default:'normal'" json:"priority"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	Message      string         `gorm:"type:text" json:"message"`
	CandidateID  string         `gorm:"type:uuid;index" json:"candidate_id,omitempty"`
	SessionID    string         `gorm:"type:uuid;index" json:"session_id,omitempty"`
	Read         bool           `gorm:"default:false;index" json:"read"`
	Acknowledged bool           `gorm:"default:false" json:"acknowledged"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
