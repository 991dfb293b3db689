package models

import (
	"time"

	"gorm.io/gorm"
)

// Session statuses. A session is terminal once it reaches completed, failed or
// abandoned; all three require EndedAt to be set.
const (
	SessionCreated   = "created"
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
	SessionAbandoned = "abandoned"
)

// Speaker roles on a transcript entry.
const (
	SpeakerCandidate   = "candidate"
	SpeakerInterviewer = "interviewer"
)

// ScreeningSession represents one voice interview attempt by one candidate.
type ScreeningSession struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CandidateID     string         `gorm:"type:uuid;not null;index" json:"candidate_id"`
	VendorSessionID string         `gorm:"size:255;index" json:"vendor_session_id,omitempty"` // Assigned by the voice transport, if any
	Status          string         `gorm:"not null;default:'created';index;check:status IN ('created', 'active', 'completed', 'failed', 'abandoned')" json:"status"`
	StartedAt       *time.Time     `gorm:"index" json:"started_at,omitempty"`
	EndedAt         *time.Time     `json:"ended_at,omitempty"`
	Duration        int            `json:"duration"` // Duration in seconds, defined iff started and ended are set
	RecordingURL    string         `gorm:"size:500" json:"recording_url,omitempty"`
	ConnectionScore float64        `json:"connection_score,omitempty"` // Transport-reported link quality, 0-1
	ErrorLog        string         `gorm:"type:text" json:"error_log,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Candidate  Candidate         `gorm:"foreignKey:CandidateID" json:"candidate"`
	Transcript []TranscriptEntry `gorm:"foreignKey:SessionID" json:"transcript,omitempty"`
	Assessment *Assessment       `gorm:"foreignKey:SessionID" json:"assessment,omitempty"`
}

// Terminal reports whether the session has reached a terminal status.
func (s *ScreeningSession) Terminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionFailed || s.Status == SessionAbandoned
}

// TranscriptEntry stores one utterance of the conversation. Only entries with
// IsFinal set are eligible for scoring; partial recognition results are kept
// for debugging but must never influence an assessment.
type TranscriptEntry struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID  string         `gorm:"type:uuid;not null;index" json:"session_id"`
	TurnOrder  int            `gorm:"not null" json:"turn_order"` // Order of the turn in the conversation
	Speaker    string         `gorm:"not null;check:speaker IN ('candidate', 'interviewer')" json:"speaker"`
	Text       string         `gorm:"type:text" json:"text"`
	Timestamp  time.Time      `gorm:"not null" json:"timestamp"`
	Confidence float64        `json:"confidence,omitempty"` // Transport-reported recognition confidence, 0-1
	IsFinal    bool           `gorm:"not null;default:false" json:"is_final"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session ScreeningSession `gorm:"foreignKey:SessionID" json:"-"`
}
