package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tradescreenhq/tradescreen/backend/models"
	"gorm.io/gorm"
)

// Session operations
func (r *GORMRepository) CreateSession(ctx context.Context, session *models.ScreeningSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create screening session", "error", err)
		return err
	}
	slog.Info("Screening session created", "session_id", session.ID, "candidate_id", session.CandidateID)
	return nil
}

func (r *GORMRepository) GetSession(ctx context.Context, sessionID string) (*models.ScreeningSession, error) {
	var session models.ScreeningSession
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get screening session", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) GetSessionByVendorID(ctx context.Context, vendorSessionID string) (*models.ScreeningSession, error) {
	var session models.ScreeningSession
	if err := r.db.WithContext(ctx).Where("vendor_session_id = ?", vendorSessionID).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get screening session by vendor ID", "error", err, "vendor_session_id", vendorSessionID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) GetSessionWithDetails(ctx context.Context, sessionID string) (*models.ScreeningSession, error) {
	var session models.ScreeningSession
	err := r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		Preload("Candidate").
		Preload("Transcript", func(db *gorm.DB) *gorm.DB { return db.Order("turn_order") }).
		Preload("Assessment").
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get screening session with details", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) GetSessionsByCandidate(ctx context.Context, candidateID string) ([]models.ScreeningSession, error) {
	var sessions []models.ScreeningSession
	err := r.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("created_at DESC").Find(&sessions).Error
	if err != nil {
		slog.Error("Failed to get sessions by candidate", "error", err, "candidate_id", candidateID)
		return nil, err
	}
	return sessions, nil
}

// ListSessionsByStatus returns sessions, optionally filtered by status.
func (r *GORMRepository) ListSessionsByStatus(ctx context.Context, status string) ([]models.ScreeningSession, error) {
	var sessions []models.ScreeningSession
	query := r.db.WithContext(ctx)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&sessions).Error
	if err != nil {
		slog.Error("Failed to list sessions by status", "error", err, "status", status)
		return nil, err
	}
	return sessions, nil
}

func (r *GORMRepository) UpdateSession(ctx context.Context, session *models.ScreeningSession) error {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		slog.Error("Failed to update screening session", "error", err, "session_id", session.ID)
		return err
	}
	return nil
}

// Transcript operations
func (r *GORMRepository) AppendTranscriptEntry(ctx context.Context, entry *models.TranscriptEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		slog.Error("Failed to append transcript entry", "error", err, "session_id", entry.SessionID)
		return err
	}
	slog.Debug("Transcript entry appended", "session_id", entry.SessionID, "turn_order", entry.TurnOrder, "speaker", entry.Speaker)
	return nil
}

func (r *GORMRepository) GetTranscriptEntries(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error) {
	var entries []models.TranscriptEntry
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("turn_order").Find(&entries).Error
	if err != nil {
		slog.Error("Failed to get transcript entries", "error", err, "session_id", sessionID)
		return nil, err
	}
	return entries, nil
}

// CountCandidateExchanges returns the number of finalized candidate turns in a
// session, used by the automatic evaluation trigger.
func (r *GORMRepository) CountCandidateExchanges(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TranscriptEntry{}).
		Where("session_id = ? AND speaker = ? AND is_final = ?", sessionID, models.SpeakerCandidate, true).
		Count(&count).Error
	if err != nil {
		slog.Error("Failed to count candidate exchanges", "error", err, "session_id", sessionID)
		return 0, err
	}
	return count, nil
}

// ReplaceTranscript swaps the session transcript wholesale for the entries
// re-derived from the vendor call summary. The webhook path trusts the
// summary payload over previously streamed entries.
func (r *GORMRepository) ReplaceTranscript(ctx context.Context, sessionID string, entries []models.TranscriptEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("session_id = ?", sessionID).Delete(&models.TranscriptEntry{}).Error; err != nil {
			return fmt.Errorf("failed to clear transcript: %w", err)
		}
		for i := range entries {
			entries[i].SessionID = sessionID
			entries[i].TurnOrder = i
		}
		if len(entries) == 0 {
			return nil
		}
		if err := tx.Create(&entries).Error; err != nil {
			return fmt.Errorf("failed to insert transcript: %w", err)
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to replace transcript", "error", err, "session_id", sessionID)
		return err
	}
	slog.Info("Transcript replaced from vendor summary", "session_id", sessionID, "entry_count", len(entries))
	return nil
}

// Assessment operations

// CreateAssessmentWithOutcome inserts the assessment and advances the
// candidate's screening status in one transaction, so there is no window where
// an assessment exists but the candidate has not moved. A unique-constraint
// violation on session_id is translated to ErrDuplicateAssessment.
func (r *GORMRepository) CreateAssessmentWithOutcome(ctx context.Context, assessment *models.Assessment, candidateStatus string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(assessment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateAssessment
			}
			return err
		}
		now := time.Now()
		if err := tx.Model(&models.Candidate{}).
			Where("id = ?", assessment.CandidateID).
			Updates(map[string]interface{}{"screening_status": candidateStatus, "last_contact_at": now}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateAssessment) {
			slog.Warn("Duplicate assessment rejected", "session_id", assessment.SessionID)
			return ErrDuplicateAssessment
		}
		slog.Error("Failed to create assessment", "error", err, "session_id", assessment.SessionID)
		return err
	}
	slog.Info("Assessment created", "assessment_id", assessment.ID, "session_id", assessment.SessionID,
		"overall_score", assessment.OverallScore, "passed", assessment.Passed)
	return nil
}

func (r *GORMRepository) GetAssessmentBySession(ctx context.Context, sessionID string) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&assessment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get assessment by session", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &assessment, nil
}

func (r *GORMRepository) GetAssessmentsByCandidate(ctx context.Context, candidateID string) ([]models.Assessment, error) {
	var assessments []models.Assessment
	err := r.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("completed_at DESC").Find(&assessments).Error
	if err != nil {
		slog.Error("Failed to get assessments by candidate", "error", err, "candidate_id", candidateID)
		return nil, err
	}
	return assessments, nil
}

// UpdateAssessment persists an HR-initiated manual correction. This is the
// only path that mutates an assessment after creation.
func (r *GORMRepository) UpdateAssessment(ctx context.Context, assessment *models.Assessment) error {
	if err := r.db.WithContext(ctx).Save(assessment).Error; err != nil {
		slog.Error("Failed to update assessment", "error", err, "assessment_id", assessment.ID)
		return err
	}
	slog.Info("Assessment updated", "assessment_id", assessment.ID, "overridden_by", assessment.OverriddenBy)
	return nil
}

// Notification operations
func (r *GORMRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		slog.Error("Failed to create notification", "error", err, "type", notification.Type)
		return err
	}
	slog.Info("Notification created", "notification_id", notification.ID, "type", notification.Type, "priority", notification.Priority)
	return nil
}

func (r *GORMRepository) ListNotifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := r.db.WithContext(ctx)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		slog.Error("Failed to list notifications", "error", err)
		return nil, err
	}
	return notifications, nil
}

func (r *GORMRepository) MarkNotificationRead(ctx context.Context, notificationID string) error {
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Update("read", true).Error; err != nil {
		slog.Error("Failed to mark notification read", "error", err, "notification_id", notificationID)
		return err
	}
	return nil
}

func (r *GORMRepository) AcknowledgeNotification(ctx context.Context, notificationID string) error {
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Updates(map[string]interface{}{"read": true, "acknowledged": true}).Error; err != nil {
		slog.Error("Failed to acknowledge notification", "error", err, "notification_id", notificationID)
		return err
	}
	return nil
}
