package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tradescreenhq/tradescreen/backend/models"
	"github.com/tradescreenhq/tradescreen/backend/repository"
)

// EvaluatorStore is the slice of the repository the evaluator depends on.
// *repository.GORMRepository satisfies it; tests substitute an in-memory fake.
type EvaluatorStore interface {
	GetSession(ctx context.Context, sessionID string) (*models.ScreeningSession, error)
	UpdateSession(ctx context.Context, session *models.ScreeningSession) error
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	UpdateCandidateScreeningStatus(ctx context.Context, candidateID, status string) error
	FlagCandidate(ctx context.Context, candidateID, reason string) error
	GetTranscriptEntries(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error)
	GetAssessmentBySession(ctx context.Context, sessionID string) (*models.Assessment, error)
	CreateAssessmentWithOutcome(ctx context.Context, assessment *models.Assessment, candidateStatus string) error
	CreateNotification(ctx context.Context, notification *models.Notification) error
}

// AssessmentEvaluator turns a completed session transcript into exactly one
// assessment record and propagates the outcome to the candidate. Three
// triggers can race for the same session: the automatic exchange-count
// trigger, a manual HR trigger and the vendor webhook. Creation is serialized
// per session id, and the unique index on assessments.session_id backstops
// the serialization at the storage layer.
type AssessmentEvaluator struct {
	store    EvaluatorStore
	lexicons *LexiconStore
	policy   ScoringPolicy

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAssessmentEvaluator(store EvaluatorStore, lexicons *LexiconStore, policy ScoringPolicy) *AssessmentEvaluator {
	return &AssessmentEvaluator{
		store:    store,
		lexicons: lexicons,
		policy:   policy,
		locks:    make(map[string]*sync.Mutex),
	}
}

// EvaluateOptions modify a single evaluation attempt.
type EvaluateOptions struct {
	// Manual marks an explicit HR trigger, which may score a session that the
	// automatic path would not yet consider eligible.
	Manual bool
	// VendorSignal is the voice platform's own success evaluation, applied as
	// a clamp on the computed score. Nil when the vendor reported none.
	VendorSignal *bool
}

// sessionLock returns the mutex serializing evaluation for one session.
func (e *AssessmentEvaluator) sessionLock(sessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[sessionID] = lock
	}
	return lock
}

// EvaluateSession runs the full pipeline: normalize transcript, compute
// sub-scores, blend, decide, persist, propagate, notify. Calling it twice for
// the same session returns repository.ErrDuplicateAssessment on the second
// call, never a second record.
func (e *AssessmentEvaluator) EvaluateSession(ctx context.Context, sessionID string, opts EvaluateOptions) (*models.Assessment, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	candidate, err := e.store.GetCandidate(ctx, session.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("loading candidate: %w", err)
	}
	if candidate == nil {
		return nil, ErrCandidateNotFound
	}

	if session.Status != models.SessionCompleted && !opts.Manual {
		return nil, fmt.Errorf("%w: status %s", ErrSessionNotScorable, session.Status)
	}

	// Fast-path existence check. The unique index on session_id remains the
	// authoritative guard; this just avoids recomputing scores for a session
	// that is already assessed.
	existing, err := e.store.GetAssessmentBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("checking existing assessment: %w", err)
	}
	if existing != nil {
		return existing, repository.ErrDuplicateAssessment
	}

	entries, err := e.store.GetTranscriptEntries(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}

	transcript := NormalizeTranscript(entries)
	if !transcript.HasCandidateResponses() {
		// "No response" is a distinct failure mode from "poor response": no
		// numeric score exists for this session. Leave it for manual review.
		if err := e.store.UpdateCandidateScreeningStatus(ctx, candidate.ID, models.ScreeningPendingReview); err != nil {
			slog.Error("Failed to move candidate to pending review", "error", err, "candidate_id", candidate.ID)
		}
		if err := e.store.FlagCandidate(ctx, candidate.ID, "session had no candidate responses"); err != nil {
			slog.Error("Failed to flag candidate", "error", err, "candidate_id", candidate.ID)
		}
		slog.Warn("Session has no finalized candidate responses, refusing to score",
			"session_id", sessionID, "candidate_id", candidate.ID)
		return nil, ErrInsufficientData
	}

	assessment := e.score(session, candidate, transcript, entries, opts.VendorSignal)

	candidateStatus := models.ScreeningFailed
	if assessment.Passed {
		candidateStatus = models.ScreeningPassed
	}

	if err := e.store.CreateAssessmentWithOutcome(ctx, assessment, candidateStatus); err != nil {
		if errors.Is(err, repository.ErrDuplicateAssessment) {
			// Lost a race we could not see (e.g. another process). Return the
			// winner's record.
			if winner, getErr := e.store.GetAssessmentBySession(ctx, sessionID); getErr == nil && winner != nil {
				return winner, repository.ErrDuplicateAssessment
			}
			return nil, repository.ErrDuplicateAssessment
		}
		return nil, fmt.Errorf("persisting assessment: %w", err)
	}

	e.emitAssessmentNotifications(ctx, assessment, candidate)

	slog.Info("Session evaluated", "session_id", sessionID, "candidate_id", candidate.ID,
		"overall_score", assessment.OverallScore, "passed", assessment.Passed,
		"vendor_signal_applied", assessment.VendorSignalApplied)
	return assessment, nil
}

// score computes every sub-score group and blends them. Pure in-memory work;
// all persistence happens in the caller.
func (e *AssessmentEvaluator) score(session *models.ScreeningSession, candidate *models.Candidate,
	transcript NormalizedTranscript, entries []models.TranscriptEntry, vendorSignal *bool) *models.Assessment {

	lexicon := e.lexicons.Resolve(candidate.TradeCategory)

	technical := TechnicalScore(transcript, lexicon)
	safety := SafetyScore(technical.SafetyHits, candidate.TradeCategory)
	experience := ExperienceScore(transcript)
	communication := CommunicationScore(transcript)
	engagement := CompletionScore(session.Duration, e.policy)

	overall := e.policy.Blend(SubScores{
		Technical:     technical.Score,
		Communication: communication,
		Experience:    experience.Score,
		Engagement:    engagement,
	})
	clampedOverall := e.policy.ApplyVendorSignal(overall, vendorSignal)

	passed := clampedOverall >= e.policy.PassThreshold
	if safety.CriticalFailure {
		// Hard gate: no safety vocabulary in a safety-critical trade fails
		// the screening regardless of the blended score.
		passed = false
	}

	assessment := &models.Assessment{
		SessionID:    session.ID,
		CandidateID:  candidate.ID,
		OverallScore: clampedOverall,
		Passed:       passed,
		Technical: models.TechnicalScores{
			Score:         technical.Score,
			PrimaryHits:   technical.PrimaryHits,
			SecondaryHits: technical.SecondaryHits,
			SafetyHits:    technical.SafetyHits,
		},
		Safety: safety,
		Experience: models.ExperienceScores{
			Score:          experience.Score,
			IndicatorHits:  experience.IndicatorHits,
			AvgAnswerChars: int(transcript.AvgCharsPerTurn),
		},
		Communication: models.CommunicationScores{
			Score:           communication,
			ResponseCount:   transcript.ResponseCount,
			AvgWordsPerTurn: transcript.AvgWordsPerTurn,
			EngagementScore: engagement,
		},
		VoiceMetrics:        DeriveVoiceMetrics(transcript, communication),
		Responses:           PairResponses(entries),
		VendorSignalApplied: vendorSignal != nil,
		CompletedAt:         time.Now(),
	}
	assessment.Insights = GenerateInsights(assessment, candidate.TradeCategory)
	return assessment
}

func (e *AssessmentEvaluator) emitAssessmentNotifications(ctx context.Context, assessment *models.Assessment, candidate *models.Candidate) {
	if assessment.Safety.CriticalFailure {
		e.notify(ctx, &models.Notification{
			Type:        models.NotificationSafetyFailure,
			Priority:    models.PriorityHigh,
			Title:       "Safety screening failure",
			Message:     fmt.Sprintf("%s (%s) showed no safety awareness during the %s screening", candidate.FullName, candidate.Email, candidate.TradeCategory),
			CandidateID: candidate.ID,
			SessionID:   assessment.SessionID,
		})
	}

	if assessment.Passed && assessment.OverallScore >= e.policy.TopPerformerThreshold {
		e.notify(ctx, &models.Notification{
			Type:        models.NotificationTopPerformer,
			Priority:    models.PriorityHigh,
			Title:       "Top performer identified",
			Message:     fmt.Sprintf("%s scored %d on the %s screening", candidate.FullName, assessment.OverallScore, candidate.TradeCategory),
			CandidateID: candidate.ID,
			SessionID:   assessment.SessionID,
		})
		return
	}

	priority := models.PriorityNormal
	if !assessment.Passed {
		priority = models.PriorityLow
	}
	e.notify(ctx, &models.Notification{
		Type:        models.NotificationScreeningCompleted,
		Priority:    priority,
		Title:       "Screening completed",
		Message:     fmt.Sprintf("%s completed screening with score %d (passed: %t)", candidate.FullName, assessment.OverallScore, assessment.Passed),
		CandidateID: candidate.ID,
		SessionID:   assessment.SessionID,
	})
}

// notify is fire-and-forget: notification persistence failures are logged,
// never propagated into the evaluation result.
func (e *AssessmentEvaluator) notify(ctx context.Context, notification *models.Notification) {
	if err := e.store.CreateNotification(ctx, notification); err != nil {
		slog.Error("Failed to emit notification", "error", err, "type", notification.Type)
	}
}

// Session state machine transitions. Terminal transitions stamp EndedAt and
// propagate to the candidate with a per-outcome mapping: abandoned reverts the
// candidate toward invited, failed moves them to pending review. Neither
// triggers automatic scoring.

// StartSession moves created -> active and the candidate to in_progress.
func (e *AssessmentEvaluator) StartSession(ctx context.Context, sessionID string) error {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Terminal() {
		return fmt.Errorf("%w: session already %s", ErrSessionNotScorable, session.Status)
	}
	now := time.Now()
	session.Status = models.SessionActive
	if session.StartedAt == nil {
		session.StartedAt = &now
	}
	if err := e.store.UpdateSession(ctx, session); err != nil {
		return err
	}
	return e.store.UpdateCandidateScreeningStatus(ctx, session.CandidateID, models.ScreeningInProgress)
}

// CompleteSession moves the session to completed and the candidate to
// completed; scoring is a separate step driven by one of the three triggers.
func (e *AssessmentEvaluator) CompleteSession(ctx context.Context, sessionID string) error {
	return e.endSession(ctx, sessionID, models.SessionCompleted, "")
}

// AbandonSession marks a user-initiated exit.
func (e *AssessmentEvaluator) AbandonSession(ctx context.Context, sessionID, reason string) error {
	return e.endSession(ctx, sessionID, models.SessionAbandoned, reason)
}

// FailSession marks a technical failure.
func (e *AssessmentEvaluator) FailSession(ctx context.Context, sessionID, errorLog string) error {
	return e.endSession(ctx, sessionID, models.SessionFailed, errorLog)
}

func (e *AssessmentEvaluator) endSession(ctx context.Context, sessionID, status, detail string) error {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Terminal() {
		// Idempotent: ending an already-terminal session is a no-op.
		return nil
	}

	now := time.Now()
	session.Status = status
	session.EndedAt = &now
	if session.StartedAt != nil {
		session.Duration = int(now.Sub(*session.StartedAt).Seconds())
	}
	if detail != "" && status == models.SessionFailed {
		session.ErrorLog = detail
	}
	if err := e.store.UpdateSession(ctx, session); err != nil {
		return err
	}

	switch status {
	case models.SessionCompleted:
		if err := e.store.UpdateCandidateScreeningStatus(ctx, session.CandidateID, models.ScreeningCompleted); err != nil {
			return err
		}
	case models.SessionAbandoned:
		if err := e.store.UpdateCandidateScreeningStatus(ctx, session.CandidateID, models.ScreeningInvited); err != nil {
			return err
		}
		e.notify(ctx, &models.Notification{
			Type:        models.NotificationSessionAbandoned,
			Priority:    models.PriorityNormal,
			Title:       "Screening abandoned",
			Message:     fmt.Sprintf("Session %s was abandoned: %s", sessionID, detail),
			CandidateID: session.CandidateID,
			SessionID:   sessionID,
		})
	case models.SessionFailed:
		if err := e.store.UpdateCandidateScreeningStatus(ctx, session.CandidateID, models.ScreeningPendingReview); err != nil {
			return err
		}
		e.notify(ctx, &models.Notification{
			Type:        models.NotificationTechnicalIssue,
			Priority:    models.PriorityHigh,
			Title:       "Screening failed",
			Message:     fmt.Sprintf("Session %s failed: %s", sessionID, detail),
			CandidateID: session.CandidateID,
			SessionID:   sessionID,
		})
	}

	slog.Info("Session ended", "session_id", sessionID, "status", status)
	return nil
}
