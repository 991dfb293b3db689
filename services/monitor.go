package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tradescreenhq/tradescreen/backend/models"
	"github.com/tradescreenhq/tradescreen/backend/repository"
)

// SessionMonitor tracks live screening sessions in memory. It drives two
// parts of the state machine: the automatic evaluation trigger once enough
// candidate exchanges accumulate, and the abandoned/completed decision when a
// session goes silent.
type SessionMonitor struct {
	evaluator *AssessmentEvaluator
	config    MonitorConfig

	activeSessions map[string]*ActiveSession
	mutex          sync.RWMutex
	stop           chan struct{}
	stopOnce       sync.Once
}

type ActiveSession struct {
	SessionID    string
	CandidateID  string
	LastActivity time.Time
	// ExchangeCount counts finalized candidate turns seen so far.
	ExchangeCount int
}

func NewSessionMonitor(evaluator *AssessmentEvaluator, config MonitorConfig) *SessionMonitor {
	monitor := &SessionMonitor{
		evaluator:      evaluator,
		config:         config,
		activeSessions: make(map[string]*ActiveSession),
		stop:           make(chan struct{}),
	}
	go monitor.run()
	return monitor
}

// RegisterSession starts tracking a live session. exchangeCount seeds the
// counter with already-persisted candidate turns, so a relay reconnect resumes
// where the interview left off instead of resetting the automatic trigger.
func (m *SessionMonitor) RegisterSession(sessionID, candidateID string, exchangeCount int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.activeSessions[sessionID] = &ActiveSession{
		SessionID:     sessionID,
		CandidateID:   candidateID,
		LastActivity:  time.Now(),
		ExchangeCount: exchangeCount,
	}
	slog.Info("Session registered for activity tracking",
		"session_id", sessionID, "candidate_id", candidateID, "exchange_count", exchangeCount)
}

// RecordEntry notes transcript activity. Only finalized candidate turns count
// toward the automatic evaluation trigger.
func (m *SessionMonitor) RecordEntry(sessionID string, entry models.TranscriptEntry) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	session, exists := m.activeSessions[sessionID]
	if !exists {
		return
	}
	session.LastActivity = time.Now()
	if entry.Speaker == models.SpeakerCandidate && entry.IsFinal {
		session.ExchangeCount++
		slog.Debug("Candidate exchange recorded", "session_id", sessionID, "exchange_count", session.ExchangeCount)
	}
}

// Deregister removes a session from tracking without concluding it, for
// sessions ended through an explicit path.
func (m *SessionMonitor) Deregister(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.activeSessions, sessionID)
}

// Conclude finalizes a session immediately: completes it and, when it has
// any candidate exchanges, evaluates it.
func (m *SessionMonitor) Conclude(ctx context.Context, sessionID string) {
	m.mutex.RLock()
	session, exists := m.activeSessions[sessionID]
	m.mutex.RUnlock()
	if !exists {
		slog.Warn("Conclude called for untracked session", "session_id", sessionID)
		return
	}
	m.finalize(ctx, session, true)
}

// Stop terminates the background checker.
func (m *SessionMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *SessionMonitor) run() {
	interval := m.config.CheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkInactive()
		case <-m.stop:
			return
		}
	}
}

func (m *SessionMonitor) checkInactive() {
	timeout := m.config.InactivityTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	m.mutex.RLock()
	now := time.Now()
	var inactive []*ActiveSession
	for _, session := range m.activeSessions {
		if now.Sub(session.LastActivity) > timeout {
			inactive = append(inactive, session)
		}
	}
	m.mutex.RUnlock()

	for _, session := range inactive {
		slog.Info("Session inactive", "session_id", session.SessionID,
			"exchange_count", session.ExchangeCount, "inactive_for", now.Sub(session.LastActivity))
		// Enough exchanges plus silence means the interview ran its course;
		// a handful of exchanges plus silence means the candidate walked away.
		m.finalize(context.Background(), session, session.ExchangeCount >= m.threshold())
	}
}

func (m *SessionMonitor) threshold() int {
	if m.config.AutoTriggerExchanges <= 0 {
		return 6
	}
	return m.config.AutoTriggerExchanges
}

func (m *SessionMonitor) finalize(ctx context.Context, session *ActiveSession, scorable bool) {
	defer m.Deregister(session.SessionID)

	if !scorable {
		if err := m.evaluator.AbandonSession(ctx, session.SessionID, "no activity before reaching minimum exchanges"); err != nil {
			slog.Error("Failed to abandon inactive session", "error", err, "session_id", session.SessionID)
		}
		return
	}

	if err := m.evaluator.CompleteSession(ctx, session.SessionID); err != nil {
		slog.Error("Failed to complete session", "error", err, "session_id", session.SessionID)
		return
	}

	_, err := m.evaluator.EvaluateSession(ctx, session.SessionID, EvaluateOptions{})
	switch {
	case err == nil:
		slog.Info("Automatic evaluation completed", "session_id", session.SessionID)
	case errors.Is(err, repository.ErrDuplicateAssessment):
		// Another trigger won the race; nothing to do.
		slog.Info("Session already assessed", "session_id", session.SessionID)
	case errors.Is(err, ErrInsufficientData):
		slog.Warn("Session completed without scorable responses", "session_id", session.SessionID)
	default:
		slog.Error("Automatic evaluation failed", "error", err, "session_id", session.SessionID)
	}
}
