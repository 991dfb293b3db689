package services

import (
	"context"
	"testing"
	"time"

	"github.com/tradescreenhq/tradescreen/backend/models"
)

func testMonitorConfig() MonitorConfig {
	return MonitorConfig{
		// Keep the background checker out of the way; these tests drive the
		// monitor directly.
		InactivityTimeout:    time.Hour,
		CheckInterval:        time.Hour,
		AutoTriggerExchanges: 3,
	}
}

func TestMonitorCountsCandidateExchanges(t *testing.T) {
	store := newFakeStore()
	sessionID, candidateID := seedScenario(store, models.TradeConstruction, models.SessionActive, 0, nil)
	monitor := NewSessionMonitor(newTestEvaluator(store), testMonitorConfig())
	defer monitor.Stop()

	monitor.RegisterSession(sessionID, candidateID, 0)

	monitor.RecordEntry(sessionID, entry(0, models.SpeakerInterviewer, "question", true))
	monitor.RecordEntry(sessionID, entry(1, models.SpeakerCandidate, "interim", false))
	monitor.RecordEntry(sessionID, entry(1, models.SpeakerCandidate, "final answer", true))
	monitor.RecordEntry(sessionID, entry(2, models.SpeakerCandidate, "another answer", true))

	monitor.mutex.RLock()
	session := monitor.activeSessions[sessionID]
	monitor.mutex.RUnlock()

	// Interviewer turns and interim results never count.
	if session.ExchangeCount != 2 {
		t.Errorf("ExchangeCount = %d, expected 2", session.ExchangeCount)
	}
}

func TestMonitorConcludeEvaluates(t *testing.T) {
	store := newFakeStore()
	sessionID, candidateID := seedScenario(store, models.TradeConstruction, models.SessionActive, 0, nil)
	store.transcripts[sessionID] = strongConstructionTranscript()
	monitor := NewSessionMonitor(newTestEvaluator(store), testMonitorConfig())
	defer monitor.Stop()

	monitor.RegisterSession(sessionID, candidateID, 0)
	for _, e := range strongConstructionTranscript() {
		monitor.RecordEntry(sessionID, e)
	}

	monitor.Conclude(context.Background(), sessionID)

	session, _ := store.GetSession(context.Background(), sessionID)
	if session.Status != models.SessionCompleted {
		t.Errorf("session status = %q, expected completed", session.Status)
	}
	if len(store.assessments) != 1 {
		t.Fatalf("assessments = %d, expected the concluded session to be scored", len(store.assessments))
	}
	if got := store.candidateStatus(candidateID); got != models.ScreeningPassed {
		t.Errorf("candidate status = %q, expected %q", got, models.ScreeningPassed)
	}

	// Conclude deregisters; a second call is a no-op.
	monitor.Conclude(context.Background(), sessionID)
	if len(store.assessments) != 1 {
		t.Error("second Conclude must not create another assessment")
	}
}

func TestMonitorThresholdDefault(t *testing.T) {
	monitor := NewSessionMonitor(newTestEvaluator(newFakeStore()), MonitorConfig{
		InactivityTimeout: time.Hour,
		CheckInterval:     time.Hour,
	})
	defer monitor.Stop()

	if got := monitor.threshold(); got != 6 {
		t.Errorf("threshold() = %d, expected default 6", got)
	}
}
