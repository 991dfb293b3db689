package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tradescreenhq/tradescreen/backend/models"
	"github.com/tradescreenhq/tradescreen/backend/repository"
	ws "github.com/tradescreenhq/tradescreen/backend/websocket"
)

// WebSocketHandler routes messages from the voice relay into the transcript
// store and the session monitor.
type WebSocketHandler struct {
	repo      *repository.GORMRepository
	monitor   *SessionMonitor
	evaluator *AssessmentEvaluator
}

func NewWebSocketHandler(repo *repository.GORMRepository, monitor *SessionMonitor, evaluator *AssessmentEvaluator) *WebSocketHandler {
	return &WebSocketHandler{
		repo:      repo,
		monitor:   monitor,
		evaluator: evaluator,
	}
}

// HandleConnection begins a live session: the session moves to active and is
// registered for activity tracking.
func (h *WebSocketHandler) HandleConnection(client *ws.Client) {
	ctx := context.Background()
	if err := h.evaluator.StartSession(ctx, client.SessionID); err != nil {
		slog.Error("Failed to start session on connect", "error", err, "session_id", client.SessionID)
		return
	}

	// A reconnecting relay resumes with whatever exchanges already landed.
	exchanges, err := h.repo.CountCandidateExchanges(ctx, client.SessionID)
	if err != nil {
		slog.Error("Failed to count prior exchanges", "error", err, "session_id", client.SessionID)
	}
	h.monitor.RegisterSession(client.SessionID, client.CandidateID, int(exchanges))
	slog.Info("Live session started", "session_id", client.SessionID, "candidate_id", client.CandidateID)
}

// HandleMessage processes one message from the relay.
func (h *WebSocketHandler) HandleMessage(client *ws.Client, messageBytes []byte) {
	var msg ws.Message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		slog.Error("Failed to unmarshal WebSocket message", "error", err, "session_id", client.SessionID)
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case "transcript_entry":
		h.handleTranscriptEntry(ctx, client, msg)
	case "session_end":
		h.monitor.Conclude(ctx, client.SessionID)
	case "session_error":
		h.monitor.Deregister(client.SessionID)
		if err := h.evaluator.FailSession(ctx, client.SessionID, msg.Reason); err != nil {
			slog.Error("Failed to mark session failed", "error", err, "session_id", client.SessionID)
		}
	default:
		slog.Warn("Unknown message type", "type", msg.Type, "session_id", client.SessionID)
	}
}

// HandleDisconnect is called when the relay connection drops without a
// terminal message. The monitor keeps tracking the session; the inactivity
// checker decides between completed and abandoned.
func (h *WebSocketHandler) HandleDisconnect(client *ws.Client) {
	slog.Info("Relay disconnected", "session_id", client.SessionID, "candidate_id", client.CandidateID)
}

func (h *WebSocketHandler) handleTranscriptEntry(ctx context.Context, client *ws.Client, msg ws.Message) {
	if msg.Role != models.SpeakerCandidate && msg.Role != models.SpeakerInterviewer {
		slog.Warn("Transcript entry with unknown role dropped", "role", msg.Role, "session_id", client.SessionID)
		return
	}

	timestamp := time.UnixMilli(msg.Timestamp)
	if msg.Timestamp == 0 {
		timestamp = time.Now()
	}

	entry := models.TranscriptEntry{
		SessionID:  client.SessionID,
		TurnOrder:  msg.TurnOrder,
		Speaker:    msg.Role,
		Text:       msg.Text,
		Timestamp:  timestamp,
		Confidence: msg.Confidence,
		IsFinal:    msg.IsFinal,
	}

	if err := h.repo.AppendTranscriptEntry(ctx, &entry); err != nil {
		slog.Error("Failed to persist transcript entry", "error", err, "session_id", client.SessionID)
		return
	}

	h.monitor.RecordEntry(client.SessionID, entry)
	client.SendAck(msg.TurnOrder)
}
