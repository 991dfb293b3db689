package services

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tradescreenhq/tradescreen/backend/models"
	"github.com/tradescreenhq/tradescreen/backend/repository"
)

// SessionEndpoints exposes session lifecycle, assessments and the vendor
// webhook. Everything except the webhook sits behind the auth middleware.
type SessionEndpoints struct {
	repo          *repository.GORMRepository
	evaluator     *AssessmentEvaluator
	vendor        *VendorService
	webhookSecret string
}

type CreateSessionRequest struct {
	CandidateID string `json:"candidate_id"`
}

type EvaluateRequest struct {
	// Vendor success signal supplied by an operator replaying a webhook, if
	// any. Normally absent for manual triggers.
	VendorSignal *bool `json:"vendor_signal,omitempty"`
}

type OverrideAssessmentRequest struct {
	OverallScore *int   `json:"overall_score,omitempty"`
	Passed       *bool  `json:"passed,omitempty"`
	Reason       string `json:"reason"`
}

// VendorWebhookRequest is the call-completed event body. The payload only
// identifies the call; the authoritative transcript is fetched back from the
// vendor API rather than trusted from the event.
type VendorWebhookRequest struct {
	VendorSessionID string `json:"vendor_session_id"`
	Event           string `json:"event,omitempty"`
}

func NewSessionEndpoints(repo *repository.GORMRepository, evaluator *AssessmentEvaluator, vendor *VendorService, webhookSecret string) *SessionEndpoints {
	return &SessionEndpoints{
		repo:          repo,
		evaluator:     evaluator,
		vendor:        vendor,
		webhookSecret: webhookSecret,
	}
}

func (e *SessionEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", e.ListSessionsHandler)
		r.Post("/", e.CreateSessionHandler)
		r.Get("/{id}", e.GetSessionHandler)
		r.Get("/{id}/transcript", e.GetTranscriptHandler)
		r.Post("/{id}/evaluate", e.EvaluateSessionHandler)
		r.Get("/{id}/assessment", e.GetAssessmentHandler)
		r.Post("/{id}/assessment/override", e.OverrideAssessmentHandler)
	})
}

// RegisterWebhookRoutes mounts the unauthenticated vendor callback. It is
// verified by a shared secret instead of a bearer token.
func (e *SessionEndpoints) RegisterWebhookRoutes(r chi.Router) {
	r.Post("/webhooks/vendor/call-completed", e.VendorWebhookHandler)
}

func (e *SessionEndpoints) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	sessions, err := e.repo.ListSessionsByStatus(r.Context(), status)
	if err != nil {
		slog.Error("Failed to list sessions", "error", err)
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (e *SessionEndpoints) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CandidateID == "" {
		http.Error(w, "candidate_id is required", http.StatusBadRequest)
		return
	}

	candidate, err := e.repo.GetCandidate(r.Context(), req.CandidateID)
	if err != nil {
		http.Error(w, "Failed to get candidate", http.StatusInternalServerError)
		return
	}
	if candidate == nil {
		http.Error(w, "Candidate not found", http.StatusNotFound)
		return
	}

	session := &models.ScreeningSession{
		ID:          uuid.New().String(),
		CandidateID: candidate.ID,
		Status:      models.SessionCreated,
	}
	if err := e.repo.CreateSession(r.Context(), session); err != nil {
		slog.Error("Failed to create session", "error", err, "candidate_id", candidate.ID)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	slog.Info("Session created", "session_id", session.ID, "candidate_id", candidate.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session)
}

func (e *SessionEndpoints) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	session, err := e.repo.GetSessionWithDetails(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to get session", "error", err, "session_id", sessionID)
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

func (e *SessionEndpoints) GetTranscriptHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	session, err := e.repo.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	entries, err := e.repo.GetTranscriptEntries(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to get transcript", "error", err, "session_id", sessionID)
		http.Error(w, "Failed to get transcript", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"transcript": entries,
		"count":      len(entries),
	})
}

// EvaluateSessionHandler is the manual trigger: HR forces an assessment for a
// session the automatic path has not scored. A duplicate trigger returns the
// existing assessment with 409 rather than creating a second record.
func (e *SessionEndpoints) EvaluateSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req EvaluateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	assessment, err := e.evaluator.EvaluateSession(r.Context(), sessionID, EvaluateOptions{
		Manual:       true,
		VendorSignal: req.VendorSignal,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			http.Error(w, "Session not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrDuplicateAssessment):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"message":    "Session already assessed",
				"assessment": assessment,
			})
		case errors.Is(err, ErrInsufficientData):
			http.Error(w, "Session has no candidate responses to score", http.StatusUnprocessableEntity)
		case errors.Is(err, ErrSessionNotScorable):
			http.Error(w, "Session is not in a scorable state", http.StatusConflict)
		default:
			slog.Error("Manual evaluation failed", "error", err, "session_id", sessionID)
			http.Error(w, "Evaluation failed", http.StatusInternalServerError)
		}
		return
	}

	user, _ := UserFromContext(r.Context())
	userID := ""
	if user != nil {
		userID = user.ID
	}
	slog.Info("Manual evaluation triggered", "session_id", sessionID, "user_id", userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(assessment)
}

func (e *SessionEndpoints) GetAssessmentHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	assessment, err := e.repo.GetAssessmentBySession(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to get assessment", "error", err, "session_id", sessionID)
		http.Error(w, "Failed to get assessment", http.StatusInternalServerError)
		return
	}
	if assessment == nil {
		http.Error(w, "No assessment for this session", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assessment)
}

// OverrideAssessmentHandler lets HR correct an assessment outcome after
// review. The override is recorded on the assessment and propagated to the
// candidate's screening status.
func (e *SessionEndpoints) OverrideAssessmentHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req OverrideAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.OverallScore == nil && req.Passed == nil {
		http.Error(w, "Nothing to override", http.StatusBadRequest)
		return
	}
	if req.OverallScore != nil && (*req.OverallScore < 0 || *req.OverallScore > 100) {
		http.Error(w, "overall_score must be between 0 and 100", http.StatusBadRequest)
		return
	}

	assessment, err := e.repo.GetAssessmentBySession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Failed to get assessment", http.StatusInternalServerError)
		return
	}
	if assessment == nil {
		http.Error(w, "No assessment for this session", http.StatusNotFound)
		return
	}

	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	if req.OverallScore != nil {
		assessment.OverallScore = *req.OverallScore
	}
	if req.Passed != nil {
		assessment.Passed = *req.Passed
	}
	now := time.Now()
	assessment.OverriddenBy = user.ID
	assessment.OverriddenAt = &now

	if err := e.repo.UpdateAssessment(r.Context(), assessment); err != nil {
		slog.Error("Failed to override assessment", "error", err, "session_id", sessionID)
		http.Error(w, "Failed to override assessment", http.StatusInternalServerError)
		return
	}

	candidateStatus := models.ScreeningFailed
	if assessment.Passed {
		candidateStatus = models.ScreeningPassed
	}
	if err := e.repo.UpdateCandidateScreeningStatus(r.Context(), assessment.CandidateID, candidateStatus); err != nil {
		slog.Error("Failed to propagate override to candidate", "error", err, "candidate_id", assessment.CandidateID)
	}

	slog.Info("Assessment overridden", "session_id", sessionID, "user_id", user.ID,
		"overall_score", assessment.OverallScore, "passed", assessment.Passed, "reason", req.Reason)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assessment)
}

// VendorWebhookHandler handles the vendor's call-completed callback. The
// event only names the call; the transcript, recording and success signal are
// fetched back from the vendor API and replace anything streamed live, then
// the session is finalized and evaluated with the vendor signal as a clamp.
func (e *SessionEndpoints) VendorWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if e.webhookSecret == "" {
		slog.Error("Vendor webhook rejected, no webhook secret configured")
		http.Error(w, "Webhook not configured", http.StatusServiceUnavailable)
		return
	}
	provided := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(e.webhookSecret)) != 1 {
		http.Error(w, "Invalid webhook secret", http.StatusUnauthorized)
		return
	}

	var req VendorWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VendorSessionID == "" {
		http.Error(w, "vendor_session_id is required", http.StatusBadRequest)
		return
	}

	session, err := e.repo.GetSessionByVendorID(r.Context(), req.VendorSessionID)
	if err != nil {
		http.Error(w, "Failed to look up session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		// Unknown calls are acknowledged so the vendor stops retrying.
		slog.Warn("Webhook for unknown vendor session", "vendor_session_id", req.VendorSessionID)
		w.WriteHeader(http.StatusOK)
		return
	}

	callData, err := e.vendor.FetchCallData(r.Context(), req.VendorSessionID)
	if err != nil {
		slog.Error("Failed to fetch vendor call data", "error", err, "vendor_session_id", req.VendorSessionID)
		http.Error(w, "Failed to fetch call data", http.StatusBadGateway)
		return
	}

	for i := range callData.Transcript {
		callData.Transcript[i].SessionID = session.ID
	}
	if err := e.repo.ReplaceTranscript(r.Context(), session.ID, callData.Transcript); err != nil {
		slog.Error("Failed to replace transcript", "error", err, "session_id", session.ID)
		http.Error(w, "Failed to store transcript", http.StatusInternalServerError)
		return
	}

	session.RecordingURL = callData.RecordingURL
	if callData.DurationSecs > 0 {
		session.Duration = callData.DurationSecs
	}
	if err := e.repo.UpdateSession(r.Context(), session); err != nil {
		slog.Error("Failed to update session from webhook", "error", err, "session_id", session.ID)
	}

	if !session.Terminal() {
		if err := e.evaluator.CompleteSession(r.Context(), session.ID); err != nil {
			slog.Error("Failed to complete session from webhook", "error", err, "session_id", session.ID)
			http.Error(w, "Failed to finalize session", http.StatusInternalServerError)
			return
		}
	}

	assessment, err := e.evaluator.EvaluateSession(r.Context(), session.ID, EvaluateOptions{
		VendorSignal: callData.SuccessSignal,
	})
	switch {
	case err == nil:
		slog.Info("Webhook evaluation completed", "session_id", session.ID,
			"overall_score", assessment.OverallScore, "passed", assessment.Passed)
	case errors.Is(err, repository.ErrDuplicateAssessment):
		// Another trigger won the race. The webhook is still a success.
		slog.Info("Webhook found session already assessed", "session_id", session.ID)
	case errors.Is(err, ErrInsufficientData):
		slog.Warn("Webhook transcript had no candidate responses", "session_id", session.ID)
	default:
		slog.Error("Webhook evaluation failed", "error", err, "session_id", session.ID)
		http.Error(w, "Evaluation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Call processed",
	})
}
