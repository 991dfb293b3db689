package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tradescreenhq/tradescreen/backend/models"
	"github.com/tradescreenhq/tradescreen/backend/repository"
)

// CandidateEndpoints exposes the candidate roster to the HR dashboard.
type CandidateEndpoints struct {
	repo *repository.GORMRepository
}

type CreateCandidateRequest struct {
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	TradeCategory string `json:"trade_category"`
	Position      string `json:"position"`
}

type UpdateCandidateRequest struct {
	FullName      *string `json:"full_name,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	TradeCategory *string `json:"trade_category,omitempty"`
	Position      *string `json:"position,omitempty"`
}

type FlagCandidateRequest struct {
	Reason string `json:"reason"`
}

type OverrideStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func NewCandidateEndpoints(repo *repository.GORMRepository) *CandidateEndpoints {
	return &CandidateEndpoints{repo: repo}
}

func (e *CandidateEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/candidates", func(r chi.Router) {
		r.Get("/", e.ListCandidatesHandler)
		r.Post("/", e.CreateCandidateHandler)
		r.Get("/{id}", e.GetCandidateHandler)
		r.Put("/{id}", e.UpdateCandidateHandler)
		r.Post("/{id}/flag", e.FlagCandidateHandler)
		r.Post("/{id}/status", e.OverrideStatusHandler)
		r.Get("/{id}/sessions", e.CandidateSessionsHandler)
		r.Get("/{id}/assessments", e.CandidateAssessmentsHandler)
	})
}

func (e *CandidateEndpoints) ListCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	candidates, err := e.repo.ListCandidates(r.Context(), status)
	if err != nil {
		slog.Error("Failed to list candidates", "error", err)
		http.Error(w, "Failed to list candidates", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

func (e *CandidateEndpoints) CreateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.FullName == "" {
		http.Error(w, "email and full_name are required", http.StatusBadRequest)
		return
	}

	tradeCategory := req.TradeCategory
	if tradeCategory == "" {
		tradeCategory = models.TradeGeneral
	}

	candidate := &models.Candidate{
		ID:              uuid.New().String(),
		Email:           req.Email,
		FullName:        req.FullName,
		Phone:           req.Phone,
		TradeCategory:   tradeCategory,
		Position:        req.Position,
		ScreeningStatus: models.ScreeningInvited,
	}

	if err := e.repo.CreateCandidate(r.Context(), candidate); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			http.Error(w, "A candidate with this email already exists", http.StatusConflict)
			return
		}
		slog.Error("Failed to create candidate", "error", err, "email", req.Email)
		http.Error(w, "Failed to create candidate", http.StatusInternalServerError)
		return
	}

	slog.Info("Candidate created", "candidate_id", candidate.ID, "trade", candidate.TradeCategory)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(candidate)
}

func (e *CandidateEndpoints) GetCandidateHandler(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	candidate, err := e.repo.GetCandidate(r.Context(), candidateID)
	if err != nil {
		slog.Error("Failed to get candidate", "error", err, "candidate_id", candidateID)
		http.Error(w, "Failed to get candidate", http.StatusInternalServerError)
		return
	}
	if candidate == nil {
		http.Error(w, "Candidate not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(candidate)
}

func (e *CandidateEndpoints) UpdateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	var req UpdateCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	candidate, err := e.repo.GetCandidate(r.Context(), candidateID)
	if err != nil {
		http.Error(w, "Failed to get candidate", http.StatusInternalServerError)
		return
	}
	if candidate == nil {
		http.Error(w, "Candidate not found", http.StatusNotFound)
		return
	}

	if req.FullName != nil {
		candidate.FullName = *req.FullName
	}
	if req.Phone != nil {
		candidate.Phone = *req.Phone
	}
	if req.TradeCategory != nil {
		candidate.TradeCategory = *req.TradeCategory
	}
	if req.Position != nil {
		candidate.Position = *req.Position
	}

	if err := e.repo.UpdateCandidate(r.Context(), candidate); err != nil {
		slog.Error("Failed to update candidate", "error", err, "candidate_id", candidateID)
		http.Error(w, "Failed to update candidate", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(candidate)
}

// FlagCandidateHandler marks a candidate for manual review. Candidates are
// never hard deleted from the dashboard.
func (e *CandidateEndpoints) FlagCandidateHandler(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	var req FlagCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		http.Error(w, "reason is required", http.StatusBadRequest)
		return
	}

	candidate, err := e.repo.GetCandidate(r.Context(), candidateID)
	if err != nil {
		http.Error(w, "Failed to get candidate", http.StatusInternalServerError)
		return
	}
	if candidate == nil {
		http.Error(w, "Candidate not found", http.StatusNotFound)
		return
	}

	if err := e.repo.FlagCandidate(r.Context(), candidateID, req.Reason); err != nil {
		slog.Error("Failed to flag candidate", "error", err, "candidate_id", candidateID)
		http.Error(w, "Failed to flag candidate", http.StatusInternalServerError)
		return
	}

	slog.Info("Candidate flagged", "candidate_id", candidateID, "reason", req.Reason)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Candidate flagged for review",
	})
}

// OverrideStatusHandler lets HR move a candidate to any screening status
// directly. This is the only path that bypasses the session state machine.
func (e *CandidateEndpoints) OverrideStatusHandler(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	var req OverrideStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !validScreeningStatus(req.Status) {
		http.Error(w, "Invalid screening status", http.StatusBadRequest)
		return
	}

	candidate, err := e.repo.GetCandidate(r.Context(), candidateID)
	if err != nil {
		http.Error(w, "Failed to get candidate", http.StatusInternalServerError)
		return
	}
	if candidate == nil {
		http.Error(w, "Candidate not found", http.StatusNotFound)
		return
	}

	if err := e.repo.UpdateCandidateScreeningStatus(r.Context(), candidateID, req.Status); err != nil {
		slog.Error("Failed to override screening status", "error", err, "candidate_id", candidateID)
		http.Error(w, "Failed to update status", http.StatusInternalServerError)
		return
	}

	user, _ := UserFromContext(r.Context())
	userID := ""
	if user != nil {
		userID = user.ID
	}
	slog.Info("Screening status overridden",
		"candidate_id", candidateID,
		"status", req.Status,
		"reason", req.Reason,
		"user_id", userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Screening status updated",
		"status":  req.Status,
	})
}

func (e *CandidateEndpoints) CandidateSessionsHandler(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	sessions, err := e.repo.GetSessionsByCandidate(r.Context(), candidateID)
	if err != nil {
		slog.Error("Failed to list sessions", "error", err, "candidate_id", candidateID)
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (e *CandidateEndpoints) CandidateAssessmentsHandler(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	assessments, err := e.repo.GetAssessmentsByCandidate(r.Context(), candidateID)
	if err != nil {
		slog.Error("Failed to list assessments", "error", err, "candidate_id", candidateID)
		http.Error(w, "Failed to list assessments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"assessments": assessments,
		"count":       len(assessments),
	})
}

func validScreeningStatus(status string) bool {
	switch status {
	case models.ScreeningInvited, models.ScreeningInProgress, models.ScreeningCompleted,
		models.ScreeningPassed, models.ScreeningFailed, models.ScreeningPendingReview:
		return true
	}
	return false
}
