package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tradescreenhq/tradescreen/backend/repository"
)

// NotificationEndpoints serves the HR alert feed.
type NotificationEndpoints struct {
	repo *repository.GORMRepository
}

func NewNotificationEndpoints(repo *repository.GORMRepository) *NotificationEndpoints {
	return &NotificationEndpoints{repo: repo}
}

func (e *NotificationEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", e.ListNotificationsHandler)
		r.Post("/{id}/read", e.MarkReadHandler)
		r.Post("/{id}/acknowledge", e.AcknowledgeHandler)
	})
}

func (e *NotificationEndpoints) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := e.repo.ListNotifications(r.Context(), unreadOnly)
	if err != nil {
		slog.Error("Failed to list notifications", "error", err)
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

func (e *NotificationEndpoints) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "id")

	if err := e.repo.MarkNotificationRead(r.Context(), notificationID); err != nil {
		slog.Error("Failed to mark notification read", "error", err, "notification_id", notificationID)
		http.Error(w, "Failed to mark notification read", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Notification marked read",
	})
}

// AcknowledgeHandler records that HR acted on a high-priority alert, e.g. a
// safety failure.
func (e *NotificationEndpoints) AcknowledgeHandler(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "id")

	if err := e.repo.AcknowledgeNotification(r.Context(), notificationID); err != nil {
		slog.Error("Failed to acknowledge notification", "error", err, "notification_id", notificationID)
		http.Error(w, "Failed to acknowledge notification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Notification acknowledged",
	})
}
