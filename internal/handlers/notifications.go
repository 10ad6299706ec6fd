package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/heyfeelings-official/little-microphones/internal/metrics"
	"github.com/heyfeelings-official/little-microphones/pkg/tasks"
)

type notificationRequest struct {
	RecipientEmail   string         `json:"recipientEmail"`
	RecipientName    string         `json:"recipientName"`
	NotificationType string         `json:"notificationType"`
	Language         string         `json:"language"`
	TemplateData     map[string]any `json:"templateData"`
}

// DispatchNotification queues a templated email about a new recording.
// The role and language pair is checked against the template table
// before anything is enqueued.
func (h *Handlers) DispatchNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.RecipientEmail == "" || !strings.Contains(req.RecipientEmail, "@") {
		respondError(w, http.StatusBadRequest, "recipientEmail is required")
		return
	}
	if _, err := h.cfg.TemplateID(req.NotificationType, req.Language); err != nil {
		respondError(w, http.StatusBadRequest, "Unknown notification type or language", err.Error())
		return
	}

	task, err := tasks.NewSendNotificationTask(tasks.SendNotificationTaskPayload{
		RecipientEmail:   req.RecipientEmail,
		RecipientName:    req.RecipientName,
		NotificationType: req.NotificationType,
		Language:         req.Language,
		TemplateData:     req.TemplateData,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create notification task")
		return
	}
	if _, err := h.asynqClient.Enqueue(task); err != nil {
		log.Printf("Error enqueuing notification task: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to queue notification")
		return
	}

	metrics.NotificationsEnqueued.WithLabelValues(req.NotificationType, req.Language).Inc()
	respondJSON(w, http.StatusAccepted, map[string]any{"success": true, "queued": true})
}
