package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/heyfeelings-official/little-microphones/internal/config"
	"github.com/heyfeelings-official/little-microphones/internal/contacts"
	"github.com/heyfeelings-official/little-microphones/internal/db"
	"github.com/heyfeelings-official/little-microphones/pkg/tasks"
)

type TaskHandler struct {
	cfg      *config.Config
	contacts *contacts.Client
}

func NewTaskHandler(cfg *config.Config, contactsClient *contacts.Client) *TaskHandler {
	return &TaskHandler{cfg: cfg, contacts: contactsClient}
}

// HandleSyncContactTask mirrors a member into the marketing service.
// Allocation already happened by the time this runs; failures here
// only delay the contact record, never the member's lmid.
func (h *TaskHandler) HandleSyncContactTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.SyncContactTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	if !h.contacts.Configured() {
		log.Println("BREVO_API_KEY is not set, skipping contact sync")
		return nil
	}

	if err := h.contacts.EnsureContact(ctx, p.Email, p.Name); err != nil {
		return fmt.Errorf("failed to sync contact %s: %w", p.Email, err)
	}

	log.Printf("Synced contact %s", p.Email)
	return nil
}

// HandleSendNotificationTask ensures the recipient exists as a contact
// and sends the transactional template for their role and language.
func (h *TaskHandler) HandleSendNotificationTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.SendNotificationTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	templateID, err := h.cfg.TemplateID(p.NotificationType, p.Language)
	if err != nil {
		// Validated at enqueue time; a mismatch here means the
		// template table changed underneath the queue. Not retryable.
		log.Printf("Dropping notification for %s: %v", p.RecipientEmail, err)
		return nil
	}

	if !h.contacts.Configured() {
		log.Println("BREVO_API_KEY is not set, skipping notification")
		return nil
	}

	// Best effort; a marketing outage on the contact side must not
	// block the email itself.
	if err := h.contacts.EnsureContact(ctx, p.RecipientEmail, p.RecipientName); err != nil {
		log.Printf("Failed to ensure contact %s before notification: %v", p.RecipientEmail, err)
	}

	if err := h.contacts.SendTemplateEmail(ctx, templateID, p.RecipientEmail, p.RecipientName, p.TemplateData); err != nil {
		return fmt.Errorf("failed to send notification to %s: %w", p.RecipientEmail, err)
	}

	log.Printf("Sent %s/%s notification to %s (template %d)", p.NotificationType, p.Language, p.RecipientEmail, templateID)
	return nil
}

// HandleAuditPoolTask logs the free-pool size and warns when capacity
// runs low, so exhaustion is visible before allocations start failing.
func (h *TaskHandler) HandleAuditPoolTask(ctx context.Context, t *asynq.Task) error {
	free, err := db.CountFree()
	if err != nil {
		return fmt.Errorf("failed to count free lmids: %w", err)
	}

	if free < h.cfg.FreePoolWarnThreshold {
		log.Printf("WARNING: only %d free lmids left (threshold %d), provision more capacity", free, h.cfg.FreePoolWarnThreshold)
	} else {
		log.Printf("LMID pool audit: %d free", free)
	}
	return nil
}
