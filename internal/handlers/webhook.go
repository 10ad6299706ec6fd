package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/heyfeelings-official/little-microphones/internal/db"
	"github.com/heyfeelings-official/little-microphones/internal/identity"
	"github.com/heyfeelings-official/little-microphones/internal/metrics"
	"github.com/heyfeelings-official/little-microphones/internal/models"
	"github.com/heyfeelings-official/little-microphones/pkg/tasks"
)

type webhookMember struct {
	ID   string `json:"id"`
	Auth struct {
		Email string `json:"email"`
	} `json:"auth"`
	Email           string            `json:"email"`
	CustomFields    map[string]string `json:"customFields"`
	PlanConnections []struct {
		PlanID string `json:"planId"`
	} `json:"planConnections"`
}

type webhookEnvelope struct {
	Type    string          `json:"type"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Payload json.RawMessage `json:"payload"`
}

var errUnknownShape = errors.New("webhook payload matches no known shape")

// parseWebhookEvent extracts the event type and member from a webhook
// body. Known shapes are tried in a fixed order (`type` before
// `event`; member under data.member, then data, then payload); when
// none matches the parse fails closed.
func parseWebhookEvent(body []byte) (string, *models.Member, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", nil, fmt.Errorf("invalid JSON: %w", err)
	}

	eventType := envelope.Type
	if eventType == "" {
		eventType = envelope.Event
	}
	if eventType == "" {
		return "", nil, errUnknownShape
	}

	for _, raw := range [][]byte{envelope.Data, envelope.Payload} {
		if len(raw) == 0 {
			continue
		}

		var wrapped struct {
			Member *webhookMember `json:"member"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Member != nil && wrapped.Member.ID != "" {
			return eventType, toMember(wrapped.Member), nil
		}

		var direct webhookMember
		if err := json.Unmarshal(raw, &direct); err == nil && direct.ID != "" {
			return eventType, toMember(&direct), nil
		}
	}
	return "", nil, errUnknownShape
}

func toMember(wm *webhookMember) *models.Member {
	email := wm.Auth.Email
	if email == "" {
		email = wm.Email
	}
	member := &models.Member{
		ID:     wm.ID,
		Email:  email,
		Name:   wm.CustomFields["name"],
		School: wm.CustomFields["school"],
	}
	for _, pc := range wm.PlanConnections {
		member.PlanIDs = append(member.PlanIDs, pc.PlanID)
	}
	return member
}

// HandleMemberWebhook processes signed identity-provider events. On
// member.created it claims a free lmid, writes the id back to the
// member's metadata, and queues a best-effort contact sync; on
// member.deleted it releases the member's slots back to the pool.
// Metadata and contact failures are reported but never roll back the
// claim.
func (h *Handlers) HandleMemberWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	eventType, member, err := parseWebhookEvent(body)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		respondError(w, http.StatusBadRequest, "Invalid webhook payload", err.Error())
		return
	}

	switch eventType {
	case "member.created":
		h.handleMemberCreated(w, r, member)
	case "member.deleted":
		h.handleMemberDeleted(w, member)
	default:
		// Acknowledge so the provider does not retry events we do
		// not act on.
		metrics.WebhookEvents.WithLabelValues(eventType, "ignored").Inc()
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "ignored": true})
	}
}

func (h *Handlers) handleMemberCreated(w http.ResponseWriter, r *http.Request, member *models.Member) {
	lmid, err := db.ClaimFree(member.ID, member.Email)
	if errors.Is(err, db.ErrPoolExhausted) {
		metrics.Allocations.WithLabelValues("exhausted").Inc()
		metrics.WebhookEvents.WithLabelValues("member.created", "failed").Inc()
		respondError(w, http.StatusServiceUnavailable, "LMID pool exhausted", "no free lmid available, provision more capacity")
		return
	}
	if err != nil {
		metrics.Allocations.WithLabelValues("error").Inc()
		metrics.WebhookEvents.WithLabelValues("member.created", "failed").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to allocate LMID")
		return
	}
	metrics.Allocations.WithLabelValues("claimed").Inc()
	log.Printf("Allocated lmid %d to member %s", lmid.ID, member.ID)

	metadataSynced := false
	if h.identity.Configured() {
		if err := h.writeBackLmid(r, member.ID, lmid.ID); err != nil {
			log.Printf("Failed to write lmid %d back to member %s metadata: %v", lmid.ID, member.ID, err)
		} else {
			metadataSynced = true
		}
	} else {
		log.Println("MEMBERSTACK_API_KEY is not set, skipping metadata write-back")
	}

	if member.Email != "" {
		task, err := tasks.NewSyncContactTask(member.Email, member.Name)
		if err != nil {
			log.Printf("Error creating contact sync task: %v", err)
		} else if _, err := h.asynqClient.Enqueue(task); err != nil {
			log.Printf("Error enqueuing contact sync task: %v", err)
		}
	}

	metrics.WebhookEvents.WithLabelValues("member.created", "processed").Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"lmid":           lmid.ID,
		"shareId":        lmid.ShareID,
		"metadataSynced": metadataSynced,
	})
}

func (h *Handlers) writeBackLmid(r *http.Request, memberID string, lmidID int) error {
	existing, err := h.identity.GetMemberLmids(r.Context(), memberID)
	if err != nil {
		return err
	}
	updated := identity.AppendLmid(existing, lmidID)
	return h.identity.SetMemberLmids(r.Context(), memberID, updated)
}

func (h *Handlers) handleMemberDeleted(w http.ResponseWriter, member *models.Member) {
	released, err := db.ReleaseByMemberID(member.ID)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("member.deleted", "failed").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to release LMIDs")
		return
	}
	log.Printf("Released %d lmids for deleted member %s", released, member.ID)
	metrics.WebhookEvents.WithLabelValues("member.deleted", "processed").Inc()
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "released": released})
}
