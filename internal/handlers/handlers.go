package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/heyfeelings-official/little-microphones/internal/config"
	"github.com/heyfeelings-official/little-microphones/internal/identity"
	"github.com/heyfeelings-official/little-microphones/internal/playlist"
	"github.com/heyfeelings-official/little-microphones/internal/storage"
	"github.com/heyfeelings-official/little-microphones/pkg/tasks"
)

type Handlers struct {
	cfg         *config.Config
	asynqClient tasks.TaskEnqueuer
	storage     *storage.Client
	identity    *identity.Client
	builder     *playlist.Builder
}

func New(cfg *config.Config, asynqClient tasks.TaskEnqueuer, storageClient *storage.Client, identityClient *identity.Client) *Handlers {
	return &Handlers{
		cfg:         cfg,
		asynqClient: asynqClient,
		storage:     storageClient,
		identity:    identityClient,
		builder:     playlist.NewBuilder(cfg.BunnyCDNHost),
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, details ...string) {
	body := map[string]any{
		"success": false,
		"error":   message,
	}
	if len(details) > 0 {
		body["details"] = details[0]
	}
	respondJSON(w, status, body)
}
