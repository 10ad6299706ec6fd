package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"

	"github.com/heyfeelings-official/little-microphones/internal/db"
)

// AdminKeyHeader authorizes pool-provisioning requests.
const AdminKeyHeader = "X-Admin-Key"

const maxProvisionBatch = 1000

type provisionRequest struct {
	Count int `json:"count"`
}

// ProvisionLmids bulk-creates free pool rows, each with a fresh share
// token. This is the capacity remedy for pool exhaustion.
func (h *Handlers) ProvisionLmids(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AdminAPIKey == "" {
		respondError(w, http.StatusInternalServerError, "ADMIN_API_KEY is not configured")
		return
	}
	key := r.Header.Get(AdminKeyHeader)
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.cfg.AdminAPIKey)) != 1 {
		respondError(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Count < 1 || req.Count > maxProvisionBatch {
		respondError(w, http.StatusBadRequest, "count must be between 1 and 1000")
		return
	}

	created, err := db.ProvisionFree(req.Count)
	if err != nil {
		log.Printf("Error provisioning lmid pool: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to provision LMID pool")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "created": created})
}
