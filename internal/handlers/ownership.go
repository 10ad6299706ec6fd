package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/heyfeelings-official/little-microphones/internal/db"
)

type verifyRequest struct {
	MemberID string `json:"memberId"`
	Lmids    string `json:"lmids"`
}

// VerifyLmids partitions a client-supplied lmid list into owned and
// invalid against the member's actual ownership rows. The owned set is
// always recomputed from the database; the client list is never
// trusted.
func (h *Handlers) VerifyLmids(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.MemberID == "" || req.Lmids == "" {
		respondError(w, http.StatusBadRequest, "memberId and lmids are required")
		return
	}

	ownedIDs, err := db.GetOwnedLmids(req.MemberID)
	if err != nil {
		log.Printf("Error loading owned lmids for member %s: %v", req.MemberID, err)
		respondError(w, http.StatusInternalServerError, "Failed to verify LMID ownership")
		return
	}
	ownedSet := make(map[string]bool, len(ownedIDs))
	for _, id := range ownedIDs {
		ownedSet[strconv.Itoa(id)] = true
	}

	ownedLmids := make([]string, 0)
	invalidLmids := make([]string, 0)
	seen := make(map[string]bool)
	for _, raw := range strings.Split(req.Lmids, ",") {
		candidate := strings.TrimSpace(raw)
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true

		if _, err := strconv.Atoi(candidate); err != nil {
			invalidLmids = append(invalidLmids, candidate)
			continue
		}
		if ownedSet[candidate] {
			ownedLmids = append(ownedLmids, candidate)
		} else {
			invalidLmids = append(invalidLmids, candidate)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"valid":        len(invalidLmids) == 0,
		"ownedLmids":   ownedLmids,
		"invalidLmids": invalidLmids,
	})
}
