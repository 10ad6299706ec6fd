package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/heyfeelings-official/little-microphones/internal/models"
)

const (
	StatusFree = "free"
	StatusUsed = "used"
)

// ErrPoolExhausted is returned when no free lmid row exists, so the
// caller can distinguish capacity exhaustion from other failures.
var ErrPoolExhausted = errors.New("no free lmid available")

// maxClaimAttempts bounds the retry loop when concurrent allocations
// race for the same candidate row.
const maxClaimAttempts = 5

// ClaimFree assigns the lowest-numbered free lmid to the member.
// The claim is a conditional update: it only succeeds if the row is
// still free at write time. A lost race moves on to the next candidate.
func ClaimFree(memberID, email string) (*models.LMID, error) {
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		lmid := models.LMID{}
		err := DB.Get(&lmid, `SELECT * FROM lmids WHERE status = 'free' ORDER BY id LIMIT 1`)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolExhausted
		}
		if err != nil {
			log.Printf("Error selecting free lmid: %v", err)
			return nil, err
		}

		res, err := DB.Exec(`
			UPDATE lmids
			SET status = 'used', assigned_to_member_id = $1, assigned_email = $2, assigned_at = NOW()
			WHERE id = $3 AND status = 'free'
		`, memberID, email, lmid.ID)
		if err != nil {
			log.Printf("Error claiming lmid %d for member %s: %v", lmid.ID, memberID, err)
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// Another request claimed this row first.
			continue
		}

		lmid.Status = StatusUsed
		lmid.AssignedToMemberID = &memberID
		lmid.AssignedEmail = &email
		return &lmid, nil
	}
	return nil, fmt.Errorf("could not claim a free lmid after %d attempts", maxClaimAttempts)
}

// GetOwnedLmids returns the ids of every lmid currently assigned to
// the member, lowest first.
func GetOwnedLmids(memberID string) ([]int, error) {
	var ids []int
	err := DB.Select(&ids, `SELECT id FROM lmids WHERE assigned_to_member_id = $1 AND status = 'used' ORDER BY id`, memberID)
	if err != nil {
		log.Printf("Error getting lmids for member %s: %v", memberID, err)
		return nil, err
	}
	return ids, nil
}

// GetByShareID resolves a public share token to its lmid row.
func GetByShareID(shareID string) (models.LMID, error) {
	lmid := models.LMID{}
	err := DB.Get(&lmid, `SELECT * FROM lmids WHERE share_id = $1`, shareID)
	return lmid, err
}

// ReleaseByMemberID resets every lmid owned by the member back to the
// free pool. Rows are never deleted, only status-reset.
func ReleaseByMemberID(memberID string) (int64, error) {
	res, err := DB.Exec(`
		UPDATE lmids
		SET status = 'free', assigned_to_member_id = NULL, assigned_email = NULL, assigned_at = NULL
		WHERE assigned_to_member_id = $1
	`, memberID)
	if err != nil {
		log.Printf("Error releasing lmids for member %s: %v", memberID, err)
		return 0, err
	}
	return res.RowsAffected()
}

// CountFree reports how many lmids remain in the free pool.
func CountFree() (int, error) {
	var count int
	err := DB.Get(&count, `SELECT COUNT(*) FROM lmids WHERE status = 'free'`)
	return count, err
}

// ProvisionFree bulk-inserts count new free rows, each with a fresh
// share token. Returns the number of rows created.
func ProvisionFree(count int) (int, error) {
	created := 0
	for i := 0; i < count; i++ {
		shareID := NewShareID()
		_, err := DB.Exec(`INSERT INTO lmids (status, share_id) VALUES ('free', $1)`, shareID)
		if err != nil {
			log.Printf("Error provisioning lmid row: %v", err)
			return created, err
		}
		created++
	}
	return created, nil
}

// NewShareID generates an opaque short token for parent share links.
func NewShareID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
