package models

import "time"

// LMID is one row of the pre-provisioned recording-slot pool.
// Rows are never deleted; releasing a slot resets it to free.
type LMID struct {
	ID                 int        `db:"id"`
	Status             string     `db:"status"`
	AssignedToMemberID *string    `db:"assigned_to_member_id"`
	AssignedEmail      *string    `db:"assigned_email"`
	ShareID            string     `db:"share_id"`
	AssignedAt         *time.Time `db:"assigned_at"`
	CreatedAt          time.Time  `db:"created_at"`
}
