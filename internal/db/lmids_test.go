package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}

	originalDB := DB
	DB = sqlx.NewDb(mockDb, "sqlmock")
	t.Cleanup(func() {
		DB = originalDB
		mockDb.Close()
	})
	return mock
}

func freeLmidRows(id int, shareID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "status", "assigned_to_member_id", "assigned_email", "share_id", "assigned_at", "created_at"}).
		AddRow(id, StatusFree, nil, nil, shareID, nil, time.Now())
}

func TestClaimFree(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM lmids WHERE status = 'free' ORDER BY id LIMIT 1`).
		WillReturnRows(freeLmidRows(38, "a1b2c3d4e5f6"))
	mock.ExpectExec(`UPDATE lmids`).
		WithArgs("mem_123", "teacher@example.com", 38).
		WillReturnResult(sqlmock.NewResult(0, 1))

	lmid, err := ClaimFree("mem_123", "teacher@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 38, lmid.ID)
	assert.Equal(t, StatusUsed, lmid.Status)
	assert.Equal(t, "mem_123", *lmid.AssignedToMemberID)
	assert.Equal(t, "a1b2c3d4e5f6", lmid.ShareID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimFreeRetriesOnLostRace(t *testing.T) {
	mock := newMockDB(t)

	// First candidate is claimed by a concurrent request between the
	// select and the conditional update.
	mock.ExpectQuery(`SELECT \* FROM lmids WHERE status = 'free' ORDER BY id LIMIT 1`).
		WillReturnRows(freeLmidRows(7, "share-7"))
	mock.ExpectExec(`UPDATE lmids`).
		WithArgs("mem_123", "teacher@example.com", 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(`SELECT \* FROM lmids WHERE status = 'free' ORDER BY id LIMIT 1`).
		WillReturnRows(freeLmidRows(8, "share-8"))
	mock.ExpectExec(`UPDATE lmids`).
		WithArgs("mem_123", "teacher@example.com", 8).
		WillReturnResult(sqlmock.NewResult(0, 1))

	lmid, err := ClaimFree("mem_123", "teacher@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 8, lmid.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimFreeExhausted(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM lmids WHERE status = 'free' ORDER BY id LIMIT 1`).
		WillReturnError(sql.ErrNoRows)

	lmid, err := ClaimFree("mem_123", "teacher@example.com")
	assert.Nil(t, lmid)
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOwnedLmids(t *testing.T) {
	mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3)
	mock.ExpectQuery(`SELECT id FROM lmids WHERE assigned_to_member_id = \$1 AND status = 'used'`).
		WithArgs("mem_123").
		WillReturnRows(rows)

	ids, err := GetOwnedLmids("mem_123")
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseByMemberID(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectExec(`UPDATE lmids`).
		WithArgs("mem_123").
		WillReturnResult(sqlmock.NewResult(0, 2))

	released, err := ReleaseByMemberID("mem_123")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionFree(t *testing.T) {
	mock := newMockDB(t)

	for i := 0; i < 3; i++ {
		mock.ExpectExec(`INSERT INTO lmids`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}

	created, err := ProvisionFree(3)
	assert.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewShareID(t *testing.T) {
	a := NewShareID()
	b := NewShareID()
	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
}
