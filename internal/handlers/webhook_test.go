package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/heyfeelings-official/little-microphones/internal/db"
	"github.com/heyfeelings-official/little-microphones/internal/middleware"
	"github.com/heyfeelings-official/little-microphones/internal/test"
	"github.com/heyfeelings-official/little-microphones/pkg/tasks"
)

func freeLmidRows(id int, shareID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "status", "assigned_to_member_id", "assigned_email", "share_id", "assigned_at", "created_at"}).
		AddRow(id, db.StatusFree, nil, nil, shareID, nil, time.Now())
}

func TestHandleMemberWebhookCreated(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	h := newTestHandlers(enqueuer)

	_, mock := test.NewMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM lmids WHERE status = 'free' ORDER BY id LIMIT 1`).
		WillReturnRows(freeLmidRows(38, "a1b2c3d4e5f6"))
	mock.ExpectExec(`UPDATE lmids`).
		WithArgs("mem_123", "teacher@example.com", 38).
		WillReturnResult(sqlmock.NewResult(0, 1))

	payload := `{"type":"member.created","data":{"member":{"id":"mem_123","auth":{"email":"teacher@example.com"},"customFields":{"name":"Anna Kowalska","school":"SP 5"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/memberstack", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	h.HandleMemberWebhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(38), body["lmid"])
	assert.Equal(t, "a1b2c3d4e5f6", body["shareId"])
	assert.Equal(t, false, body["metadataSynced"])
	assert.NoError(t, mock.ExpectationsWereMet())

	// Contact sync queued as a best-effort side effect.
	assert.Len(t, enqueuer.EnqueuedTasks, 1)
	assert.Equal(t, tasks.TypeSyncContact, enqueuer.EnqueuedTasks[0].Type())
	var syncPayload tasks.SyncContactTaskPayload
	assert.NoError(t, json.Unmarshal(enqueuer.EnqueuedTasks[0].Payload(), &syncPayload))
	assert.Equal(t, "teacher@example.com", syncPayload.Email)
	assert.Equal(t, "Anna Kowalska", syncPayload.Name)
}

func TestHandleMemberWebhookCreatedMemberUnderData(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	h := newTestHandlers(enqueuer)

	_, mock := test.NewMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM lmids WHERE status = 'free' ORDER BY id LIMIT 1`).
		WillReturnRows(freeLmidRows(1, "share-1"))
	mock.ExpectExec(`UPDATE lmids`).
		WithArgs("mem_456", "p@example.com", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Alternate shape: member object directly under data, email at
	// the top of the member.
	payload := `{"event":"member.created","data":{"id":"mem_456","email":"p@example.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/memberstack", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	h.HandleMemberWebhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleMemberWebhookExhausted(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	h := newTestHandlers(enqueuer)

	_, mock := test.NewMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM lmids WHERE status = 'free' ORDER BY id LIMIT 1`).
		WillReturnError(sql.ErrNoRows)

	payload := `{"type":"member.created","data":{"member":{"id":"mem_123","email":"t@example.com"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/memberstack", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	h.HandleMemberWebhook(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "LMID pool exhausted", body["error"])
	assert.Empty(t, enqueuer.EnqueuedTasks)
}

func TestHandleMemberWebhookDeleted(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	h := newTestHandlers(enqueuer)

	_, mock := test.NewMockDB(t)
	mock.ExpectExec(`UPDATE lmids`).
		WithArgs("mem_123").
		WillReturnResult(sqlmock.NewResult(0, 2))

	payload := `{"type":"member.deleted","data":{"member":{"id":"mem_123","email":"t@example.com"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/memberstack", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	h.HandleMemberWebhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, float64(2), body["released"])
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, enqueuer.EnqueuedTasks)
}

func TestHandleMemberWebhookUnknownShape(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	h := newTestHandlers(enqueuer)
	test.NewMockDB(t)

	for _, payload := range []string{
		`{"data":{"member":{"id":"mem_123"}}}`,                          // no event type
		`{"type":"member.created"}`,                                     // no member anywhere
		`{"type":"member.created","data":{"member":{"email":"x@y.z"}}}`, // member without id
		`not json at all`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/memberstack", strings.NewReader(payload))
		rr := httptest.NewRecorder()
		h.HandleMemberWebhook(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "payload: %s", payload)
		assert.Empty(t, enqueuer.EnqueuedTasks)
	}
}

func TestHandleMemberWebhookIgnoresOtherEvents(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	h := newTestHandlers(enqueuer)
	test.NewMockDB(t)

	payload := `{"type":"member.updated","data":{"member":{"id":"mem_123"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/memberstack", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	h.HandleMemberWebhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["ignored"])
	assert.Empty(t, enqueuer.EnqueuedTasks)
}

func TestWebhookRejectedWithoutSignature(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	h := newTestHandlers(enqueuer)
	_, mock := test.NewMockDB(t)

	handler := middleware.SignatureMiddleware("whsec_test", http.HandlerFunc(h.HandleMemberWebhook))

	body := `{"type":"member.created","data":{"member":{"id":"mem_123","email":"t@example.com"}}}`

	t.Run("missing signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/memberstack", strings.NewReader(body))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/memberstack", strings.NewReader(body))
		req.Header.Set(middleware.SignatureHeader, "deadbeef")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	// No allocation happened and nothing was queued.
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, enqueuer.EnqueuedTasks)
}
