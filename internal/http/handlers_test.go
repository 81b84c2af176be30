package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opencourt/rally/internal/booking"
	"github.com/opencourt/rally/internal/config"
	"github.com/opencourt/rally/internal/database"
	"github.com/opencourt/rally/internal/dispatch"
	"github.com/opencourt/rally/internal/matching"
	"github.com/opencourt/rally/internal/metrics"
	"github.com/opencourt/rally/internal/notifier"
	"github.com/opencourt/rally/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type testServer struct {
	*Server
	db       *sql.DB
	pubsub   *pubsub.MockPubSubClient
	notifier *notifier.Mock
	metrics  *metrics.Mock
}

func setupTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	bookingStore := booking.New(db)
	matchingStore := matching.NewStore(db)
	engine := matching.NewEngine(matchingStore, bookingStore)

	m := metrics.NewMock()
	ps := pubsub.NewMock("test-project")
	notif := notifier.NewMock()
	dispatcher := dispatch.New(ps, m)

	cfg := config.Config{ExpiryHorizon: 72 * time.Hour}
	srv := NewServer(engine, bookingStore, dispatcher, notif, m, http.NotFoundHandler(), cfg, ps)

	return &testServer{Server: srv, db: db, pubsub: ps, notifier: notif, metrics: m}, dbTeardown
}

func (ts *testServer) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) seedBooking(t *testing.T, id, ownerID, date, slotID string) {
	t.Helper()
	err := ts.Bookings.CreateBooking(context.Background(), &booking.Booking{
		ID:        id,
		OwnerID:   ownerID,
		FieldID:   "field-1",
		PlayDate:  date,
		SlotID:    slotID,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func decodeResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthCheckHandler(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	rr := ts.get(t, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK!", rr.Body.String())
}

func TestCreateRequestHandler(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	ts.seedBooking(t, "b1", "alice", "2025-06-01", "slot-18-19")

	rr := ts.postJSON(t, "/requests/create", map[string]string{
		"booking_id": "b1",
		"creator_id": "alice",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req := decodeResponse[matching.MatchRequest](t, rr)
	assert.Equal(t, "b1", req.BookingID)
	assert.Equal(t, matching.StatusOpen, req.Status)
	assert.Equal(t, 1, ts.metrics.RequestsCreated())

	// Missing fields.
	rr = ts.postJSON(t, "/requests/create", map[string]string{"booking_id": "b1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Unresolvable booking.
	rr = ts.postJSON(t, "/requests/create", map[string]string{
		"booking_id": "missing",
		"creator_id": "alice",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	// Duplicate active request on the same booking.
	rr = ts.postJSON(t, "/requests/create", map[string]string{
		"booking_id": "b1",
		"creator_id": "bob",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestJoinHandler(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	ts.seedBooking(t, "b1", "alice", "2025-06-01", "slot-18-19")
	rr := ts.postJSON(t, "/requests/create", map[string]string{
		"booking_id": "b1",
		"creator_id": "alice",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	req := decodeResponse[matching.MatchRequest](t, rr)

	rr = ts.postJSON(t, "/requests/join", map[string]string{
		"request_id": req.ID,
		"user_id":    "bob",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	p := decodeResponse[matching.Participant](t, rr)
	assert.Equal(t, "bob", p.UserID)
	assert.Equal(t, 1, ts.metrics.Joins())

	// The join notification went out on the notify-user topic.
	require.Len(t, ts.pubsub.SendMessageCalls, 1)
	assert.Equal(t, pubsub.TopicNotifyUser, ts.pubsub.SendMessageCalls[0].Topic)

	// Double join conflicts.
	rr = ts.postJSON(t, "/requests/join", map[string]string{
		"request_id": req.ID,
		"user_id":    "bob",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Unknown request.
	rr = ts.postJSON(t, "/requests/join", map[string]string{
		"request_id": "missing",
		"user_id":    "bob",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAcceptHandler_FullFlow(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	ts.seedBooking(t, "b1", "alice", "2025-06-01", "slot-18-19")
	rr := ts.postJSON(t, "/requests/create", map[string]string{
		"booking_id": "b1",
		"creator_id": "alice",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	req := decodeResponse[matching.MatchRequest](t, rr)

	rr = ts.postJSON(t, "/requests/join", map[string]string{"request_id": req.ID, "user_id": "bob"})
	require.Equal(t, http.StatusCreated, rr.Code)
	winner := decodeResponse[matching.Participant](t, rr)
	rr = ts.postJSON(t, "/requests/join", map[string]string{"request_id": req.ID, "user_id": "carol"})
	require.Equal(t, http.StatusCreated, rr.Code)

	// Wrong creator is forbidden.
	rr = ts.postJSON(t, "/requests/accept", map[string]string{
		"request_id":     req.ID,
		"participant_id": winner.ID,
		"creator_id":     "bob",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	ts.pubsub.Reset()
	rr = ts.postJSON(t, "/requests/accept", map[string]string{
		"request_id":     req.ID,
		"participant_id": winner.ID,
		"creator_id":     "alice",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result := decodeResponse[matching.MatchResult](t, rr)
	assert.Equal(t, matching.StatusMatched, result.Request.Status)
	assert.Equal(t, "bob", result.Accepted.UserID)
	assert.Equal(t, 1, ts.metrics.MatchesMade())

	// accepted + creator + rejected carol
	assert.Len(t, ts.pubsub.SendMessageCalls, 3)

	// A second accept is a conflict.
	rr = ts.postJSON(t, "/requests/accept", map[string]string{
		"request_id":     req.ID,
		"participant_id": winner.ID,
		"creator_id":     "alice",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRejectHandler(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	ts.seedBooking(t, "b1", "alice", "2025-06-01", "slot-18-19")
	rr := ts.postJSON(t, "/requests/create", map[string]string{
		"booking_id": "b1",
		"creator_id": "alice",
	})
	req := decodeResponse[matching.MatchRequest](t, rr)
	rr = ts.postJSON(t, "/requests/join", map[string]string{"request_id": req.ID, "user_id": "bob"})
	p := decodeResponse[matching.Participant](t, rr)

	rr = ts.postJSON(t, "/requests/reject", map[string]string{
		"request_id":     req.ID,
		"participant_id": p.ID,
		"acting_user_id": "mallory",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.postJSON(t, "/requests/reject", map[string]string{
		"request_id":     req.ID,
		"participant_id": p.ID,
		"acting_user_id": "alice",
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// The request reopened once its only joiner was removed.
	rr = ts.get(t, "/requests/get?requestID="+req.ID)
	require.Equal(t, http.StatusOK, rr.Code)
	var got struct {
		Request *matching.MatchRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, matching.StatusOpen, got.Request.Status)
}

func TestCancelHandler(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	ts.seedBooking(t, "b1", "alice", "2025-06-01", "slot-18-19")
	rr := ts.postJSON(t, "/requests/create", map[string]string{
		"booking_id": "b1",
		"creator_id": "alice",
	})
	req := decodeResponse[matching.MatchRequest](t, rr)
	ts.postJSON(t, "/requests/join", map[string]string{"request_id": req.ID, "user_id": "bob"})

	ts.pubsub.Reset()
	rr = ts.postJSON(t, "/requests/cancel", map[string]string{
		"request_id": req.ID,
		"creator_id": "alice",
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Len(t, ts.pubsub.SendMessageCalls, 1, "only the joiner is notified")

	rr = ts.postJSON(t, "/requests/cancel", map[string]string{
		"request_id": req.ID,
		"creator_id": "alice",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestListRequestsHandler(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	ts.seedBooking(t, "b1", "alice", "2025-06-01", "slot-18-19")
	ts.postJSON(t, "/requests/create", map[string]string{"booking_id": "b1", "creator_id": "alice"})

	rr := ts.get(t, "/requests")
	require.Equal(t, http.StatusOK, rr.Code)
	requests := decodeResponse[[]matching.MatchRequest](t, rr)
	assert.Len(t, requests, 1)
}

func TestBookingHandlers(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	rr := ts.postJSON(t, "/bookings/create", map[string]string{
		"owner_id":  "alice",
		"field_id":  "field-2",
		"play_date": "2025-06-01",
		"slot_id":   "slot-18-19",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	b := decodeResponse[booking.Booking](t, rr)
	assert.NotEmpty(t, b.ID)

	rr = ts.postJSON(t, "/bookings/create", map[string]string{"owner_id": "alice"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.get(t, "/bookings")
	require.Equal(t, http.StatusOK, rr.Code)
	bookings := decodeResponse[[]booking.Booking](t, rr)
	assert.Len(t, bookings, 1)
}

func TestSweepHandler(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	ts.seedBooking(t, "b1", "alice", "2025-06-01", "slot-18-19")
	rr := ts.postJSON(t, "/requests/create", map[string]string{
		"booking_id": "b1",
		"creator_id": "alice",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	// Move the clock past the horizon so the request goes stale.
	ts.now = func() time.Time { return time.Now().Add(100 * time.Hour) }

	ts.pubsub.Reset()
	rr = ts.get(t, "/sweep")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Expired int `json:"expired"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Expired)
	assert.Len(t, ts.pubsub.SendMessageCalls, 1, "the creator hears about the expiry")

	// Second sweep finds nothing.
	rr = ts.get(t, "/sweep")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Expired)
}

func TestNotifyPushHandler(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	n := matching.Notification{
		UserID:    "U123",
		Kind:      matching.NotifyRequestAccepted,
		RequestID: "r1",
		Message:   "You are in!",
	}
	packed, err := msgpack.Marshal(n)
	require.NoError(t, err)

	wrapper := fmt.Sprintf(`{"subscription":"sub","message":{"data":"%s"}}`,
		base64.StdEncoding.EncodeToString(packed))
	req := httptest.NewRequest(http.MethodPost, "/pubsub/notify", bytes.NewReader([]byte(wrapper)))
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, ts.notifier.NotifyCalls, 1)
	assert.Equal(t, "U123", ts.notifier.NotifyCalls[0].UserID)
	assert.Equal(t, matching.NotifyRequestAccepted, ts.notifier.NotifyCalls[0].Kind)
}

func TestNotifyPushHandler_BadPayloads(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	// Broken wrapper JSON.
	req := httptest.NewRequest(http.MethodPost, "/pubsub/notify", bytes.NewReader([]byte("{")))
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Invalid base64 data.
	req = httptest.NewRequest(http.MethodPost, "/pubsub/notify",
		bytes.NewReader([]byte(`{"message":{"data":"!!!not-base64!!!"}}`)))
	rr = httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, ts.notifier.NotifyCalls)
}

func TestDryRunSkipsPublishing(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	ts.seedBooking(t, "b1", "alice", "2025-06-01", "slot-18-19")
	rr := ts.postJSON(t, "/requests/create", map[string]string{
		"booking_id": "b1",
		"creator_id": "alice",
	})
	req := decodeResponse[matching.MatchRequest](t, rr)

	rr = ts.postJSON(t, "/requests/join?dry_run=true", map[string]string{
		"request_id": req.ID,
		"user_id":    "bob",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Empty(t, ts.pubsub.SendMessageCalls, "dry run must not publish")
}
