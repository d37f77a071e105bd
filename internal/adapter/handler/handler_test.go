package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/event_escrow/internal/adapter/handler"
	"github.com/srgjo27/event_escrow/internal/adapter/repository/sqlstore"
	"github.com/srgjo27/event_escrow/internal/core/domain"
	"github.com/srgjo27/event_escrow/internal/core/services"
	"github.com/srgjo27/event_escrow/internal/platform/clock/clocktest"
	"github.com/srgjo27/event_escrow/internal/platform/database"
)

type server struct {
	t         *testing.T
	handler   http.Handler
	clock     *clocktest.Clock
	organizer uuid.UUID
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, SQLitePath: ":memory:", MaxRetries: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.InitializeSchema(ctx, db))

	now := clocktest.New(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	organizer := uuid.New()
	svc := services.NewEscrowService(
		organizer,
		sqlstore.NewEventRepository(db, trmsqlx.DefaultCtxGetter),
		sqlstore.NewBookingRepository(db, trmsqlx.DefaultCtxGetter),
		sqlstore.NewVault(db, trmsqlx.DefaultCtxGetter, now),
		sqlstore.NewTransactor(db, 3),
		now,
	)

	return &server{
		t:         t,
		handler:   handler.NewRouter(handler.NewEscrowHandler(svc)),
		clock:     now,
		organizer: organizer,
	}
}

func (s *server) do(method, path string, caller uuid.UUID, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != uuid.Nil {
		req.Header.Set(handler.CallerHeader, caller.String())
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) createEvent(id string, fee int64, startIn time.Duration) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/events", s.organizer, services.CreateEventRequest{
		ID:                     id,
		Fee:                    fee,
		StartTime:              s.clock.Now().Add(startIn).Format(time.RFC3339),
		CancellationWindowDays: 15,
		AttendanceSecretHash:   domain.HashSecret("S").String(),
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthAndOrganizer(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/health", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/organizer", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.organizer.String(), decode[map[string]string](t, rec)["organizer"])
}

func TestCreateEvent(t *testing.T) {
	s := newServer(t)
	s.createEvent("E1", 10, 20*24*time.Hour)

	rec := s.do(http.MethodGet, "/events/E1", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	event := decode[services.EventResponse](t, rec)
	assert.Equal(t, int64(10), event.Fee)
	assert.Equal(t, s.clock.Now().Add(5*24*time.Hour).Format(time.RFC3339), event.CancellationDeadline)

	rec = s.do(http.MethodGet, "/events/E1/fee", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 10, decode[map[string]any](t, rec)["fee"])

	rec = s.do(http.MethodGet, "/events/E1/deadline", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, s.clock.Now().Add(5*24*time.Hour).Unix(), decode[map[string]any](t, rec)["unix"])
}

func TestCreateEvent_Errors(t *testing.T) {
	s := newServer(t)
	valid := services.CreateEventRequest{
		ID:                     "E1",
		Fee:                    10,
		StartTime:              s.clock.Now().Add(48 * time.Hour).Format(time.RFC3339),
		CancellationWindowDays: 1,
		AttendanceSecretHash:   domain.HashSecret("S").String(),
	}

	tests := []struct {
		name   string
		caller uuid.UUID
		body   any
		want   int
	}{
		{name: "anonymous", caller: uuid.Nil, body: valid, want: http.StatusUnauthorized},
		{name: "not organizer", caller: uuid.New(), body: valid, want: http.StatusForbidden},
		{name: "bad json", caller: s.organizer, body: "nope", want: http.StatusBadRequest},
		{name: "bad start time", caller: s.organizer, body: services.CreateEventRequest{
			ID: "E2", StartTime: "tomorrow", AttendanceSecretHash: valid.AttendanceSecretHash,
		}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/events", tt.caller, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[handler.ErrorResponse](t, rec).Error)
		})
	}

	rec := s.do(http.MethodPost, "/events", s.organizer, valid)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/events", s.organizer, valid)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMalformedCallerHeader(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/events/E1/bookings/me", nil)
	req.Header.Set(handler.CallerHeader, "not-a-uuid")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownEvent(t *testing.T) {
	s := newServer(t)

	for _, path := range []string{"/events/nope", "/events/nope/fee", "/events/nope/deadline"} {
		rec := s.do(http.MethodGet, path, uuid.Nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := s.do(http.MethodPost, "/events/nope/bookings", uuid.New(), handler.BookRequest{Amount: 10})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingLifecycle(t *testing.T) {
	s := newServer(t)
	p1 := uuid.New()
	s.createEvent("E1", 10, 20*24*time.Hour)

	rec := s.do(http.MethodPost, "/events/E1/bookings", p1, handler.BookRequest{Amount: 5})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = s.do(http.MethodPost, "/events/E1/bookings", p1, handler.BookRequest{Amount: domain.MaxAmount + 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/events/E1/bookings", p1, handler.BookRequest{Amount: 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/events/E1/bookings", p1, handler.BookRequest{Amount: 10})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/events/E1/bookings/me", p1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.BookingResponse{Booked: true, AmountPaid: 10}, decode[services.BookingResponse](t, rec))

	rec = s.do(http.MethodGet, "/events/E1/bookings/"+p1.String(), s.organizer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[services.BookingResponse](t, rec).Booked)

	rec = s.do(http.MethodGet, "/events/E1/bookings/"+p1.String(), uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/events/E1/bookings/me/cancel", p1, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refund := decode[services.RefundResponse](t, rec)
	assert.Equal(t, int64(10), refund.Amount)
	assert.Equal(t, string(domain.RefundSelfCancellation), refund.Reason)

	rec = s.do(http.MethodGet, "/events/E1/bookings/me", p1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.BookingResponse{}, decode[services.BookingResponse](t, rec))

	rec = s.do(http.MethodGet, "/events/E1/ledger", s.organizer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ledger := decode[handler.LedgerResponse](t, rec)
	assert.Zero(t, ledger.Held)
	require.Len(t, ledger.Balances, 1)
	assert.Equal(t, handler.BalanceResponse{Participant: p1.String(), Held: 0, PaidOut: 10}, ledger.Balances[0])
	require.Len(t, ledger.Entries, 2)
	assert.Equal(t, "deposit", ledger.Entries[0].Kind)
	assert.Equal(t, "release", ledger.Entries[1].Kind)

	rec = s.do(http.MethodGet, "/events/E1/ledger", p1, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrganizerCancellationAfterDeadline(t *testing.T) {
	s := newServer(t)
	p2 := uuid.New()
	s.createEvent("E2", 10, 10*24*time.Hour)

	rec := s.do(http.MethodPost, "/events/E2/bookings", p2, handler.BookRequest{Amount: 10})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/events/E2/bookings/"+p2.String()+"/cancel", uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/events/E2/bookings/"+p2.String()+"/cancel", s.organizer, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/events/E2/bookings/not-a-uuid/cancel", s.organizer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/events/E2/attendance", p2, handler.AttendanceRequest{Secret: "wrong"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/events/E2/attendance", p2, handler.AttendanceRequest{Secret: "S"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(domain.RefundAttendanceProof), decode[services.RefundResponse](t, rec).Reason)

	rec = s.do(http.MethodPost, "/events/E2/attendance", p2, handler.AttendanceRequest{Secret: "S"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
