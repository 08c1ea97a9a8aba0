package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yardgate/internal/actor"
)

func testActor(id string) actor.Actor {
	return actor.Actor{ID: id, Role: actor.RoleGateOperator}
}

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (s *fakeStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = fmt.Sprint(value)
	return true, nil
}

func (s *fakeStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func idempotentHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"call":%d}`, *calls)
	})
}

func TestIdempotencyReplaysResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := Idempotency(store)(idempotentHandler(&calls))

	do := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings/b1/receive", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do(`{}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, 1, calls)

	second := do(`{}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String(), "retry must replay the stored response")
	assert.Equal(t, 1, calls, "handler must not run twice")
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
}

func TestIdempotencyRejectsKeyReuse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := Idempotency(store)(idempotentHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/v1/bookings/b1/reject", strings.NewReader(`{"rejection_reason":"No Space"}`))
	req.Header.Set("Idempotency-Key", "key-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, 1, calls)

	req = httptest.NewRequest(http.MethodPost, "/v1/bookings/b1/reject", strings.NewReader(`{"rejection_reason":"Overweight"}`))
	req.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	assert.Equal(t, 1, calls)
}

func TestIdempotencyPassthrough(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := Idempotency(store)(idempotentHandler(&calls))

	// No header: every request reaches the handler.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(`{}`))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)

	// Non-POST: ignored even with a key.
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 3, calls)

	// Nil store: middleware is a no-op.
	calls = 0
	h = Idempotency(nil)(idempotentHandler(&calls))
	req = httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyDoesNotReplayServerErrors(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "storage unavailable, retry later")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings/b1/receive", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	require.Equal(t, http.StatusServiceUnavailable, first.Code)

	// The retry must reach the handler, not replay the 503.
	second := do()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 2, calls)

	// The successful outcome is the one that sticks.
	third := do()
	assert.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyScopesByActor(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := Idempotency(store)(idempotentHandler(&calls))

	do := func(actorID string) {
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings/b1/receive", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "key-1")
		req = req.WithContext(WithActor(req.Context(), testActor(actorID)))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	do("op-1")
	do("op-2")
	assert.Equal(t, 2, calls, "the same key under different actors must not collide")
}
