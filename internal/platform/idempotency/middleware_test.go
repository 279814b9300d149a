package idempotency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marketbay/api/internal/platform/auth"
	"github.com/marketbay/api/internal/platform/kvstore"
)

func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	store, err := NewKVStore(kvstore.New(kvstore.NewMemoryBackend(), nil))
	if err != nil {
		t.Fatalf("NewKVStore: %v", err)
	}
	return store
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"order":"ord_test"}`))
	})
}

func TestMiddlewarePassesThroughWithoutKey(t *testing.T) {
	calls := 0
	handler := Middleware(newTestStore(t))(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice without keys, ran %d times", calls)
	}
}

func TestMiddlewareReplaysStoredResponse(t *testing.T) {
	calls := 0
	handler := Middleware(newTestStore(t))(countingHandler(&calls))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"paymentMethod":"cod"}`))
	req.Header.Set("Idempotency-Key", "retry-1")
	handler.ServeHTTP(first, req)

	if first.Code != http.StatusCreated {
		t.Fatalf("unexpected first status %d", first.Code)
	}
	if first.Header().Get(headerReplay) != "" {
		t.Fatalf("first response must not be marked as replay")
	}

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"paymentMethod":"cod"}`))
	req.Header.Set("Idempotency-Key", "retry-1")
	handler.ServeHTTP(second, req)

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("unexpected replay status %d", second.Code)
	}
	if second.Header().Get(headerReplay) != "true" {
		t.Fatalf("replay header missing")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replay body differs: %s vs %s", second.Body.String(), first.Body.String())
	}
}

func TestMiddlewareRejectsKeyReuseForDifferentRequest(t *testing.T) {
	calls := 0
	handler := Middleware(newTestStore(t))(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"paymentMethod":"cod"}`))
	req.Header.Set("Idempotency-Key", "retry-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"paymentMethod":"upi"}`))
	req.Header.Set("Idempotency-Key", "retry-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for mismatched payload, got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("handler must not run for a conflicting retry, ran %d times", calls)
	}
}

func TestMiddlewareScopesKeysToAuthenticatedUser(t *testing.T) {
	calls := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		identity, _ := auth.IdentityFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"order":{"userId":"` + identity.UserID + `"}}`))
	})
	handler := Middleware(newTestStore(t))(inner)

	send := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"paymentMethod":"cod"}`))
		req.Header.Set("Idempotency-Key", "retry-1")
		req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: userID, Role: auth.RoleUser}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send("user-a")
	second := send("user-b")

	if calls != 2 {
		t.Fatalf("expected the handler to run once per user, ran %d times", calls)
	}
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("unexpected statuses %d and %d", first.Code, second.Code)
	}
	if second.Header().Get(headerReplay) != "" {
		t.Fatalf("another user's key must not trigger a replay")
	}
	if !strings.Contains(second.Body.String(), "user-b") {
		t.Fatalf("second user received a foreign response: %s", second.Body.String())
	}

	retry := send("user-a")
	if calls != 2 {
		t.Fatalf("same-user retry must replay, handler ran %d times", calls)
	}
	if retry.Header().Get(headerReplay) != "true" {
		t.Fatalf("same-user retry missing replay header")
	}
	if !strings.Contains(retry.Body.String(), "user-a") {
		t.Fatalf("replay returned a foreign response: %s", retry.Body.String())
	}
}

type staticVerifier map[string]*auth.Identity

func (v staticVerifier) Verify(token string) (*auth.Identity, error) {
	if identity, ok := v[token]; ok {
		return identity, nil
	}
	return nil, auth.ErrTokenInvalid
}

func TestMiddlewareBehindSessionCheckIgnoresRejectedRequests(t *testing.T) {
	calls := 0
	verifier := staticVerifier{"tok-a": {UserID: "user-a", Role: auth.RoleUser}}
	chain := auth.RequireSession(verifier)(Middleware(newTestStore(t))(countingHandler(&calls)))

	anon := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`))
	anon.Header.Set("Idempotency-Key", "retry-1")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, anon)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run without a session")
	}

	authed := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`))
	authed.Header.Set("Idempotency-Key", "retry-1")
	authed.Header.Set("Authorization", "Bearer tok-a")
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, authed)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for the authenticated retry, got %d", rec.Code)
	}
	if rec.Header().Get(headerReplay) != "" {
		t.Fatalf("rejected request must not leave a stored response behind")
	}
	if calls != 1 {
		t.Fatalf("expected handler to run for the authenticated request, ran %d times", calls)
	}
}

type inFlightStore struct{}

func (inFlightStore) Reserve(context.Context, string, string, time.Time, time.Duration) (Reservation, error) {
	return Reservation{State: ReservationInFlight}, nil
}

func (inFlightStore) SaveResponse(context.Context, string, string, Response, time.Time, time.Duration) error {
	return nil
}

func (inFlightStore) Release(context.Context, string, string) error { return nil }

func TestMiddlewareReportsInFlightKeys(t *testing.T) {
	calls := 0
	handler := Middleware(inFlightStore{})(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "retry-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while in flight, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run while the key is held")
	}
}

func TestMiddlewareExpiresOldRecords(t *testing.T) {
	calls := 0
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	handler := Middleware(newTestStore(t),
		WithTTL(time.Hour),
		WithClock(func() time.Time { return now }),
	)(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "retry-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	now = now.Add(2 * time.Hour)

	req = httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "retry-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if calls != 2 {
		t.Fatalf("expected handler to run again after expiry, ran %d times", calls)
	}
	if rec.Header().Get(headerReplay) != "" {
		t.Fatalf("expired record must not replay")
	}
}
