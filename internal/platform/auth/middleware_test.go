package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubVerifier struct {
	identity *Identity
	err      error
}

func (s *stubVerifier) Verify(string) (*Identity, error) {
	return s.identity, s.err
}

func TestRequireSessionStoresIdentity(t *testing.T) {
	verifier := &stubVerifier{identity: &Identity{UserID: "1", Role: RoleUser}}

	var seen *Identity
	handler := RequireSession(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if seen == nil || seen.UserID != "1" {
		t.Fatalf("expected identity on context, got %+v", seen)
	}
}

func TestRequireSessionRejectsMissingHeader(t *testing.T) {
	handler := RequireSession(&stubVerifier{identity: &Identity{UserID: "1"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireSessionRejectsExpiredToken(t *testing.T) {
	handler := RequireSession(&stubVerifier{err: ErrTokenExpired})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	handler := RequireAdmin(&stubVerifier{identity: &Identity{UserID: "1", Role: RoleUser}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	handler := RequireAdmin(&stubVerifier{identity: &Identity{UserID: "2", Role: RoleAdmin}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
