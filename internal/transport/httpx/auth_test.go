package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", UserFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuthValidKey(t *testing.T) {
	h := BearerAuthMiddleware([]string{"key-a", "key-b"})(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/api/search-history/", nil)
	req.Header.Set("Authorization", "Bearer key-b")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-User"); got != "key-b" {
		t.Errorf("user = %q, want the token as identity", got)
	}
}

func TestBearerAuthMissingTokenIsAnonymous(t *testing.T) {
	h := BearerAuthMiddleware([]string{"key-a"})(echoUser())

	req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want anonymous pass-through", rec.Code)
	}
	if got := rec.Header().Get("X-User"); got != "" {
		t.Errorf("user = %q, want anonymous", got)
	}
}

func TestBearerAuthInvalidKeyRejected(t *testing.T) {
	h := BearerAuthMiddleware([]string{"key-a"})(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/api/search-history/", nil)
	req.Header.Set("Authorization", "Bearer stale-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for a stale key", rec.Code)
	}
}

func TestBearerAuthWrongScheme(t *testing.T) {
	h := BearerAuthMiddleware([]string{"key-a"})(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/api/search-history/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for non-Bearer scheme", rec.Code)
	}
}

func TestBearerAuthExemptPaths(t *testing.T) {
	h := BearerAuthMiddleware([]string{"key-a"})(echoUser())

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer whatever")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want exemption from auth", path, rec.Code)
		}
	}
}

func TestBearerAuthNoConfiguredKeys(t *testing.T) {
	h := BearerAuthMiddleware(nil)(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/api/search-history/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want any token accepted when no keys configured", rec.Code)
	}
	if got := rec.Header().Get("X-User"); got != "anything" {
		t.Errorf("user = %q", got)
	}
}
