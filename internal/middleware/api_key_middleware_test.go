package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"carspec/internal/auth"
	"carspec/internal/metrics"
	"carspec/internal/models"
	"carspec/internal/utils"
)

// fakeSource is an in-memory credential source for middleware tests.
type fakeSource struct {
	creds []models.Credential
}

func (s *fakeSource) ListAll(ctx context.Context) ([]models.Credential, error) {
	return s.creds, nil
}

func testGate(t *testing.T, secrets map[string]string) *auth.Gate {
	t.Helper()
	hasher := auth.NewHasher(auth.Argon2Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}, nil)

	source := &fakeSource{}
	for keyID, secret := range secrets {
		encoded, err := hasher.HashSecret(secret)
		if err != nil {
			t.Fatalf("HashSecret() error: %v", err)
		}
		source.creds = append(source.creds, models.Credential{KeyID: keyID, SecretHash: encoded})
	}
	return auth.NewGate(source, hasher, nil)
}

func testMiddleware(t *testing.T, secrets map[string]string) func(http.Handler) http.Handler {
	t.Helper()
	return APIKey(testGate(t, secrets), metrics.New(), utils.NewLogger("test", utils.Error))
}

func TestAPIKeyMiddlewareAllowsMatch(t *testing.T) {
	mw := testMiddleware(t, map[string]string{"1700000000_abc123": "valid-secret"})

	var gotID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetCredentialID(r.Context())
		if !ok {
			t.Error("credential id not found in context")
		}
		gotID = id
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/cars", nil)
	req.Header.Set("X-API-Key", "valid-secret")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if gotID != "1700000000_abc123" {
		t.Errorf("credential id = %q, want 1700000000_abc123", gotID)
	}
}

func TestAPIKeyMiddlewareDeniesAlteredSecret(t *testing.T) {
	mw := testMiddleware(t, map[string]string{"1700000000_abc123": "valid-secret"})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler called for an invalid key")
	}))

	req := httptest.NewRequest("GET", "/cars", nil)
	req.Header.Set("X-API-Key", "valid-secreT")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAPIKeyMiddlewareMissingAndEmptyHeaderIdentical(t *testing.T) {
	mw := testMiddleware(t, map[string]string{"1700000000_abc123": "valid-secret"})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler called without a key")
	}))

	missing := httptest.NewRequest("GET", "/cars", nil)
	missingRec := httptest.NewRecorder()
	handler.ServeHTTP(missingRec, missing)

	empty := httptest.NewRequest("GET", "/cars", nil)
	empty.Header.Set("X-API-Key", "")
	emptyRec := httptest.NewRecorder()
	handler.ServeHTTP(emptyRec, empty)

	if missingRec.Code != http.StatusForbidden || emptyRec.Code != http.StatusForbidden {
		t.Errorf("status = %d/%d, want 403/403", missingRec.Code, emptyRec.Code)
	}
	if missingRec.Body.String() != emptyRec.Body.String() {
		t.Errorf("missing-header body %q differs from empty-header body %q",
			missingRec.Body.String(), emptyRec.Body.String())
	}
}

func TestAPIKeyMiddlewareDenialBodiesDoNotLeakReason(t *testing.T) {
	// Empty store and wrong key must produce byte-identical denial bodies.
	emptyStore := testMiddleware(t, nil)
	withKey := testMiddleware(t, map[string]string{"1700000000_abc123": "valid-secret"})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req1 := httptest.NewRequest("GET", "/cars", nil)
	req1.Header.Set("X-API-Key", "anything")
	rec1 := httptest.NewRecorder()
	emptyStore(next).ServeHTTP(rec1, req1)

	req2 := httptest.NewRequest("GET", "/cars", nil)
	req2.Header.Set("X-API-Key", "wrong-secret")
	rec2 := httptest.NewRecorder()
	withKey(next).ServeHTTP(rec2, req2)

	if rec1.Code != http.StatusForbidden || rec2.Code != http.StatusForbidden {
		t.Errorf("status = %d/%d, want 403/403", rec1.Code, rec2.Code)
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Errorf("no-keys body %q differs from invalid-key body %q", rec1.Body.String(), rec2.Body.String())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetRequestID(r.Context()); !ok {
			t.Error("request id not found in context")
		}
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("response missing X-Request-ID header")
	}
}

func TestRequestIDMiddlewarePreservesInboundID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "caller-chosen-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "caller-chosen-id" {
		t.Errorf("request id = %q, want caller-chosen-id", got)
	}
}
