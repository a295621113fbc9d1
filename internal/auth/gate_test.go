package auth

import (
	"context"
	"errors"
	"testing"

	"carspec/internal/models"
)

// memorySource is an in-memory CredentialSource for gate tests.
type memorySource struct {
	creds []models.Credential
	err   error
	calls int
}

func (s *memorySource) ListAll(ctx context.Context) ([]models.Credential, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.creds, nil
}

// countingVerifier wraps a Hasher and records how many hashes were checked.
type countingVerifier struct {
	hasher *Hasher
	calls  int
}

func (v *countingVerifier) Verify(plaintext, encoded string) bool {
	v.calls++
	return v.hasher.Verify(plaintext, encoded)
}

func newTestGate(t *testing.T, secrets ...string) (*Gate, *memorySource, *countingVerifier) {
	t.Helper()
	hasher := NewHasher(testParams(), nil)
	source := &memorySource{}
	for i, secret := range secrets {
		encoded, err := hasher.HashSecret(secret)
		if err != nil {
			t.Fatalf("HashSecret() error: %v", err)
		}
		source.creds = append(source.creds, models.Credential{
			ID:         int64(i + 1),
			KeyID:      "1700000000_key" + string(rune('A'+i)),
			SecretHash: encoded,
		})
	}
	verifier := &countingVerifier{hasher: hasher}
	return NewGate(source, verifier, nil), source, verifier
}

func TestGateAuthorizeMatch(t *testing.T) {
	gate, source, _ := newTestGate(t, "first-secret", "second-secret")

	id, err := gate.Authorize(context.Background(), "second-secret")
	if err != nil {
		t.Fatalf("Authorize() error: %v", err)
	}
	if want := source.creds[1].KeyID; id != want {
		t.Errorf("Authorize() matched id %q, want %q", id, want)
	}
}

func TestGateShortCircuitsOnFirstMatch(t *testing.T) {
	gate, _, verifier := newTestGate(t, "s1", "s2", "s3")

	if _, err := gate.Authorize(context.Background(), "s1"); err != nil {
		t.Fatalf("Authorize() error: %v", err)
	}
	if verifier.calls != 1 {
		t.Errorf("Authorize() kept scanning after a match: %d verify calls", verifier.calls)
	}
}

func TestGateDeniesAlteredSecret(t *testing.T) {
	gate, _, _ := newTestGate(t, "correct-horse-battery-staple-30")

	altered := "Correct-horse-battery-staple-30"
	if _, err := gate.Authorize(context.Background(), altered); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authorize() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestGateDeniesMissingKey(t *testing.T) {
	gate, source, _ := newTestGate(t, "some-secret")

	if _, err := gate.Authorize(context.Background(), ""); !errors.Is(err, ErrKeyRequired) {
		t.Errorf("Authorize() error = %v, want ErrKeyRequired", err)
	}
	if source.calls != 0 {
		t.Error("Authorize() hit the store for an empty key")
	}
}

func TestGateDeniesEmptyStore(t *testing.T) {
	gate, _, _ := newTestGate(t)

	if _, err := gate.Authorize(context.Background(), "any-secret"); !errors.Is(err, ErrNoKeysProvisioned) {
		t.Errorf("Authorize() error = %v, want ErrNoKeysProvisioned", err)
	}
}

func TestGateStoreFailureIsNotADenialSentinel(t *testing.T) {
	hasher := NewHasher(testParams(), nil)
	source := &memorySource{err: errors.New("connection refused")}
	gate := NewGate(source, hasher, nil)

	_, err := gate.Authorize(context.Background(), "any-secret")
	if err == nil {
		t.Fatal("Authorize() = nil error on store failure")
	}
	for _, sentinel := range []error{ErrKeyRequired, ErrNoKeysProvisioned, ErrInvalidCredentials} {
		if errors.Is(err, sentinel) {
			t.Errorf("store failure mapped to denial sentinel %v", sentinel)
		}
	}
}

func TestGateRereadsStoreEveryCall(t *testing.T) {
	gate, source, _ := newTestGate(t, "revocable-secret")

	if _, err := gate.Authorize(context.Background(), "revocable-secret"); err != nil {
		t.Fatalf("Authorize() error: %v", err)
	}

	// Simulate revocation: the next call must see the deletion.
	source.creds = nil
	if _, err := gate.Authorize(context.Background(), "revocable-secret"); !errors.Is(err, ErrNoKeysProvisioned) {
		t.Errorf("Authorize() error = %v after delete, want ErrNoKeysProvisioned", err)
	}
	if source.calls != 2 {
		t.Errorf("store read %d times, want 2 (no caching)", source.calls)
	}
}
