package auth

import (
	"context"
	"errors"
	"fmt"

	"carspec/internal/models"
	"carspec/internal/utils"
)

// Denial reasons. All of them surface to the client as the same 403; the
// distinction exists for server-side logs and metrics only.
var (
	ErrKeyRequired        = errors.New("api key required")
	ErrNoKeysProvisioned  = errors.New("no api keys provisioned")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// CredentialSource provides the stored credentials checked at request time.
type CredentialSource interface {
	ListAll(ctx context.Context) ([]models.Credential, error)
}

// Verifier checks a presented plaintext against one stored hash.
type Verifier interface {
	Verify(plaintext, encoded string) bool
}

// Gate decides whether a presented API key authorizes a request. It reads the
// full credential set from the store on every call rather than caching, so a
// deleted key stops working within one request. It never mutates credentials.
type Gate struct {
	source   CredentialSource
	verifier Verifier
	log      *utils.Logger
}

// NewGate creates an authorization gate over the given credential source.
func NewGate(source CredentialSource, verifier Verifier, log *utils.Logger) *Gate {
	if log == nil {
		log = utils.NewLogger("gate")
	}
	return &Gate{source: source, verifier: verifier, log: log}
}

// Authorize checks the presented secret against every stored hash in store
// order, stopping at the first match, and returns the matched credential's
// key id. A missing or empty secret, an empty credential set, and an
// exhausted scan each return their own sentinel error; a store failure
// returns a wrapped error distinct from all denial sentinels.
func (g *Gate) Authorize(ctx context.Context, presented string) (string, error) {
	if presented == "" {
		return "", ErrKeyRequired
	}

	creds, err := g.source.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}
	if len(creds) == 0 {
		return "", ErrNoKeysProvisioned
	}

	for _, cred := range creds {
		if g.verifier.Verify(presented, cred.SecretHash) {
			return cred.KeyID, nil
		}
	}
	return "", ErrInvalidCredentials
}
