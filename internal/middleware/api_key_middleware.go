package middleware

import (
	"context"
	"errors"
	"net/http"

	"carspec/internal/auth"
	"carspec/internal/metrics"
	"carspec/internal/utils"
)

// APIKeyHeader carries the plaintext secret on protected requests. Header
// lookup is case-insensitive per net/http; an empty value is treated exactly
// like a missing header.
const APIKeyHeader = "X-API-Key"

// ContextKey defines the type for context keys to avoid conflicts
type ContextKey string

// CredentialIDKey is the context key holding the matched credential's key id
const CredentialIDKey ContextKey = "credentialID"

// deniedMessage is the single body every denial returns. The real reason
// stays in logs and metrics so callers cannot probe which keys exist.
const deniedMessage = "invalid credentials"

// APIKey guards protected routes behind the authorization gate. Every denial
// maps to 403 with an identical body; the matched credential id is placed in
// the request context for downstream audit.
func APIKey(gate *auth.Gate, m *metrics.Metrics, log *utils.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(APIKeyHeader)

			keyID, err := gate.Authorize(r.Context(), presented)
			if err != nil {
				outcome := denialOutcome(err)
				if outcome == metrics.OutcomeInternalError {
					log.Error("authorization check failed", "path", r.URL.Path, "error", err)
				} else {
					log.Warn("request denied", "path", r.URL.Path, "reason", err)
				}
				m.AuthDecisions.WithLabelValues(outcome).Inc()
				utils.RespondWithError(w, http.StatusForbidden, deniedMessage)
				return
			}

			m.AuthDecisions.WithLabelValues(metrics.OutcomeAllow).Inc()
			ctx := context.WithValue(r.Context(), CredentialIDKey, keyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCredentialID retrieves the matched credential id from the request context
func GetCredentialID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CredentialIDKey).(string)
	return id, ok
}

func denialOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrKeyRequired):
		return metrics.OutcomeMissingKey
	case errors.Is(err, auth.ErrNoKeysProvisioned):
		return metrics.OutcomeNoKeys
	case errors.Is(err, auth.ErrInvalidCredentials):
		return metrics.OutcomeInvalidKey
	default:
		return metrics.OutcomeInternalError
	}
}
