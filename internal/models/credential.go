package models

import "time"

// Credential is one issued API key as persisted: the public key id, the
// Argon2id hash of the secret, and the server-assigned creation time. The
// plaintext secret is never stored and exists only in the creation response.
type Credential struct {
	ID         int64     `db:"id"`
	KeyID      string    `db:"key_id"`
	SecretHash string    `db:"secret_hash"`
	CreatedAt  time.Time `db:"created_at"`
}
