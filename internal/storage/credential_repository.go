package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"carspec/internal/models"
)

// pgUniqueViolation is the Postgres error code for a unique constraint hit.
const pgUniqueViolation = "23505"

// CredentialRepository handles API key credential persistence. Credentials
// are immutable: they are created, read and deleted, never updated.
type CredentialRepository struct {
	db *DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a new credential row and returns it with the server-assigned
// surrogate key and creation time. Returns ErrCredentialExists when the key
// id collides with an existing row. The insert runs in its own transaction;
// any failure leaves no partial write.
func (r *CredentialRepository) Create(ctx context.Context, keyID, secretHash string) (*models.Credential, error) {
	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO api_keys (key_id, secret_hash)
		VALUES ($1, $2)
		RETURNING id, key_id, secret_hash, created_at
	`

	var cred models.Credential
	if err := tx.QueryRowxContext(ctx, query, keyID, secretHash).StructScan(&cred); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return nil, ErrCredentialExists
		}
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit credential: %w", err)
	}

	return &cred, nil
}

// ListAll returns every stored credential. An empty table yields an empty
// slice, not an error; the caller decides whether empty means not-found.
func (r *CredentialRepository) ListAll(ctx context.Context) ([]models.Credential, error) {
	query := `SELECT id, key_id, secret_hash, created_at FROM api_keys`

	creds := []models.Credential{}
	if err := r.db.conn.SelectContext(ctx, &creds, query); err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	return creds, nil
}

// GetByID returns the credential with the given key id, or
// ErrCredentialNotFound.
func (r *CredentialRepository) GetByID(ctx context.Context, keyID string) (*models.Credential, error) {
	query := `SELECT id, key_id, secret_hash, created_at FROM api_keys WHERE key_id = $1`

	var cred models.Credential
	if err := r.db.conn.GetContext(ctx, &cred, query, keyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return &cred, nil
}

// DeleteByID deletes the credential with the given key id. Returns
// ErrCredentialNotFound when no row matched, so the caller can distinguish
// nothing-to-delete from a successful delete.
func (r *CredentialRepository) DeleteByID(ctx context.Context, keyID string) error {
	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM api_keys WHERE key_id = $1`, keyID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrCredentialNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	return nil
}
