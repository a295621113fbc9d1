package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"carspec/internal/auth"
	"carspec/internal/models"
	"carspec/internal/storage"
	"carspec/internal/utils"
)

// CredentialStore is the slice of the credential repository the key
// management endpoints need.
type CredentialStore interface {
	Create(ctx context.Context, keyID, secretHash string) (*models.Credential, error)
	ListAll(ctx context.Context) ([]models.Credential, error)
	GetByID(ctx context.Context, keyID string) (*models.Credential, error)
	DeleteByID(ctx context.Context, keyID string) error
}

// KeysHandler handles API key management endpoints. These endpoints are not
// themselves protected by the API key gate; they are meant to sit behind
// network-level access control.
type KeysHandler struct {
	store  CredentialStore
	hasher *auth.Hasher
	log    *utils.Logger
}

// NewKeysHandler creates a new key management handler
func NewKeysHandler(store CredentialStore, hasher *auth.Hasher, log *utils.Logger) *KeysHandler {
	if log == nil {
		log = utils.NewLogger("keys")
	}
	return &KeysHandler{store: store, hasher: hasher, log: log}
}

// KeyCreatedResponse is returned when a key is issued. This is the only time
// the plaintext secret is visible; only its hash is stored.
type KeyCreatedResponse struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// KeyResponse is the redacted view of a stored key: identifier and creation
// time, never the secret or its hash.
type KeyResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func toKeyResponse(cred models.Credential) KeyResponse {
	return KeyResponse{ID: cred.KeyID, CreatedAt: cred.CreatedAt}
}

// Create handles POST /api/keys - issue a new API key
func (h *KeysHandler) Create(w http.ResponseWriter, r *http.Request) {
	secret, err := auth.GenerateSecret()
	if err != nil {
		h.log.Error("failed to generate secret", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	keyID, err := auth.GenerateUniqueID()
	if err != nil {
		h.log.Error("failed to generate key id", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	hash, err := h.hasher.HashSecret(secret)
	if err != nil {
		h.log.Error("failed to hash secret", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	cred, err := h.store.Create(r.Context(), keyID, hash)
	if err != nil {
		if errors.Is(err, storage.ErrCredentialExists) {
			// Timestamp-prefixed random ids should never collide.
			h.log.Error("key id collision", "key_id", keyID)
		} else {
			h.log.Error("failed to store credential", "error", err)
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	h.log.Info("api key issued", "key_id", cred.KeyID)
	utils.RespondWithJSON(w, http.StatusCreated, KeyCreatedResponse{
		ID:        cred.KeyID,
		Key:       secret,
		CreatedAt: cred.CreatedAt,
	})
}

// List handles GET /api/keys - list issued keys, redacted
func (h *KeysHandler) List(w http.ResponseWriter, r *http.Request) {
	creds, err := h.store.ListAll(r.Context())
	if err != nil {
		h.log.Error("failed to list credentials", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	if len(creds) == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "No API keys found")
		return
	}

	responses := make([]KeyResponse, 0, len(creds))
	for _, cred := range creds {
		responses = append(responses, toKeyResponse(cred))
	}
	utils.RespondWithJSON(w, http.StatusOK, responses)
}

// GetByID handles GET /api/keys/{id}
func (h *KeysHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	keyID := r.PathValue("id")

	cred, err := h.store.GetByID(r.Context(), keyID)
	if err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "API key not found")
			return
		}
		h.log.Error("failed to get credential", "key_id", keyID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get API key")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, toKeyResponse(*cred))
}

// Delete handles DELETE /api/keys/{id} - revoke a key. Revocation takes
// effect on the next request; nothing is cached.
func (h *KeysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	keyID := r.PathValue("id")

	if err := h.store.DeleteByID(r.Context(), keyID); err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "API key not found")
			return
		}
		h.log.Error("failed to delete credential", "key_id", keyID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}

	h.log.Info("api key revoked", "key_id", keyID)
	w.WriteHeader(http.StatusNoContent)
}
