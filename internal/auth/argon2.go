package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"carspec/internal/utils"
)

// Argon2Params are the cost parameters baked into every hash string, so
// verification needs no parameter storage beyond the hash itself.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns m=64 MiB, t=3, p=2 with a 16-byte salt and a
// 32-byte key. These exceed the OWASP minimums for Argon2id.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// ErrHashing is returned when the hashing machinery itself fails (salt
// generation). Any non-empty input string is hashable.
var ErrHashing = errors.New("hashing failure")

var errMalformedHash = errors.New("malformed hash string")

// Hasher hashes API key secrets with Argon2id and verifies presented secrets
// against stored hashes. A memory-hard function is used, not a fast digest:
// stored hashes must stay expensive to brute-force offline if the table is
// ever exfiltrated.
type Hasher struct {
	params Argon2Params
	log    *utils.Logger
}

// NewHasher creates a Hasher with the given cost parameters.
func NewHasher(params Argon2Params, log *utils.Logger) *Hasher {
	if log == nil {
		log = utils.NewLogger("hasher")
	}
	return &Hasher{params: params, log: log}
}

// HashSecret hashes a plaintext secret with a fresh random salt and returns
// the self-describing encoded form:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<b64 salt>$<b64 key>
func (h *Hasher) HashSecret(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify reports whether plaintext matches the stored hash. It recomputes the
// key with the parameters embedded in the hash string and compares in
// constant time. Verification is a security boundary and fails closed: a
// malformed hash, an algorithm or version mismatch, or any internal failure
// is logged and reported as a non-match, never an error.
func (h *Hasher) Verify(plaintext, encoded string) bool {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		h.log.Warn("rejecting unverifiable hash", "reason", err)
		return false
	}

	computed := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1
}

// decodeHash splits an encoded hash back into its parameters, salt and key.
func decodeHash(encoded string) (Argon2Params, []byte, []byte, error) {
	var params Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return params, nil, nil, errMalformedHash
	}
	if parts[1] != "argon2id" {
		return params, nil, nil, fmt.Errorf("%w: unsupported algorithm %q", errMalformedHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, errMalformedHash
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("%w: incompatible argon2 version %d", errMalformedHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, errMalformedHash
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))
	return params, salt, key, nil
}
