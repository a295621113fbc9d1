package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

const (
	// secretAlphabet gives 62 symbols per character; at 30 characters the
	// secret carries ~178 bits of entropy.
	secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	secretLength   = 30
	idSuffixLength = 6
)

// ErrGeneration is returned when the system random source fails. The calling
// operation treats it as fatal and does not retry.
var ErrGeneration = errors.New("random source unavailable")

// GenerateSecret returns a new plaintext API key secret: a fixed-length
// string drawn uniformly from secretAlphabet using crypto/rand.
func GenerateSecret() (string, error) {
	return randomString(secretLength)
}

// GenerateUniqueID returns an identifier of the form <unix-seconds>_<suffix>
// with a short random alphanumeric suffix. Uniqueness is probabilistic; the
// store's unique constraint backs it up. The id is a public handle and
// carries no security weight, unlike the secret.
func GenerateUniqueID() (string, error) {
	suffix, err := randomString(idSuffixLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d_%s", time.Now().Unix(), suffix), nil
}

// randomString draws n characters uniformly from secretAlphabet. It uses
// rand.Int rather than byte masking so no symbol is favoured.
func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(secretAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		buf[i] = secretAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
