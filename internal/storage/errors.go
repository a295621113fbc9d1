package storage

import "errors"

var (
	// ErrCredentialNotFound is returned when no credential matches the
	// requested key id. Callers translate it to a 404; it is never logged
	// as an error.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrCredentialExists is returned when a create collides with an
	// existing key id. Ids are unique by construction, so a collision means
	// the generator contract was violated and deserves operator attention.
	ErrCredentialExists = errors.New("credential id already exists")

	// ErrCarNotFound is returned when no car matches the requested car id
	ErrCarNotFound = errors.New("car not found")
)
