// Package common defines shared constants and sentinel errors used across
// GophDrive layers. Callers should use errors.Is to match these values:
// derived kinds wrap their parent so that, for example, a NameConflict also
// matches ErrConflict.
package common

import (
	"errors"
	"fmt"
)

var (
	// Lookup errors.
	ErrNotFound      = errors.New("not found")
	ErrInvalidParent = fmt.Errorf("invalid parent: %w", ErrNotFound)

	// Access errors.
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Namespace errors.
	ErrConflict     = errors.New("conflict")
	ErrNameConflict = fmt.Errorf("name already taken: %w", ErrConflict)
	ErrNotEmpty     = fmt.Errorf("folder is not empty: %w", ErrConflict)

	// Quota errors.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// Share errors.
	ErrExpired = errors.New("expired")

	// Request validation errors.
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidName      = fmt.Errorf("invalid name: %w", ErrInvalidOperation)
	ErrInvalidArgument  = errors.New("invalid argument")

	// Blob store errors. The underlying cause is joined in by the caller.
	ErrStorageWriteFailed = errors.New("storage write failed")
	ErrStorageReadFailed  = errors.New("storage read failed")
)

// StorageWriteError wraps cause so that it matches both ErrStorageWriteFailed
// and the original error.
func StorageWriteError(cause error) error {
	return fmt.Errorf("%w: %w", ErrStorageWriteFailed, cause)
}

// StorageReadError wraps cause so that it matches both ErrStorageReadFailed
// and the original error.
func StorageReadError(cause error) error {
	return fmt.Errorf("%w: %w", ErrStorageReadFailed, cause)
}
