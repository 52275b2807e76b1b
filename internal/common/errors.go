// Package common defines shared constants and sentinel errors used across
// client and proxy layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Precondition errors, raised before any request leaves the client.
	ErrEmptySelection      = errors.New("no files selected")
	ErrNoCollection        = errors.New("no collection chosen")
	ErrUnknownCollection   = errors.New("unknown collection")
	ErrUnknownFile         = errors.New("unknown file")
	ErrMixedSelection      = errors.New("selected files belong to different collections")
	ErrEmptyInput          = errors.New("empty input")
	ErrDuplicateSubmission = errors.New("identical request already in flight")
	ErrUnsupportedKind     = errors.New("unsupported file kind")
	ErrFileTooLarge        = errors.New("file too large")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// IsPrecondition reports whether err is a client-side precondition violation.
func IsPrecondition(err error) bool {
	for _, e := range []error{
		ErrEmptySelection, ErrNoCollection, ErrUnknownCollection, ErrUnknownFile, ErrMixedSelection,
		ErrEmptyInput, ErrDuplicateSubmission, ErrUnsupportedKind, ErrFileTooLarge,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
