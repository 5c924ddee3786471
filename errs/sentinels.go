// Package errs contains sentinel errors shared by the store, handlers and pairing.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCode indicates the initial pairing code did not match.
	ErrInvalidCode = errors.New("initial code mismatch")

	// ErrNoCode indicates authentication was attempted with no pending or supplied code.
	ErrNoCode = errors.New("no initial code")
)
