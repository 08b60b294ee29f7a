package storage

import "errors"

// Storage errors.
var (
	// ErrNotFound is returned when a requested record or series does not
	// exist. Series callers translate this into "unavailable", never into a
	// run abort.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record whose key already
	// exists. Ledgers and summaries are append-only; updates are not allowed.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
