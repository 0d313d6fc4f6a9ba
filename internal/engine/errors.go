package engine

import "errors"

var (
	// ErrNotFound is returned when a required key is absent.
	ErrNotFound = errors.New("engine: not found")

	// ErrUnavailable is returned when the underlying store cannot be opened
	// or has been closed.
	ErrUnavailable = errors.New("engine: store unavailable")

	// ErrQuotaExceeded is returned when a write would push disk usage past
	// the configured quota.
	ErrQuotaExceeded = errors.New("engine: storage quota exceeded")

	// ErrSchemaMismatch is returned when the on-disk schema version differs
	// from the one this build writes.
	ErrSchemaMismatch = errors.New("engine: schema version mismatch")
)
