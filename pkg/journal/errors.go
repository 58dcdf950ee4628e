package journal

import "errors"

// Sentinel errors returned by the schema codec and the store.
// Callers match them with errors.Is; the wrapped message carries the detail.
var (
	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Key grammar and bounds violations
	ErrInvalidInput = errors.New("invalid input")

	// A stored value failed to decode against its record schema
	ErrCorruptRecord = errors.New("corrupt record")

	// Write contention that was surfaced instead of waited out
	ErrConflict = errors.New("write conflict")

	// Engine-level I/O failure (open, disk, closed database)
	ErrStorageUnavailable = errors.New("storage unavailable")
)
