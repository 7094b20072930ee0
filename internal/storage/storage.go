package storage

import "errors"

// Domain errors
var (
	// ErrUnavailable marks a storage backend fault. The session store
	// absorbs it and degrades to in-memory-only operation.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrCorrupt marks a slot whose content is present but undecodable
	// (e.g. a sealed value that fails to open). The session store purges
	// the slot and treats it as empty.
	ErrCorrupt = errors.New("storage slot corrupt")
)

// Store is the durable key-value slot used for session persistence. The
// session store is its only writer and reader; external mutation (another
// process, another browser tab in the original deployment) is detected on
// the next rehydrate and resolved last-write-wins.
type Store interface {
	// Get returns the value stored under key. ok is false when the slot
	// is empty.
	Get(key string) (value string, ok bool, err error)

	// Set writes value under key, replacing any previous value.
	Set(key, value string) error

	// Remove purges the slot. Removing an absent key is not an error.
	Remove(key string) error
}
