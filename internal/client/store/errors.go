package store

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt marks stored bytes that cannot be decoded.
	ErrCorrupt = errors.New("corrupt record")
	// ErrInvalidRecord rejects a TokenRecord violating its invariants.
	ErrInvalidRecord = errors.New("invalid token record")
)

// StorageReadError reports an I/O or decoding failure while reading Key.
// Callers treat it the same as absent data.
type StorageReadError struct {
	Key string
	Err error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("storage read %s: %v", e.Key, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

// StorageWriteError reports that the persistence layer rejected a write.
// It is non-fatal for the in-memory session.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write %s: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }
