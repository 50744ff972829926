// Package storage holds the key/value blob stores the ledger persists into.
// Every backend stores a value as an opaque byte slice under a string key.
package storage

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned for operations on the empty key.
var ErrEmptyKey = errors.New("empty storage key")

type (
	// BlobStore is a durable string-keyed byte store.
	BlobStore interface {
		// Get returns the value and whether the key exists.
		Get(ctx context.Context, key string) ([]byte, bool, error)
		Put(ctx context.Context, key string, value []byte) error
		// Delete removes the key. Deleting a missing key is not an error.
		Delete(ctx context.Context, key string) error
	}

	// Pinger is implemented by stores that can report reachability.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
