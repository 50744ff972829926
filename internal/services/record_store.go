package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// StoreKey is the single key the collection is persisted under.
const StoreKey = "bilancio::txs"

// RecordStore persists the whole collection as one JSON blob.
type RecordStore struct {
	blobs storage.BlobStore
	key   string
}

func NewRecordStore(blobs storage.BlobStore) *RecordStore {
	return &RecordStore{blobs: blobs, key: StoreKey}
}

// Load returns the stored collection. A missing or undecodable value yields
// an empty collection; only backend failures are returned as errors.
func (s *RecordStore) Load(ctx context.Context) (core.Collection, error) {
	b, ok, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if !ok || len(b) == 0 {
		return core.Collection{}, nil
	}
	var c core.Collection
	if err := json.Unmarshal(b, &c); err != nil {
		slog.ErrorContext(ctx, "Stored transactions are unreadable, starting empty",
			"key", s.key, "bytes", len(b), "error", err)
		return core.Collection{}, nil
	}
	if c == nil {
		c = core.Collection{}
	}
	return c, nil
}

// Version fingerprints the stored bytes. It changes whenever any writer,
// in this process or another, saves a different collection.
func (s *RecordStore) Version(ctx context.Context) (string, error) {
	b, ok, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return "", fmt.Errorf("read transactions version: %w", err)
	}
	if !ok || len(b) == 0 {
		return "empty", nil
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:12]), nil
}

// Save overwrites the stored collection.
func (s *RecordStore) Save(ctx context.Context, c core.Collection) error {
	if c == nil {
		c = core.Collection{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := s.blobs.Put(ctx, s.key, b); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// Clear removes the stored collection.
func (s *RecordStore) Clear(ctx context.Context) error {
	if err := s.blobs.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	return nil
}

// Ping reports whether the underlying store is reachable. Stores that
// cannot tell are assumed reachable.
func (s *RecordStore) Ping(ctx context.Context) error {
	if p, ok := s.blobs.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
