package backend

import (
	"context"
	"path/filepath"
	"testing"

	"bilancio/internal/config"
	"bilancio/internal/storage"
)

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"memory", Config{Type: MemoryBackend}, true},
		{"file", Config{Type: FileBackend, DataDirectory: dir}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "b.db")}, true},
		{"file without dir", Config{Type: FileBackend}, false},
		{"postgres without url", Config{Type: PostgresBackend}, false},
		{"unknown", Config{Type: "sheets"}, false},
	}
	f := NewFactory(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.CreateBackend(context.Background(), tc.cfg)
			if !tc.ok {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Store == nil {
				t.Fatalf("nil store")
			}
			if res.Cleanup != nil {
				defer res.Cleanup()
			}
			if err := res.Store.Put(context.Background(), "k", []byte("v")); err != nil {
				t.Fatalf("put: %v", err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDir: "d"}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bc.Type != SQLiteBackend || bc.SQLiteDBPath != "x.db" || bc.DataDirectory != "d" {
		t.Fatalf("unexpected config: %+v", bc)
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "nope"}); err == nil {
		t.Fatalf("expected error for invalid backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

var _ storage.BlobStore = (*storage.MemoryStore)(nil)
