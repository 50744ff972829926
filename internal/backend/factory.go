package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &BackendResult{Store: storage.NewMemoryStore()}, nil

	case FileBackend:
		s, err := storage.NewFileStore(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)
		return &BackendResult{Store: s}, nil

	case SQLiteBackend:
		s, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Store: s, Cleanup: s.Close}, nil

	case PostgresBackend:
		s, err := storage.NewPostgresStore(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return &BackendResult{Store: s, Cleanup: s.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
