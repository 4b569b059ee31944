// Package state persists the last collection the watcher has seen.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/donaldgifford/collection-watcher/internal/config"
	"github.com/donaldgifford/collection-watcher/internal/fileio"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

// ErrPersistence classifies every failure to read or write durable state.
var ErrPersistence = errors.New("state persistence failed")

// Store defines the persistence interface for the watcher cursor. Exactly one
// record exists at a time; Save replaces it.
type Store interface {
	// Load returns the recorded state, or nil with a nil error when nothing
	// has been recorded yet.
	Load(ctx context.Context) (*domain.PersistedState, error)
	// Save replaces the recorded state.
	Save(ctx context.Context, s *domain.PersistedState) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close()
}

// New builds the Store selected by cfg.Backend. File stores use files for
// all disk access.
func New(ctx context.Context, cfg *config.StateConfig, files fileio.Files) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(files, cfg.Path), nil
	case config.BackendPostgres:
		s, err := NewPostgresStore(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := s.Migrate(ctx); err != nil {
				s.Close()
				return nil, fmt.Errorf("%w: running migrations: %w", ErrPersistence, err)
			}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
