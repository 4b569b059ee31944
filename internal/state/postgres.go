package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

const stateKey = "latest"

const (
	queryLoadState = `
		SELECT collection_id, slug, name, detected_at
		FROM collection_state
		WHERE key = $1`

	querySaveState = `
		INSERT INTO collection_state (key, collection_id, slug, name, detected_at, updated_at)
		VALUES (@key, @collection_id, @slug, @name, @detected_at, now())
		ON CONFLICT (key) DO UPDATE SET
			collection_id = EXCLUDED.collection_id,
			slug          = EXCLUDED.slug,
			name          = EXCLUDED.name,
			detected_at   = EXCLUDED.detected_at,
			updated_at    = now()`
)

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing connection string: %w", ErrPersistence, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: creating connection pool: %w", ErrPersistence, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging database: %w", ErrPersistence, err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context) (*domain.PersistedState, error) {
	var st domain.PersistedState
	err := s.pool.QueryRow(ctx, queryLoadState, stateKey).
		Scan(&st.ID, &st.Slug, &st.Name, &st.DetectedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading state: %w", ErrPersistence, err)
	}
	return &st, nil
}

// Save implements Store with a single-row upsert.
func (s *PostgresStore) Save(ctx context.Context, st *domain.PersistedState) error {
	if st == nil {
		return fmt.Errorf("%w: nil state", ErrPersistence)
	}
	_, err := s.pool.Exec(ctx, querySaveState, pgx.NamedArgs{
		"key":           stateKey,
		"collection_id": st.ID,
		"slug":          st.Slug,
		"name":          st.Name,
		"detected_at":   st.DetectedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: saving state: %w", ErrPersistence, err)
	}
	return nil
}
