package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/collection-watcher/internal/config"
	"github.com/donaldgifford/collection-watcher/internal/fileio"
)

func TestNew_FileBackend(t *testing.T) {
	t.Parallel()

	s, err := New(context.Background(), &config.StateConfig{
		Backend: config.BackendFile,
		Path:    "state.json",
	}, fileio.NewMemory())
	require.NoError(t, err)

	fs, ok := s.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, "state.json", fs.Path())
}

func TestNew_UnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), &config.StateConfig{Backend: "redis"}, fileio.NewMemory())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown state backend "redis"`)
}

func TestNew_PostgresBadDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), &config.StateConfig{
		Backend:  config.BackendPostgres,
		Postgres: config.DatabaseConfig{Host: "localhost", Port: 5432, Name: "cw", User: "cw", SSLMode: "disable", PoolSize: -1},
	}, fileio.NewMemory())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestMigrationVersions(t *testing.T) {
	t.Parallel()

	versions, err := migrationVersions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, "001_collection_state.sql", versions[0])
	assert.IsNonDecreasing(t, versions)
}
