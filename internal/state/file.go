package state

import (
	"context"
	"fmt"

	"github.com/donaldgifford/collection-watcher/internal/fileio"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

// FileStore keeps the state as a single JSON document on disk.
type FileStore struct {
	files fileio.Files
	path  string
}

// NewFileStore returns a FileStore reading and writing path through files.
func NewFileStore(files fileio.Files, path string) *FileStore {
	return &FileStore{files: files, path: path}
}

// Path returns the location of the state document.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store. A missing file, or a document without a positive
// id, is reported as no state.
func (s *FileStore) Load(_ context.Context) (*domain.PersistedState, error) {
	var st domain.PersistedState
	found, err := s.files.ReadJSON(s.path, &st)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !found || st.ID <= 0 {
		return nil, nil
	}
	return &st, nil
}

// Save implements Store by replacing the whole document.
func (s *FileStore) Save(_ context.Context, st *domain.PersistedState) error {
	if st == nil {
		return fmt.Errorf("%w: nil state", ErrPersistence)
	}
	if err := s.files.WriteJSON(s.path, st); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Ping implements Store. The file backend is always reachable.
func (s *FileStore) Ping(_ context.Context) error {
	return nil
}

// Close implements Store.
func (s *FileStore) Close() {}
