// Package fileio provides the file read/write capability shared by the state
// store and the aggregator. Writes create missing parent directories and
// replace the target atomically.
package fileio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

// Files reads and writes whole files.
type Files interface {
	// ReadJSON decodes the file at path into dst. It reports false with a nil
	// error when the file does not exist.
	ReadJSON(path string, dst any) (bool, error)
	// WriteJSON pretty-prints v and replaces the file at path.
	WriteJSON(path string, v any) error
	// WriteText replaces the file at path with text.
	WriteText(path, text string) error
	// Exists reports whether path exists.
	Exists(path string) (bool, error)
}

// FS implements Files on top of an afero filesystem.
type FS struct {
	fs afero.Fs
}

// New returns a Files backed by fs.
func New(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// NewOS returns a Files backed by the operating system filesystem.
func NewOS() *FS {
	return New(afero.NewOsFs())
}

// NewMemory returns a Files backed by an in-memory filesystem.
func NewMemory() *FS {
	return New(afero.NewMemMapFs())
}

// Fs exposes the underlying filesystem.
func (f *FS) Fs() afero.Fs {
	return f.fs
}

// ReadJSON implements Files.
func (f *FS) ReadJSON(path string, dst any) (bool, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("decoding %s: %w", path, err)
	}
	return true, nil
}

// WriteJSON implements Files.
func (f *FS) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.write(path, data)
}

// WriteText implements Files.
func (f *FS) WriteText(path, text string) error {
	return f.write(path, []byte(text))
}

// Exists implements Files.
func (f *FS) Exists(path string) (bool, error) {
	return afero.Exists(f.fs, path)
}

// write stages data in a sibling temp file and renames it over path so
// readers never observe a partial file.
func (f *FS) write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := f.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(f.fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := f.fs.Chmod(tmpName, filePerm); err != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := f.fs.Rename(tmpName, path); err != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
