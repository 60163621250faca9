package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps the snapshot in a single JSON file. Writes go to a
// temporary file in the same directory followed by a rename, so readers see
// either the previous snapshot or the new one, never a torn write.
type FileStore struct {
	path string
}

// NewFile creates a file-backed store at path, creating parent directories.
func NewFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("statestore: empty file path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("statestore: create dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Save(_ context.Context, snap Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("statestore: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("statestore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("statestore: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("statestore: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("statestore: close: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("statestore: rename: %w", err)
	}
	return nil
}

func (f *FileStore) Load(_ context.Context) (Snapshot, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("%w: read %s: %v", ErrCorrupt, f.path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode %s: %v", ErrCorrupt, f.path, err)
	}
	return snap, nil
}

func (f *FileStore) Close() error { return nil }
