package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"vitrina/internal"
	"vitrina/internal/catalog"
)

// FileStore keeps the catalog as one JSON document on disk. The last writer
// wins; baseVersion is ignored.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(ctx context.Context) (Snapshot, error) {
	blob, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	tree, err := catalog.DecodeTreeBytes(blob)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return Snapshot{Tree: tree, Version: contentVersion(blob)}, nil
}

func (f *FileStore) Save(ctx context.Context, c internal.Catalog, _ string) (string, error) {
	blob, err := catalog.MarshalTree(catalog.Reconcile(c))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".catalog-*.json")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return "", err
	}
	return contentVersion(blob), nil
}

func contentVersion(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:8])
}
