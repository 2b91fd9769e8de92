package file

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
)

// SnapshotStorage keeps one file per key inside a directory, the server-side
// counterpart of the browser's local storage.
type SnapshotStorage struct {
	dir string
}

func NewSnapshotStorage(dir string) (*SnapshotStorage, error) {
	if dir == "" {
		return nil, errors.New("file storage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file storage: create %s: %w", dir, err)
	}
	return &SnapshotStorage{dir: dir}, nil
}

func (s *SnapshotStorage) path(key string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+".json")
}

func (s *SnapshotStorage) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domcart.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write replaces the snapshot atomically via a temp file and rename.
func (s *SnapshotStorage) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}
