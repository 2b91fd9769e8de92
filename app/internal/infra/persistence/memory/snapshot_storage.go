package memory

import (
	"context"
	"sync"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
)

// SnapshotStorage keeps snapshots in process memory. Contents are lost on restart.
type SnapshotStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewSnapshotStorage() *SnapshotStorage {
	return &SnapshotStorage{data: make(map[string][]byte)}
}

func (s *SnapshotStorage) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key]
	if !ok {
		return nil, domcart.ErrSnapshotNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *SnapshotStorage) Write(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), data...)
	return nil
}
