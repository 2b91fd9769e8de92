package cart

import "context"

// Storage keeps serialized cart snapshots under a key. Read returns
// ErrSnapshotNotFound when nothing has been written for the key yet.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}
