package mysql

import (
	"context"
	"database/sql"
	"errors"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
)

type SnapshotStorage struct {
	db *sql.DB
}

func NewSnapshotStorage(db *sql.DB) *SnapshotStorage {
	return &SnapshotStorage{db: db}
}

func (r *SnapshotStorage) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `
        SELECT data FROM cart_snapshots WHERE storage_key = ?
    `, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domcart.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *SnapshotStorage) Write(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO cart_snapshots (storage_key, data)
        VALUES (?, ?)
        ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = CURRENT_TIMESTAMP
    `, key, data)
	return err
}
