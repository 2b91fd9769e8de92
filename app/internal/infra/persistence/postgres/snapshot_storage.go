package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
)

const defaultConnTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS cart_snapshots (
    storage_key TEXT PRIMARY KEY,
    data        BYTEA NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type SnapshotStorage struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*SnapshotStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &SnapshotStorage{pool: pool}, nil
}

func (s *SnapshotStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create cart_snapshots: %w", err)
	}
	return nil
}

func (s *SnapshotStorage) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM cart_snapshots WHERE storage_key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domcart.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SnapshotStorage) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO cart_snapshots (storage_key, data, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (storage_key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
    `, key, data)
	return err
}

func (s *SnapshotStorage) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
