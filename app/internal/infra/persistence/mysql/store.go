package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 10
	defaultConnMaxLifetime = 30 * time.Minute
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS cart_snapshots (
        storage_key VARCHAR(191) NOT NULL PRIMARY KEY,
        data        LONGBLOB NOT NULL,
        updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS products (
        id        BIGINT NOT NULL PRIMARY KEY,
        name      VARCHAR(255) NOT NULL,
        price     DECIMAL(12,2) NOT NULL,
        image_url VARCHAR(1024) NOT NULL DEFAULT ''
    )`,
	`CREATE TABLE IF NOT EXISTS stock (
        product_id BIGINT NOT NULL PRIMARY KEY,
        amount     BIGINT NOT NULL CHECK (amount >= 0)
    )`,
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure mysql schema: %w", err)
		}
	}
	return nil
}
