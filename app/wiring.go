package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"example.com/rocketshoes/app/internal/config"
	domcart "example.com/rocketshoes/app/internal/domain/cart"
	"example.com/rocketshoes/app/internal/infra/catalog"
	"example.com/rocketshoes/app/internal/infra/persistence/file"
	"example.com/rocketshoes/app/internal/infra/persistence/memory"
	"example.com/rocketshoes/app/internal/infra/persistence/mongostore"
	"example.com/rocketshoes/app/internal/infra/persistence/mysql"
	"example.com/rocketshoes/app/internal/infra/persistence/postgres"
	"example.com/rocketshoes/app/internal/infra/persistence/redisstore"
	"example.com/rocketshoes/app/internal/infra/security"
	cartuc "example.com/rocketshoes/app/internal/usecase/cart"
	productuc "example.com/rocketshoes/app/internal/usecase/product"
)

// newStorage opens the snapshot backend named by cfg.StorageDriver. The
// returned func releases its connections.
func newStorage(ctx context.Context, cfg config.Config) (domcart.Storage, func(), error) {
	logger := log.WithFields(log.Fields{"component": "storage", "driver": cfg.StorageDriver})
	noop := func() {}

	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn("cart snapshots are kept in memory and lost on restart")
		return memory.NewSnapshotStorage(), noop, nil

	case config.DriverFile:
		s, err := file.NewSnapshotStorage(cfg.FileDir)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("dir", cfg.FileDir).Info("file snapshot storage ready")
		return s, noop, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s := redisstore.NewSnapshotStorage(client, cfg.RedisTTL)
		if err := s.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return s, func() { closeWithLog(logger, client.Close) }, nil

	case config.DriverMySQL:
		db, err := mysql.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := mysql.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return mysql.NewSnapshotStorage(db), func() { closeWithLog(logger, db.Close) }, nil

	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, func() { closeWithLog(logger, s.Close) }, nil

	case config.DriverMongo:
		db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		disconnect := func() error { return db.Client().Disconnect(context.Background()) }
		return mongostore.NewSnapshotStorage(db), func() { closeWithLog(logger, disconnect) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// newCatalog talks to the remote catalog API, or serves the seed file
// in-process when no URL is configured.
func newCatalog(cfg config.Config, tokens *security.JWTService) (cartuc.Catalog, error) {
	logger := log.WithField("component", "catalog_client")
	if cfg.CatalogURL == "" {
		repo, err := memory.NewProductRepositoryFromFile(cfg.CatalogSeed)
		if err != nil {
			return nil, fmt.Errorf("load catalog seed %s: %w", cfg.CatalogSeed, err)
		}
		logger.WithField("seed", cfg.CatalogSeed).Info("serving catalog in-process")
		return productuc.NewService(repo), nil
	}

	var signer catalog.TokenSource
	if tokens != nil {
		signer = tokens
	}
	return catalog.NewClient(catalog.Config{
		BaseURL:         cfg.CatalogURL,
		Timeout:         cfg.CatalogTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	}, signer, logger)
}

func closeWithLog(logger *log.Entry, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.WithError(err).Warn("close storage")
	}
}
