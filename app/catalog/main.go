package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"example.com/rocketshoes/app/internal/config"
	domproduct "example.com/rocketshoes/app/internal/domain/product"
	"example.com/rocketshoes/app/internal/infra/persistence/memory"
	"example.com/rocketshoes/app/internal/infra/persistence/mysql"
	"example.com/rocketshoes/app/internal/infra/security"
	httpapi "example.com/rocketshoes/app/internal/interface/http"
	productuc "example.com/rocketshoes/app/internal/usecase/product"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.LoadCatalog()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	config.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("catalog stopped with error")
	}
	log.Info("catalog stopped")
}

func run(ctx context.Context, cfg config.CatalogConfig) error {
	logger := log.WithField("component", "catalog")

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	deps := httpapi.CatalogDependencies{
		ProductService: productuc.NewService(repo),
		Logger:         log.WithField("component", "catalog_http"),
	}
	if cfg.Secret != "" {
		deps.TokenService = security.NewJWTService(cfg.Secret, cfg.Issuer, time.Minute)
	} else {
		logger.Warn("no service secret configured, catalog routes are public")
	}
	api := httpapi.NewCatalogAPI(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(api.Router(), "catalog"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{"port": cfg.Port, "driver": cfg.Driver}).Info("catalog listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("http server shutdown failed")
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newRepository(ctx context.Context, cfg config.CatalogConfig) (domproduct.Repository, func(), error) {
	if cfg.Driver == config.DriverMySQL {
		db, err := mysql.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := mysql.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return mysql.NewProductRepository(db), func() { _ = db.Close() }, nil
	}

	repo, err := memory.NewProductRepositoryFromFile(cfg.SeedPath)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() {}, nil
}
