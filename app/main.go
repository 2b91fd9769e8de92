package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"example.com/rocketshoes/app/internal/config"
	"example.com/rocketshoes/app/internal/infra/notify"
	"example.com/rocketshoes/app/internal/infra/security"
	httpapi "example.com/rocketshoes/app/internal/interface/http"
	"example.com/rocketshoes/app/internal/metrics"
	cartuc "example.com/rocketshoes/app/internal/usecase/cart"
)

const (
	shutdownTimeout = 5 * time.Second
	tokenTTL        = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	config.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("cart service stopped with error")
	}
	log.Info("cart service stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	logger := log.WithField("component", "app")

	storage, closeStorage, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	var tokens *security.JWTService
	if cfg.CatalogSecret != "" {
		tokens = security.NewJWTService(cfg.CatalogSecret, cfg.CatalogIssuer, tokenTTL)
	}
	catalog, err := newCatalog(cfg, tokens)
	if err != nil {
		return err
	}

	inbox := notify.NewInbox(cfg.InboxCapacity)
	notifier := notify.NewMulti(
		notify.NewLogNotifier(log.WithField("component", "notify")),
		inbox,
	)

	store, err := cartuc.NewStore(ctx, cartuc.Dependencies{
		Catalog:    catalog,
		Storage:    storage,
		Notifier:   notifier,
		Metrics:    metrics.NewCartMetrics(),
		Logger:     log.WithField("component", "cart_store"),
		StorageKey: cfg.StorageKey,
		Messages:   cartuc.MessagesFor(cfg.Locale),
	})
	if err != nil {
		return err
	}

	api := httpapi.NewAPI(httpapi.Dependencies{
		CartStore:      store,
		Inbox:          inbox,
		MetricsHandler: promhttp.Handler(),
		Logger:         log.WithField("component", "http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(api.Router(), "cart"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{
			"port":    cfg.Port,
			"storage": cfg.StorageDriver,
			"items":   store.Cart().Count(),
		}).Info("cart service listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
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
