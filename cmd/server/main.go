package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pharmalens/backend/config"
	httpDelivery "github.com/pharmalens/backend/internal/delivery/http"
	"github.com/pharmalens/backend/internal/infrastructure/cache"
	"github.com/pharmalens/backend/internal/infrastructure/sqlite"
	"github.com/pharmalens/backend/internal/usecase"
	"github.com/pharmalens/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Options{Environment: cfg.Server.Environment, Level: cfg.Log.Level})

	if err := run(cfg); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// run owns every resource so deferred closes happen before main exits
func run(cfg *config.Config) error {
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("starting PharmaLens backend v1.0.0")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, sqlite.Config{
		Path:            cfg.Store.Path,
		ProductsTable:   cfg.Store.ProductsTable,
		CreateIfMissing: cfg.Store.CreateIfMissing,
		BusyTimeout:     cfg.Store.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
	}
	defer store.Close()

	// Additive only; must run before the first write
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	tableCache, err := cache.New(ctx, cache.Options{Type: cfg.Cache.Type, RedisURL: cfg.Cache.RedisURL})
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer tableCache.Close()

	catalog := usecase.NewCatalogService(store, tableCache, usecase.CatalogServiceConfig{
		CacheTTL: cfg.Cache.TTL,
		Normalize: usecase.NormalizeOptions{
			Sentinel:   cfg.Pipeline.Sentinel,
			Capitalize: cfg.Pipeline.CapitalizeFields(),
		},
		Group: usecase.GroupOptions{
			OtherLabel:    cfg.Pipeline.OtherLabel,
			NameSeparator: cfg.Pipeline.NameSeparator,
		},
		DefaultTopN: cfg.Pipeline.DefaultTopN,
	})
	observations := usecase.NewObservationService(store, catalog)
	imports := usecase.NewImportService(store, catalog)

	handler := httpDelivery.NewHandler(catalog, observations, imports)
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
