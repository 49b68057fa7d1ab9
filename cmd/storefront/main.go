package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nawaweeb/storefront/internal/auth"
	"github.com/nawaweeb/storefront/internal/cart"
	"github.com/nawaweeb/storefront/internal/catalog"
	"github.com/nawaweeb/storefront/internal/checkout"
	"github.com/nawaweeb/storefront/internal/orders"
	"github.com/nawaweeb/storefront/internal/session"
	"github.com/nawaweeb/storefront/internal/wishlist"
	"github.com/nawaweeb/storefront/pkg/api"
	"github.com/nawaweeb/storefront/pkg/config"
	"github.com/nawaweeb/storefront/pkg/kvstore"
	"github.com/nawaweeb/storefront/pkg/logger"
	"github.com/nawaweeb/storefront/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Debug(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store, err := openStore(ctx, cfg)
	if err != nil {
		logg.Error(ctx, "failed to open local storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(ctx, "error closing local storage", err)
		}
	}()

	sessions, err := session.NewManager(store, logg)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	client, err := api.NewClient(cfg.API, sessions, logg)
	if err != nil {
		logg.Error(ctx, "failed to create api client", err)
		os.Exit(1)
	}

	local, err := cart.NewLocalStore(store)
	if err != nil {
		logg.Error(ctx, "failed to create cart store", err)
		os.Exit(1)
	}
	remote, err := cart.NewRemoteClient(client)
	if err != nil {
		logg.Error(ctx, "failed to create cart client", err)
		os.Exit(1)
	}
	basket, err := cart.NewReconciler(local, remote, sessions, logg, metrics.NewCartMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		logg.Error(ctx, "failed to create cart reconciler", err)
		os.Exit(1)
	}
	view, err := cart.NewView(basket)
	if err != nil {
		logg.Error(ctx, "failed to create cart view", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(client, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}
	catalogAdmin, err := catalog.NewAdmin(client, sessions, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog admin", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(client, basket, sessions, logg)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}
	wishlistSvc, err := wishlist.NewService(client, sessions, logg)
	if err != nil {
		logg.Error(ctx, "failed to create wishlist service", err)
		os.Exit(1)
	}
	authSvc, err := auth.NewService(client, sessions, basket, logg)
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}
	orchestrator, err := checkout.NewOrchestrator(
		client,
		basket,
		newTerminalWidget(os.Stdin, os.Stdout),
		cfg.Payment,
		logg,
		metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
	)
	if err != nil {
		logg.Error(ctx, "failed to create checkout orchestrator", err)
		os.Exit(1)
	}

	cli := &app{
		basket:   basket,
		view:     view,
		catalog:  catalogSvc,
		admin:    catalogAdmin,
		orders:   ordersSvc,
		wishlist: wishlistSvc,
		auth:     authSvc,
		orchestr: orchestrator,
		logg:     logg,
		out:      os.Stdout,
	}
	os.Exit(cli.run(logg.WithField(ctx, "env", cfg.App.Env), os.Args[1:]))
}

func openStore(ctx context.Context, cfg *config.Config) (kvstore.Store, error) {
	switch cfg.Storage.NormalizedBackend() {
	case config.StorageBackendRedis:
		return kvstore.NewRedisStore(ctx, cfg.Redis)
	case config.StorageBackendSQLite:
		return kvstore.NewSQLiteStore(cfg.Storage.SQLitePath)
	default:
		return kvstore.NewFileStore(cfg.Storage.FilePath)
	}
}
