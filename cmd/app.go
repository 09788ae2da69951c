package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fjod/go_cart/storefront-payments/internal/checkout"
	"github.com/fjod/go_cart/storefront-payments/internal/config"
	"github.com/fjod/go_cart/storefront-payments/internal/credentials"
	"github.com/fjod/go_cart/storefront-payments/internal/fulfillment"
	"github.com/fjod/go_cart/storefront-payments/internal/gateway"
	"github.com/fjod/go_cart/storefront-payments/internal/journal"
	"github.com/fjod/go_cart/storefront-payments/internal/reconcile"
	"github.com/fjod/go_cart/storefront-payments/internal/repository"
	"github.com/fjod/go_cart/storefront-payments/internal/sink"
	"github.com/fjod/go_cart/storefront-payments/internal/webhook"
	"github.com/fjod/go_cart/storefront-payments/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const serviceName = "storefront-payments"

// app holds the wired components and everything that must be closed on exit.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	checkout    *checkout.Service
	credentials *credentials.Resolver
	dispatcher  *webhook.Dispatcher
	reconcile   *reconcile.Engine
	journal     journal.Journal

	closers []func() error
}

func loadConfig(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(serviceName, cfg.LogLevel, os.Stdout), nil
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger, withJournal bool) (*app, error) {
	a := &app{cfg: cfg, logger: log}

	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.closers = append(a.closers, func() error { return db.Client().Disconnect(context.Background()) })
	log.Info("connected to MongoDB", "db", cfg.MongoDBName)

	tenants := repository.NewTenantRepository(db)
	products := repository.NewProductRepository(db)
	carts := repository.NewCartRepository(db)
	orders := repository.NewOrderRepository(db)
	if err := orders.CreateIndexes(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create order indexes: %w", err)
	}

	cache, err := a.credentialCache(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	resolver := credentials.NewResolver(tenants, cache, log)
	a.credentials = resolver
	gateways := gateway.NewResilient(gateway.StripeConnector{}, cfg.GatewayRPS, log)

	builder := checkout.NewBuilder(resolver, products, tenants, gateways, checkout.BuilderConfig{
		PublicBaseURL:   cfg.PublicBaseURL,
		DefaultCurrency: cfg.Currency,
	}, log)
	a.checkout = checkout.NewService(carts, tenants, products, orders, builder, checkout.ServiceConfig{
		NewOrderID:      repository.NewOrderID,
		DefaultCurrency: cfg.Currency,
	}, log)

	var (
		notifier fulfillment.Notifier
		events   fulfillment.OrderEvents
	)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		n, e := sink.NewNotifier(brokers...), sink.NewOrderEvents(brokers...)
		a.closers = append(a.closers, n.Close, e.Close)
		notifier, events = n, e
	} else {
		d := sink.NewDiscard(log)
		notifier, events = d, d
		log.Warn("KAFKA_BROKERS not set, notifications and order events are dropped")
	}
	processor := fulfillment.NewProcessor(
		orders,
		tenants,
		fulfillment.NewGatewaySessions(resolver, gateways),
		sink.NewHTTPFulfillment(cfg.FulfillmentURL, tenants, cfg.FulfillmentTimeout, log),
		notifier,
		events,
		log,
	)

	var recorder webhook.Recorder
	if withJournal {
		j, err := openJournal(cfg)
		if err != nil {
			a.close()
			return nil, err
		}
		if j != nil {
			a.closers = append(a.closers, j.Close)
			a.journal = j
			recorder = j
		}
	}
	a.dispatcher = webhook.NewDispatcher(resolver, processor, recorder, log)
	a.reconcile = reconcile.NewEngine(resolver, gateways, orders, cfg.SessionScanLimit, log)
	return a, nil
}

func (a *app) credentialCache(ctx context.Context) (credentials.Cache, error) {
	if a.cfg.RedisAddr == "" {
		a.logger.Info("REDIS_ADDR not set, using in-process credential cache")
		cache := credentials.NewMemoryCache(a.cfg.CredentialsTTL)
		a.closers = append(a.closers, cache.Close)
		return cache, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.logger.Info("redis ping succeeded")
	return credentials.NewRedisCache(client, a.cfg.CredentialsTTL), nil
}

// openJournal opens the configured journal and applies its migrations.
// It returns nil when the journal is disabled.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.JournalDriver {
	case config.JournalPostgres:
		creds := &journal.Credentials{
			Host:              cfg.DBHost,
			Port:              cfg.DBPort,
			User:              cfg.DBUser,
			Password:          cfg.DBPassword,
			DBName:            cfg.DBName,
			MigrationsDirPath: filepath.Join(cfg.MigrationsPath, "postgres"),
		}
		j, err := journal.NewPostgres(creds)
		if err != nil {
			return nil, err
		}
		if err := j.RunMigrations(creds); err != nil {
			j.Close()
			return nil, err
		}
		return j, nil
	case config.JournalSQLite:
		j, err := journal.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := j.RunMigrations(filepath.Join(cfg.MigrationsPath, "sqlite")); err != nil {
			j.Close()
			return nil, err
		}
		return j, nil
	default:
		return nil, nil
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
