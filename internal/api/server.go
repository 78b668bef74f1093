// Package api implements HTTP handlers and helpers for the roaming cost
// service.
package api

import (
	"context"
	"os"
	"strings"
	"time"

	"roamcost/internal/auth"
	"roamcost/internal/catalog"
	"roamcost/internal/metrics"
	"roamcost/internal/store"
	"roamcost/internal/webhooks"
)

type Server struct {
	Store   store.Store
	Catalog *catalog.Provider
	Pub     *webhooks.Publisher
	Auth    *auth.Verifier
	Broker  EventBroker

	limits *limiterPool
}

// NewServer wires the server from the environment. Without DATABASE_URL the
// in-memory store is used; without CATALOG_DIR the catalog comes from the
// database.
func NewServer() (*Server, error) {
	var s store.Store
	var pg *store.Postgres
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		s = store.NewMemory()
	} else {
		var err error
		pg, err = store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		if os.Getenv("DB_MIGRATE") != "false" {
			_ = pg.MigrateDir("db/migrations")
		}
		s = pg
	}

	// Catalog source: CSV dir wins, else the database, else empty until
	// someone refreshes.
	var src catalog.Source
	if dir := os.Getenv("CATALOG_DIR"); dir != "" {
		src = catalog.NewDirSource(dir)
	} else if pg != nil {
		src = catalog.NewPostgresSourceFromDB(pg.DB())
	}
	if src != nil && os.Getenv("REDIS_URL") != "" {
		if cached, err := catalog.NewCachedSource(src, os.Getenv("REDIS_URL"), "catalog:snapshot", catalogRefreshInterval()); err == nil {
			src = cached
		}
	}
	provider := catalog.NewProvider(src, catalogRefreshInterval())

	// Broker selection
	var broker EventBroker
	if os.Getenv("REDIS_URL") != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	srv := &Server{
		Store:   s,
		Catalog: provider,
		Pub:     webhooks.NewPublisher(s),
		Auth:    auth.NewVerifierFromEnv(),
		Broker:  broker,
		limits:  newLimiterPool(),
	}
	provider.OnReload = func(snap *catalog.Snapshot) {
		metrics.CatalogReloads.WithLabelValues("ok").Inc()
		broker.Publish("catalog", Event{Type: "catalog.reloaded", Data: map[string]any{
			"countries": len(snap.Countries()),
			"packs":     len(snap.Packs()),
			"ts":        time.Now().UTC().Format(time.RFC3339),
		}})
	}

	if src != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := provider.Refresh(ctx); err != nil {
			metrics.CatalogReloads.WithLabelValues("error").Inc()
			// keep serving; requests fail with 503 until a refresh lands
		}
	}

	// Seed users/profiles shipped with the catalog data (dev convenience)
	if dir := os.Getenv("CATALOG_DIR"); dir != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = store.SeedFromDir(ctx, s, dir)
	}

	return srv, nil
}

func catalogRefreshInterval() time.Duration {
	if v := os.Getenv("CATALOG_REFRESH"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return 5 * time.Minute
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}

// StartCatalogRefresh begins the periodic catalog reload.
func (s *Server) StartCatalogRefresh() { s.Catalog.Start() }
