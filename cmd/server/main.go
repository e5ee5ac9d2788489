// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

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

	"github.com/pmahlen/amora/internal/api"
	"github.com/pmahlen/amora/internal/auth"
	"github.com/pmahlen/amora/internal/candidates"
	"github.com/pmahlen/amora/internal/config"
	"github.com/pmahlen/amora/internal/events"
	"github.com/pmahlen/amora/internal/logging"
	"github.com/pmahlen/amora/internal/match"
	"github.com/pmahlen/amora/internal/metrics"
	"github.com/pmahlen/amora/internal/store"
	"github.com/pmahlen/amora/internal/supervisor"
	"github.com/pmahlen/amora/internal/supervisor/services"
	"github.com/pmahlen/amora/internal/ws"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// Badger value-log GC schedule for the data layer.
const (
	gcInterval     = 10 * time.Minute
	gcDiscardRatio = 0.5
)

//nolint:gocyclo // wiring is sequential by nature
func main() {
	// Config precedes logging so the logger can be configured; until then
	// errors go through the package default logger.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Configuration load failed")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", version).Msg("Starting Amora match engine")
	logging.Info().
		Str("store_backend", cfg.Store.Backend).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("websocket", cfg.WebSocket.Enabled).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	start := time.Now()
	metrics.SetAppInfo(version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the durable store. Engine state survives restarts with the
	// Badger backend; the memory backend is for development and tests.
	backing, badgerStore, err := newStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open store")
	}
	defer func() {
		if err := backing.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Str("backend", cfg.Store.Backend).Msg("Store initialized")

	// All engine writes go through the async writer so persistence latency
	// never blocks a swipe. In-memory state stays authoritative.
	writer := store.NewAsyncWriter(backing, store.WriterConfig{
		QueueSize:  cfg.Store.WriteQueueSize,
		Retries:    cfg.Store.WriteRetries,
		RetryDelay: cfg.Store.RetryDelay,
	}, logging.Logger())

	// In-process event bus carrying interaction outcomes to consumers.
	bus := events.NewBusWithBuffer(logging.Logger(), cfg.Events.BufferSize)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// WebSocket hub for real-time match notifications (optional).
	var hub *ws.Hub
	var notifier *events.Notifier
	if cfg.WebSocket.Enabled {
		hub = ws.NewHub()
		notifier = events.NewNotifier(bus, hub, logging.Logger())
		logging.Info().Msg("WebSocket match notifications enabled")
	} else {
		logging.Info().Msg("WebSocket match notifications disabled")
	}

	// Candidate source and match oracle clients. Both carry circuit
	// breakers; the candidate client additionally falls back to its
	// last-known-good pool when the source is down.
	candidateClient := candidates.NewClient(cfg.Candidates, logging.Logger())
	oracleClient := candidates.NewOracleClient(cfg.Oracle, logging.Logger())
	logging.Info().
		Str("candidates_url", cfg.Candidates.URL).
		Str("oracle_url", cfg.Oracle.URL).
		Bool("fallback", cfg.Candidates.FallbackEnabled).
		Msg("Upstream clients initialized")

	// Admin authentication for the operational surface.
	var jwtManager *auth.JWTManager
	var adminCreds *auth.AdminCredentials
	switch cfg.Security.AuthMode {
	case "jwt":
		jwtManager, err = auth.NewJWTManager(cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("JWT manager initialization failed")
		}
		adminCreds, err = auth.NewAdminCredentials(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			logging.Fatal().Err(err).Msg("Admin credential initialization failed")
		}
		logging.Info().Msg("JWT authentication enabled for admin surface")
	case "none":
		logging.Warn().Msg("Admin authentication is DISABLED (auth_mode=none)")
		logging.Warn().Msg("The reset and performance endpoints are open to anyone who can reach this host")
		logging.Warn().Msg("Run this mode only in local development or isolated test networks")
	default:
		logging.Fatal().Str("auth_mode", cfg.Security.AuthMode).Msg("Unknown auth mode (expected jwt or none)")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is disabled; leave this off outside test environments")
	}

	// Build the match engine from configuration.
	engineCfg := buildEngineConfig(cfg)
	engine, err := match.NewEngine(engineCfg, match.Dependencies{
		Candidates: candidateClient,
		Oracle:     oracleClient,
		Store:      writer,
		Events:     bus,
	}, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create match engine")
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing match engine")
		}
	}()
	logging.Info().
		Float64("hhc_weight", engineCfg.Scoring.HHCWeight).
		Float64("factual_weight", engineCfg.Scoring.FactualWeight).
		Int("queue_size", engineCfg.Queue.MaxSize).
		Msg("Match engine initialized")

	// HTTP surface: envelope handlers behind the chi middleware stack.
	handler := api.NewHandler(cfg, engine, hub, jwtManager, adminCreds, version)
	chimw := api.NewChiMiddleware(cfg.Security)
	authMW := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode)
	router := api.NewRouter(handler, chimw, authMW)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Suture logs through slog, so bridge it back into zerolog.
	slogLogger := logging.NewSlogLogger()
	tree := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())

	// Supervision layers: storage, then messaging, then the API on top.
	tree.AddDataService(writer)
	if badgerStore != nil {
		tree.AddDataService(services.NewBadgerGCService(badgerStore, gcInterval, gcDiscardRatio, logging.Logger()))
		logging.Info().Dur("interval", gcInterval).Msg("Badger GC supervised")
	}
	if hub != nil {
		tree.AddMessagingService(hub)
		tree.AddMessagingService(notifier)
		logging.Info().Msg("WebSocket hub and match notifier supervised")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP service supervised")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	// Keep the uptime gauge current while the server runs.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateUptime(start)
			}
		}
	}()

	logging.Info().Msg("Starting supervision")
	errCh := tree.ServeBackground(ctx)

	// Block until a signal cancels the context or the tree dies on its own,
	// then drain errCh so the tree has fully wound down before the deferred
	// closes run.
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, draining services")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervision error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Error during shutdown")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Some services did not stop in time")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Unstopped service")
		}
	}

	logging.Info().Msg("Amora stopped cleanly")
}

// newStore opens the configured store backend. The second return value is
// non-nil only for the Badger backend, where the caller schedules value-log
// GC as a supervised service.
func newStore(cfg *config.Config) (store.Store, *store.BadgerStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemoryStore(), nil, nil
	case "badger", "":
		bs, err := store.OpenBadger(cfg.Store.Path, cfg.Store.SyncWrites, logging.Logger())
		if err != nil {
			return nil, nil, err
		}
		return bs, bs, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q (expected badger or memory)", cfg.Store.Backend)
	}
}
