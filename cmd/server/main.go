// Copyright 2026 The Chantier Access Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chantierhq/access/internal/audit"
	"github.com/chantierhq/access/internal/authz"
	"github.com/chantierhq/access/internal/config"
	"github.com/chantierhq/access/internal/guard"
	"github.com/chantierhq/access/internal/observability/logger"
	"github.com/chantierhq/access/internal/observability/metrics"
	"github.com/chantierhq/access/internal/observability/tracing"
	"github.com/chantierhq/access/internal/oidc"
	"github.com/chantierhq/access/internal/session"
	"github.com/chantierhq/access/internal/storage"
	transportHTTP "github.com/chantierhq/access/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting chantier access service")

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize slot storage
	slotStore, closeStore, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open slot storage", logger.Error(err))
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("slot storage ready", logger.Component("storage"), logger.String("driver", cfg.Storage.Driver))

	// Authorization model
	model, err := loadModel(cfg.Policy)
	if err != nil {
		slog.Error("failed to load authorization policy", logger.Error(err))
		os.Exit(1)
	}

	// Role derivation
	markerRules := session.DefaultMarkerRules()
	if cfg.Session.RoleMarkers != "" {
		markerRules, err = session.ParseMarkerRules(cfg.Session.RoleMarkers)
		if err != nil {
			slog.Error("invalid AUTH_ROLE_MARKERS", logger.Error(err))
			os.Exit(1)
		}
	}
	deriver := session.NewRoleDeriver(markerRules)

	// Services
	auditLogger := audit.NewSlogLogger()
	sessions := session.NewStore(slotStore, deriver, auditLogger, cfg.Session.SlotKey)
	evaluator := authz.NewEvaluator(model, sessions)
	pages := authz.NewPrefixPages(evaluator, map[string][]authz.Role{
		"/admin": {authz.RoleAdmin},
	})

	navGuard := guard.New(sessions, pages, auditLogger, meter, guard.Config{
		PublicPaths:  cfg.Guard.PublicPaths,
		LoginPath:    cfg.Guard.LoginPath,
		HomePath:     cfg.Guard.HomePath,
		Conservative: cfg.Guard.Conservative,
	})

	// ID tokens arrive pre-verified by the upstream provider proxy.
	tokenParser := oidc.NewParser(nil)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(sessions, evaluator, navGuard, tokenParser, auditLogger)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

// openStorage builds the slot backend selected by configuration,
// optionally sealed with secretbox encryption.
func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Store, func(), error) {
	var (
		store   storage.Store
		cleanup = func() {}
	)

	switch cfg.Driver {
	case config.DriverMemory:
		store = storage.NewMemory()
	case config.DriverNoop:
		store = storage.NewNoop()
	case config.DriverSQLite:
		db, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store = db
		cleanup = func() { db.Close() }
	case config.DriverPostgres:
		db, err := storage.NewPostgres(ctx, storage.PostgresConfig{
			Host:         cfg.Host,
			Port:         cfg.Port,
			User:         cfg.User,
			Password:     cfg.Password,
			Database:     cfg.Database,
			SSLMode:      cfg.SSLMode,
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
		})
		if err != nil {
			return nil, nil, err
		}
		store = db
		cleanup = db.Close
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	if cfg.SealKey != "" {
		raw, err := base64.StdEncoding.DecodeString(cfg.SealKey)
		if err != nil || len(raw) != 32 {
			return nil, nil, fmt.Errorf("STORAGE_SEAL_KEY must be a base64-encoded 32-byte key")
		}
		var key [32]byte
		copy(key[:], raw)
		store = storage.NewSealed(store, key)
	}

	return store, cleanup, nil
}

// loadModel returns the built-in authorization tables unless a policy
// file overrides them.
func loadModel(cfg config.PolicyConfig) (*authz.Model, error) {
	if cfg.File == "" {
		return authz.DefaultModel(), nil
	}
	return authz.LoadFile(cfg.File)
}
