// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

// Command shieldadmin runs the admin console server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/shieldhq/shield-admin/internal/config"
	"github.com/shieldhq/shield-admin/internal/gate"
	"github.com/shieldhq/shield-admin/internal/handler"
	"github.com/shieldhq/shield-admin/internal/identity"
	"github.com/shieldhq/shield-admin/internal/logging"
	"github.com/shieldhq/shield-admin/internal/middleware"
	"github.com/shieldhq/shield-admin/internal/scheduler"
	"github.com/shieldhq/shield-admin/internal/service"
	"github.com/shieldhq/shield-admin/internal/session"
	"github.com/shieldhq/shield-admin/internal/store"
	"github.com/shieldhq/shield-admin/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		fmt.Println("shieldadmin " + info.String())
		return
	}

	if err := run(info); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(baseHandler))

	slog.Info("starting shieldadmin", "version", info.String(), "env", cfg.Env)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	records := store.New(db)

	// Upgrade the default logger so warnings and errors land in the
	// audit event log as well as stderr.
	slog.SetDefault(slog.New(logging.NewEventLogHandler(baseHandler, records)))

	if cfg.UseRedis() {
		notifier, err := store.NewNotifier(store.NotifierOptions{
			URL:            cfg.RedisURL,
			Prefix:         cfg.RedisPrefix,
			ConnectTimeout: 5 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = notifier.Close() }()
		records.AttachNotifier(notifier)
		slog.Info("redis change notification enabled")
	}

	ctx := context.Background()
	if cfg.BootstrapEnabled() {
		if err := identity.Bootstrap(ctx, records, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
			return fmt.Errorf("bootstrapping admin: %w", err)
		}
	}

	sm := session.New(db, cfg.IsDevelopment())

	provider := identity.NewStoreProvider(records)
	resolver := gate.NewResolver(records)

	feeds := service.NewFeedService(records)
	wanteds := service.NewWantedService(records)
	employees := service.NewEmployeeService(records)
	applications := service.NewApplicationService(records)
	requests := service.NewRequestService(records)
	users := service.NewUserService(records)

	for _, svc := range []interface{ Activate() }{feeds, wanteds, employees, applications, requests, users} {
		svc.Activate()
	}

	sched := scheduler.New(records, slog.Default(), cfg.AuditRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	protection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	authHandler := handler.NewAuthHandler(provider, resolver, sm, protection)
	recordsHandler := &handler.RecordsHandler{
		Feeds:        feeds,
		Wanteds:      wanteds,
		Employees:    employees,
		Applications: applications,
		Requests:     requests,
		Users:        users,
	}
	eventsHandler := handler.NewEventsHandler(records)
	healthHandler := handler.NewHealthHandler(db, sm, info)

	router := buildRouter(cfg, sm, resolver, protection, authHandler, recordsHandler, eventsHandler, healthHandler)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("stopped")
	return nil
}

func buildRouter(
	cfg *config.Config,
	sm *scs.SessionManager,
	resolver *gate.Resolver,
	protection *middleware.LoginProtection,
	authHandler *handler.AuthHandler,
	recordsHandler *handler.RecordsHandler,
	eventsHandler *handler.EventsHandler,
	healthHandler *handler.HealthHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sm.LoadAndSave)
	r.Use(middleware.SkipCSRF("/health", "/health/live", "/health/ready"))
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())))

	apiLimiter := middleware.NewGlobalRateLimiter(20, 40)

	// Probes stay unauthenticated and unthrottled.
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(protection.Middleware())
		r.Post("/login", authHandler.Login)
	})
	r.Post("/logout", authHandler.Logout)
	r.Get("/session", authHandler.Session)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiLimiter.Middleware())
		r.Use(middleware.Auth(sm))
		r.Use(middleware.RequireAdmin(sm, resolver))

		r.Get("/feeds", recordsHandler.ListFeeds)
		r.Post("/feeds", recordsHandler.CreateFeed)
		r.Post("/feeds/{id}/done", recordsHandler.MarkFeedDone)
		r.Delete("/feeds/{id}", recordsHandler.DeleteFeed)

		r.Get("/wanteds", recordsHandler.ListWanteds)
		r.Post("/wanteds", recordsHandler.CreateWanted)
		r.Put("/wanteds/{id}", recordsHandler.UpdateWanted)
		r.Delete("/wanteds/{id}", recordsHandler.DeleteWanted)

		r.Get("/employees", recordsHandler.ListEmployees)
		r.Post("/employees", recordsHandler.CreateEmployee)
		r.Put("/employees/{id}", recordsHandler.UpdateEmployee)
		r.Delete("/employees/{id}", recordsHandler.DeleteEmployee)

		r.Get("/applications", recordsHandler.ListApplications)
		r.Delete("/applications/{id}", recordsHandler.DeleteApplication)

		r.Get("/requests", recordsHandler.ListRequests)
		r.Delete("/requests/{id}", recordsHandler.DeleteRequest)

		r.Get("/users", recordsHandler.ListUsers)
		r.Post("/users", recordsHandler.CreateUser)
		r.Put("/users/{id}/role", recordsHandler.SetUserRole)
		r.Delete("/users/{id}", recordsHandler.DeleteUser)

		r.Get("/events", eventsHandler.List)
	})

	return r
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
