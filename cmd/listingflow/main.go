package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/sellerdesk/listingflow/internal/adapter/fsm"
	"github.com/sellerdesk/listingflow/internal/adapter/otel"
	"github.com/sellerdesk/listingflow/internal/adapter/river"
	"github.com/sellerdesk/listingflow/internal/adapter/sqlite"
	"github.com/sellerdesk/listingflow/internal/app"
	"github.com/sellerdesk/listingflow/internal/domain"

	handler "github.com/sellerdesk/listingflow/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("listingflow exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "listingflow.db")
	adminActor := envOrDefault("ADMIN_ACTOR", "admin")

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Observability ---
	otelCfg := otel.ConfigFromEnv()
	providers, err := otel.Setup(ctx, otelCfg)
	if err != nil {
		return err
	}

	// --- Adapters (out) ---
	db, err := otel.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return err
	}

	audit := sqlite.NewAuditTrail(db)
	caps := sqlite.NewCapabilityResolver(db)

	// Bootstrap operator so a fresh database is usable without manual grants.
	for _, c := range []domain.Capability{
		domain.CapabilitySubmit,
		domain.CapabilityApprove,
		domain.CapabilitySuspend,
		domain.CapabilityArchive,
	} {
		if err := caps.Grant(ctx, adminActor, c); err != nil {
			return err
		}
	}

	riverClient, err := river.Setup(ctx, db)
	if err != nil {
		return err
	}
	if err := riverClient.Start(ctx); err != nil {
		return err
	}

	publisher := river.NewPublisher(riverClient)

	// --- Application ---
	svc := app.NewApprovalService(
		otel.NewTracingRepository(repo),
		otel.NewTracingAuditTrail(audit),
		caps,
		fsm.New(),
		otel.NewTracingPublisher(publisher),
		logger,
	)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(otelCfg.ServiceName, otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("listingflow", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listingflow listening", "port", port, "docs", "http://localhost:"+port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-done:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		logger.Error("river shutdown", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Error("otel shutdown", "error", err)
	}

	logger.Info("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
