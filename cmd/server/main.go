package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tillpos/internal/account"
	"tillpos/internal/branch"
	"tillpos/internal/catalog"
	"tillpos/internal/config"
	"tillpos/internal/handler"
	"tillpos/internal/infra"
	"tillpos/internal/order"
	"tillpos/internal/router"
	"tillpos/internal/session"
	"tillpos/internal/shift"
	"tillpos/internal/storage"
	"tillpos/internal/syncer"
	"tillpos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := storage.Open(cfg.StorePath)
	if err != nil {
		// A failed schema migration lands here too: the store refuses to open
		// rather than run against a half-migrated file.
		log.Fatal().Err(err).Str("path", cfg.StorePath).Msg("failed to open store")
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	branches := branch.NewService(store)
	accounts := account.NewService(store, cfg)
	catalogSvc := catalog.NewService(store)
	shifts := shift.NewLedger(store)
	orders := order.NewLedger(store)
	sessions := session.NewService(store)
	coord := syncer.NewCoordinator(store)

	if cfg.SeedDefaults {
		defaultBranch, err := branches.EnsureDefault(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed default branch")
		}
		if err := accounts.EnsureDefaults(ctx, defaultBranch.ID); err != nil {
			log.Fatal().Err(err).Msg("failed to seed default accounts")
		}
		if err := catalogSvc.EnsureDefaults(ctx, defaultBranch.ID); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo catalog")
		}
	}

	// Empty SYNC_REMOTE_URL keeps the simulated remote: exports are logged,
	// the watermark still advances.
	var exporter infra.Exporter = infra.LogExporter{}
	if cfg.SyncRemoteURL != "" {
		exporter = infra.NewHTTPExporter(cfg.SyncRemoteURL)
	}
	breaker := infra.NewCircuitBreaker(cfg.CBFailureThreshold, cfg.CBSuccessThreshold,
		time.Duration(cfg.CBCooldownSeconds)*time.Second)
	syncWorker := worker.NewSyncWorker(coord, exporter, breaker,
		time.Duration(cfg.SyncIntervalSeconds)*time.Second, cfg.SyncMaxRetries)
	go syncWorker.Run(ctx)

	r := router.New(cfg, router.Handlers{
		Health:  handler.NewHealthHandler(store, breaker),
		Auth:    handler.NewAuthHandler(accounts, sessions),
		Product: handler.NewProductHandler(catalogSvc, sessions),
		Order:   handler.NewOrderHandler(orders, sessions),
		Shift:   handler.NewShiftHandler(shifts),
		Branch:  handler.NewBranchHandler(branches),
		Session: handler.NewSessionHandler(sessions, branches),
		Sync:    handler.NewSyncHandler(coord, syncWorker),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("tillpos backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
