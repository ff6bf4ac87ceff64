package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gravadigital/urna-api/internal/audit"
	"github.com/gravadigital/urna-api/internal/backup"
	"github.com/gravadigital/urna-api/internal/config"
	"github.com/gravadigital/urna-api/internal/domain/profile"
	"github.com/gravadigital/urna-api/internal/lifecycle"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/notify"
	"github.com/gravadigital/urna-api/internal/persist"
	"github.com/gravadigital/urna-api/internal/server"
	"github.com/gravadigital/urna-api/internal/services"
	"github.com/gravadigital/urna-api/internal/session"
	"github.com/gravadigital/urna-api/internal/storage"
	"github.com/gravadigital/urna-api/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Log.Level)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storageType, err := storage.ValidateStorageType(cfg.Storage.Type)
	if err != nil {
		log.Fatal("Invalid storage configuration", "error", err)
	}

	backend, err := storage.NewFactory(storageType).CreateBackend(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage", "type", storageType, "error", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	st := store.New(backend.Gateway,
		profile.DefaultSuperAdmin(cfg.SuperAdmin.ID, cfg.SuperAdmin.Password),
		store.WithSyncOptions(persist.Options{
			QuietPeriod: cfg.Sync.QuietPeriod,
			SyncedHold:  cfg.Sync.SyncedHold,
			SaveTimeout: cfg.Sync.SaveTimeout,
		}),
	)
	if err := st.Load(ctx); err != nil {
		// the store already fell back to defaults; keep serving and let the sync status show the failure
		log.Error("Failed to load persisted state", "type", storageType, "error", err)
	}

	recorder := audit.NewRecorder(st)
	controller := lifecycle.NewController(st, recorder, cfg.Election.DefaultWindow)

	var archive backup.Archive
	if backend.Archive != nil {
		archive = backend.Archive
	}
	backups := backup.NewController(st, recorder, archive)

	hub := notify.NewHub(st.SyncStatus, notify.AllowOrigins(cfg.AllowedOrigins()))
	st.Subscribe(hub.SyncListener())
	go hub.Run(ctx)
	go controller.RunCountdown(ctx, cfg.Election.CountdownInterval)

	srv := server.New(cfg, server.Deps{
		Store:     st,
		Services:  services.New(st, recorder),
		Lifecycle: controller,
		Recorder:  recorder,
		Resolver:  session.NewResolver(st, recorder),
		Tokens:    session.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Backups:   backups,
		Hub:       hub,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server", "error", err)
	}
	// a save still inside its quiet period is written now
	if err := st.Close(shutdownCtx); err != nil {
		log.Error("Failed to flush pending changes", "error", err)
	}

	log.Info("Urna API stopped")
}
