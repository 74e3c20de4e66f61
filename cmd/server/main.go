// Package main is the entry point for the FAIR risk quantification service.
// The service runs Monte Carlo simulations over FAIR (Factor Analysis of
// Information Risk) scenarios and exposes the results over an HTTP API,
// backed by a SQLite scenario store and a simulation result cache.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/quantrisk/fairsim/internal/config"
	"github.com/quantrisk/fairsim/internal/database"
	"github.com/quantrisk/fairsim/internal/modules/benchmarks"
	"github.com/quantrisk/fairsim/internal/modules/scenarios"
	"github.com/quantrisk/fairsim/internal/scheduler"
	"github.com/quantrisk/fairsim/internal/server"
	"github.com/quantrisk/fairsim/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Int("default_simulations", cfg.DefaultSimulations).
		Msg("Starting FAIR risk service")

	scenariosDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "scenarios.db"),
		Profile: database.ProfileStandard,
		Name:    "scenarios",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open scenarios database")
	}
	defer scenariosDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	repo := scenarios.NewRepository(scenariosDB.Conn())
	if err := repo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate scenarios database")
	}

	cache := scenarios.NewResultCache(cacheDB.Conn(), time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	if err := cache.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	library, err := benchmarks.NewLibrary()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load benchmark library")
	}

	sched := scheduler.New(log)
	if err := sched.Schedule(cfg.CleanupSchedule, scenarios.NewCleanupJob(cache, log)); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.CleanupSchedule).Msg("Failed to schedule cache cleanup")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:         log,
		Config:      cfg,
		ScenariosDB: scenariosDB,
		CacheDB:     cacheDB,
		Repo:        repo,
		Cache:       cache,
		Library:     library,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
