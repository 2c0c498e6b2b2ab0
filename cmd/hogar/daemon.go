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

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fentz26/hogar/internal/config"
	"github.com/fentz26/hogar/internal/controlplane"
	"github.com/fentz26/hogar/internal/scheduler"
	"github.com/fentz26/hogar/internal/store"
)

var (
	listenAddr    string
	storageDriver string
	storagePath   string
	redisURL      string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the Hogar daemon",
	Long:  `Starts the Hogar daemon which owns the task store and serves the HTTP API.`,
	RunE:  runDaemon,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the daemon is reachable",
	RunE:  runStatus,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	daemonCmd.Flags().StringVar(&storageDriver, "driver", "", "Store driver: sqlite, file or redis (overrides config)")
	daemonCmd.Flags().StringVar(&storagePath, "db", "", "SQLite file or data directory (overrides config)")
	daemonCmd.Flags().StringVar(&redisURL, "redis", "", "Redis URL for the redis driver (overrides config)")
}

func loadConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		path = config.Path()
	}
	return config.LoadConfig(path)
}

// newLogger builds the daemon logger. DEBUG in the environment wins over
// the configured level.
func newLogger(level string) *log.Logger {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	if os.Getenv("DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if storageDriver != "" {
		cfg.Storage.Driver = store.Driver(storageDriver)
	}
	if storagePath != "" {
		cfg.Storage.Path = storagePath
	}
	if redisURL != "" {
		cfg.Storage.RedisURL = redisURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.WithFields(log.Fields{"driver": cfg.Storage.Driver, "listen": cfg.Listen}).Info("config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("closing store")
		if err := st.Close(); err != nil {
			logger.WithError(err).Error("store close failed")
		}
	}()

	r, err := cfg.BuildRoster()
	if err != nil {
		return err
	}

	service := controlplane.NewService(st, r, controlplane.Options{
		Policy:    cfg.Policy,
		Timeslots: cfg.Timeslots,
		Logger:    logger,
	})
	server := controlplane.NewServer(service, cfg.Listen, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if cfg.Scheduler.Enabled() {
		sched := scheduler.New(service, cfg.Scheduler, logger)
		g.Go(func() error { return sched.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("daemon stopped")
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	health, err := CheckHealth(ctx)
	if health != nil {
		mark := color.GreenString("●")
		if !health.OK {
			mark = color.RedString("●")
		}
		fmt.Printf("%s daemon %s at %s (store: %s)\n", mark, health.Version, apiAddr, health.Store)
	}
	if err != nil {
		if health == nil {
			fmt.Printf("%s daemon not reachable at %s\n", color.RedString("○"), apiAddr)
		}
		return err
	}
	return nil
}
