package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicolaschan/baybridge/blob"
	"github.com/nicolaschan/baybridge/config"
	"github.com/nicolaschan/baybridge/controller"
	"github.com/nicolaschan/baybridge/gctask"
	"github.com/nicolaschan/baybridge/internal/logger"
	"github.com/nicolaschan/baybridge/internal/metrics"
	"github.com/nicolaschan/baybridge/pkg/health"
	"github.com/nicolaschan/baybridge/pkg/storage"
	"github.com/nicolaschan/baybridge/pkg/storage/memory"
	"github.com/nicolaschan/baybridge/pkg/storage/postgres"
	"github.com/nicolaschan/baybridge/server"
	"github.com/nicolaschan/baybridge/syncer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a baybridge peer process",
	Long: `serve starts the HTTP server facade and the periodic GC/anti-entropy
task controller and, when enabled in the configuration, the Prometheus
metrics endpoint and the liveness/readiness health endpoint, all wired
against the configured event store and blob directory.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := newLogger(cfg)
	log.Info("starting baybridge", logger.Field{Key: "environment", Value: cfg.Environment})

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	blobDir := cfg.BaseDir + "/blobs"
	blobs, err := blob.NewStore(blobDir)
	if err != nil {
		return fmt.Errorf("opening blob store: %w", err)
	}

	collector := metrics.NewCollector()
	peers := dialPeers(cfg)

	srv := server.New(cfg.ListenAddr, store, blobs, cfg.Peers, log, collector)

	gc := gctask.New(store, log, collector)
	sync := syncer.New(store, log, cfg.Tasks.RPCTimeout, collector)
	ctl := controller.New(cfg.Tasks.Period, gc, sync, peers, log)

	checker := health.NewChecker(store, ctl, 3*cfg.Tasks.Period)
	var healthSrv *health.Server
	if cfg.Health.Enabled {
		healthSrv = health.NewServer(checker, log, cfg.Health.Addr)
		if err := healthSrv.Start(); err != nil {
			return fmt.Errorf("starting health server: %w", err)
		}
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", logger.Field{Key: "error", Value: err.Error()})
			}
		}()
		log.Info("metrics server listening", logger.Field{Key: "addr", Value: cfg.Metrics.Addr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go ctl.Run(ctx)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", logger.Field{Key: "addr", Value: cfg.ListenAddr})
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", logger.Field{Key: "error", Value: err.Error()})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", logger.Field{Key: "error", Value: err.Error()})
	}
	if healthSrv != nil {
		_ = healthSrv.Stop(shutdownCtx)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	<-ctl.Stopped()
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.EventStore, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		return postgres.NewStore(ctx, &postgres.Config{
			Host:     cfg.Storage.Postgres.Host,
			Port:     cfg.Storage.Postgres.Port,
			User:     cfg.Storage.Postgres.User,
			Password: cfg.Storage.Postgres.Password,
			Database: cfg.Storage.Postgres.Database,
			SSLMode:  cfg.Storage.Postgres.SSLMode,
		})
	case "memory", "":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
