package main

import (
	"net"
	"os/signal"
	"syscall"

	"github.com/eternalApril/kilodb/internal/config"
	"github.com/eternalApril/kilodb/internal/logger"
	"github.com/eternalApril/kilodb/internal/metrics"
	"github.com/eternalApril/kilodb/internal/server"
	"github.com/eternalApril/kilodb/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the KiloDB server",
	Long: `Start the KiloDB server. Settings are read from config.yaml, then from environment
variables prefixed with KILODB_ (e.g. KILODB_SERVER_PORT=6390), then from the flags below.`,
	PreRunE: bindServeFlags,
	RunE:    runServe,
}

// serveFlags maps each flag to its config key
var serveFlags = map[string]string{
	"host":      "server.host",
	"port":      "server.port",
	"shards":    "storage.shards",
	"log-level": "log.level",
	"metrics":   "metrics.enabled",
}

func init() {
	flags := serveCmd.Flags()
	flags.String("config", ".", "directory containing config.yaml")
	flags.String("host", "0.0.0.0", "address to listen on")
	flags.String("port", "6380", "port to listen on")
	flags.Uint("shards", 32, "number of keyspace shards, a power of two up to 64")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("metrics", false, "expose Prometheus metrics on metrics.address")
}

// bindServeFlags makes explicitly set flags override the file and the environment
func bindServeFlags(cmd *cobra.Command, _ []string) error {
	for flag, key := range serveFlags {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	log, level := logger.NewAtomic(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync() //nolint:errcheck

	if file := viper.ConfigFileUsed(); file != "" {
		config.Watch(func(c *config.Config) {
			level.SetLevel(logger.ParseLevel(c.Log.Level))
			log.Info("config reloaded", zap.String("log_level", level.String()))
		}, func(err error) {
			log.Warn("config reload failed", zap.Error(err))
		})
	}

	log.Info("KiloDB starting",
		zap.String("version", Version),
		zap.String("port", cfg.Server.Port),
		zap.Uint("shards", cfg.Storage.Shards),
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	db, err := storage.NewShardedMapStorage(cfg.Storage.Shards, storage.WithExpireHook(m.KeyExpired))
	if err != nil {
		log.Error("cant initialize storage", zap.Error(err))
		return err
	}

	engine, err := server.NewEngine(db, cfg, log, server.WithMetrics(m))
	if err != nil {
		log.Error("cant initialize engine", zap.Error(err))
		return err
	}
	defer engine.Shutdown()

	srv := server.NewServer(engine, cfg.Server, log)
	err = m.RegisterGaugeFunc("connected_clients", "Number of open client connections", func() float64 {
		return float64(srv.ClientCount())
	})
	if err != nil {
		return err
	}

	address := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		log.Error("listener error", zap.Error(err))
		return err
	}
	log.Info("listening on", zap.String("address", address))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, listener)
	})
	if m != nil {
		g.Go(func() error {
			return m.Serve(gctx, cfg.Metrics.Address, log)
		})
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down...")
	}()

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}

	log.Info("KiloDB stopped")
	return nil
}
