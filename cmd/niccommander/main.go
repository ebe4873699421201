package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HerbHall/niccommander/internal/config"
	"github.com/HerbHall/niccommander/internal/discovery"
	"github.com/HerbHall/niccommander/internal/metrics"
	"github.com/HerbHall/niccommander/internal/nic"
	"github.com/HerbHall/niccommander/internal/plugin"
	"github.com/HerbHall/niccommander/internal/probe"
	"github.com/HerbHall/niccommander/internal/server"
	"github.com/HerbHall/niccommander/internal/store"
	"github.com/HerbHall/niccommander/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	cfg, logger, ok := setup(*configPath, os.Stderr)
	if !ok {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("NIC Commander server starting", zap.String("version", version.Short()))

	// Metrics
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)

	// Scan history
	db, err := store.Open(context.Background(), store.Options{
		Path:        cfg.GetString("database.path"),
		BusyTimeout: cfg.GetDuration("database.busy_timeout"),
		Durable:     cfg.GetBool("database.durable"),
	})
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Create plugin registry
	registry := plugin.NewRegistry(logger)

	// Register all plugins (compile-time composition)
	plugins := []plugin.Plugin{
		nic.New(nil),
		probe.New(m),
		discovery.New(db, m),
	}
	for _, p := range plugins {
		if err := registry.Register(p); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}

	if err := registry.InitAll(cfg); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := registry.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	addr := net.JoinHostPort(cfg.GetString("server.host"), cfg.GetString("server.port"))
	srv := server.New(addr, registry, logger, server.Options{
		Gatherer:  promReg,
		RateLimit: rate.Limit(cfg.GetFloat64("server.rate_limit.rps")),
		Burst:     cfg.GetInt("server.rate_limit.burst"),
	})

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("NIC Commander server ready", zap.String("addr", addr))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	registry.StopAll()

	logger.Info("NIC Commander server stopped")
}

// setup loads configuration, then the logger it selects. No logger exists
// yet, so failures go to stderr.
func setup(configPath string, stderr io.Writer) (config.Config, *zap.Logger, bool) {
	v, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "niccommander: %v\n", err)
		return nil, nil, false
	}
	cfg := config.New(v)

	logger, err := newLogger(cfg.GetBool("log.development"), cfg.GetString("log.level"))
	if err != nil {
		fmt.Fprintf(stderr, "niccommander: build logger: %v\n", err)
		return nil, nil, false
	}
	return cfg, logger, true
}

func newLogger(development bool, level string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if development {
		zc = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		zc.Level = lvl
	}
	return zc.Build()
}
