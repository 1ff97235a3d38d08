// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Casement-daemon is the window-manager service. It serves a synthetic
// filesystem over the 9P2000 subset: clients walk, open, read, and
// write files to create windows, place widgets, drive virtual devices,
// and receive input events. There is no other API.
//
// With --nested the same binary runs as the child of another instance:
// it inherits an update channel on fd 3, announces itself, ships
// screen frames to the parent, and applies input the parent forwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/casement/lib/clock"
	"github.com/bureau-foundation/casement/lib/config"
	"github.com/bureau-foundation/casement/lib/metrics"
	"github.com/bureau-foundation/casement/lib/process"
	"github.com/bureau-foundation/casement/lib/version"
	"github.com/bureau-foundation/casement/namespace"
	"github.com/bureau-foundation/casement/ninep"
	"github.com/bureau-foundation/casement/transport"
	"github.com/bureau-foundation/casement/wm"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath     string
		listenNetwork  string
		listenAddress  string
		logLevel       string
		metricsAddress string
		nested         bool
		nestedWidth    int
		nestedHeight   int
		showVersion    bool
	)

	flag.StringVar(&configPath, "config", "", "path to casement.yaml (default: CASEMENT_CONFIG, else built-in defaults)")
	flag.StringVar(&listenNetwork, "listen-network", "", "override listen network: tcp or unix")
	flag.StringVar(&listenAddress, "listen-address", "", "override listen address")
	flag.StringVar(&logLevel, "log-level", "", "override log level: debug, info, warn, error")
	flag.StringVar(&metricsAddress, "metrics-address", "", "override Prometheus /metrics listen address")
	flag.BoolVar(&nested, "nested", false, "run as a nested instance child (update channel on fd 3)")
	flag.IntVar(&nestedWidth, "nested-width", 0, "nested mode: screen width in pixels")
	flag.IntVar(&nestedHeight, "nested-height", 0, "nested mode: screen height in pixels")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("casement-daemon %s\n", version.Info())
		return nil
	}

	if nested {
		return runNested(nestedWidth, nestedHeight)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listenNetwork != "" {
		cfg.Listen.Network = listenNetwork
	}
	if listenAddress != "" {
		cfg.Listen.Address = listenAddress
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if metricsAddress != "" {
		cfg.Metrics.Address = metricsAddress
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving own executable: %w", err)
	}

	registry, err := wm.New(wm.Options{
		Logger:              logger,
		Clock:               clock.Real(),
		Spawner:             &nestedSpawner{binary: executable, logger: logger},
		ScreenWidth:         cfg.Screen.Width,
		ScreenHeight:        cfg.Screen.Height,
		DoubleClickInterval: cfg.DoubleClickInterval(),
	})
	if err != nil {
		return fmt.Errorf("building window registry: %w", err)
	}
	defer registry.Shutdown()

	if err := registry.Populate(cfg.Scene); err != nil {
		return fmt.Errorf("populating scene: %w", err)
	}

	if cfg.Metrics.Address != "" {
		go serveMetrics(ctx, cfg.Metrics.Address, logger)
	}

	if err := cfg.EnsureListenDir(); err != nil {
		return err
	}
	listener, err := transport.Listen(cfg.Listen.Network, cfg.Listen.Address)
	if err != nil {
		return fmt.Errorf("listening on %s %s: %w", cfg.Listen.Network, cfg.Listen.Address, err)
	}

	server := &ninep.Server{
		Tree:        registry.Tree(),
		Guard:       registry.Guard(),
		Logger:      logger,
		IdleTimeout: cfg.IdleTimeout(),
	}

	logger.Info("casement daemon started",
		"version", version.Short(),
		"network", cfg.Listen.Network,
		"address", listener.Addr().String(),
	)
	if err := server.Serve(ctx, listener); err != nil {
		return fmt.Errorf("serving: %w", err)
	}

	logger.Info("casement daemon stopped")
	return nil
}

// loadConfig resolves configuration: explicit flag path, then the
// CASEMENT_CONFIG environment variable, then built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("CASEMENT_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel,
	}))
}

// serveMetrics exposes the Prometheus endpoint until the context ends.
func serveMetrics(ctx context.Context, address string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: address, Handler: mux}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	logger.Info("metrics endpoint started", "address", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("metrics endpoint failed", "error", err)
	}
}

// nestedSpawner starts nested instances by re-invoking this binary
// with --nested.
type nestedSpawner struct {
	binary string
	logger *slog.Logger
}

func (s *nestedSpawner) Spawn(spec wm.SpawnSpec) (*namespace.Mount, error) {
	return namespace.SpawnNested(namespace.Options{
		Binary:    s.binary,
		Width:     spec.Width,
		Height:    spec.Height,
		Logger:    s.logger.With("window", spec.WindowID),
		OnFrame:   spec.OnFrame,
		OnConsole: spec.OnConsole,
	})
}
