// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bureau-foundation/casement/lib/clock"
	"github.com/bureau-foundation/casement/namespace"
	"github.com/bureau-foundation/casement/ninep"
	"github.com/bureau-foundation/casement/transport"
	"github.com/bureau-foundation/casement/wm"
)

// runNested is the child side of a nested mount: a complete,
// independent service whose screen ships to the parent over the
// inherited channel and whose input arrives on the same channel.
//
// The child optionally serves the protocol on a Unix socket named by
// CASEMENT_NESTED_SOCKET, so external clients can drive the nested
// instance directly; without it the forwarded input channel is the
// only way in.
func runNested(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("nested mode needs --nested-width and --nested-height")
	}

	logger := newLogger(os.Getenv("CASEMENT_LOG_LEVEL"))
	slog.SetDefault(logger)
	logger = logger.With("nested", true)

	channel, err := namespace.InheritedChannel()
	if err != nil {
		return fmt.Errorf("opening parent channel: %w", err)
	}
	child := namespace.NewChild(channel)
	defer child.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Frames ship on every render; the parent deduplicates by digest,
	// so rendering more often than the screen changes costs one hash.
	sender := &frameSender{child: child, logger: logger}
	registry, err := wm.New(wm.Options{
		Logger:       logger,
		Clock:        clock.Real(),
		Renderer:     sender,
		ScreenWidth:  width,
		ScreenHeight: height,
	})
	if err != nil {
		return fmt.Errorf("building window registry: %w", err)
	}
	defer registry.Shutdown()
	sender.registry = registry

	if err := child.SendHello(width, height); err != nil {
		return fmt.Errorf("sending hello: %w", err)
	}
	logger.Info("nested instance ready", "width", width, "height", height)

	// Forwarded input from the parent: pointer lines start "m ",
	// everything else is keyboard bytes.
	go inputLoop(ctx, child, registry, logger)

	if socket := os.Getenv("CASEMENT_NESTED_SOCKET"); socket != "" {
		listener, err := transport.Listen("unix", socket)
		if err != nil {
			return fmt.Errorf("listening on nested socket: %w", err)
		}
		server := &ninep.Server{
			Tree:   registry.Tree(),
			Guard:  registry.Guard(),
			Logger: logger,
		}
		logger.Info("nested instance serving", "socket", socket)
		return server.Serve(ctx, listener)
	}

	<-ctx.Done()
	return nil
}

// frameSender ships the root screen to the parent after each render
// pass. It runs under the registry mutex, so it only reads the buffer
// and writes the channel.
type frameSender struct {
	child    *namespace.Child
	registry *wm.Registry
	logger   *slog.Logger
}

func (s *frameSender) Render(window *wm.Window) {
	if s.registry == nil {
		return
	}
	if err := s.child.SendFrame(s.registry.RootBundle().Screen.Bytes()); err != nil {
		s.logger.Debug("frame send failed", "error", err)
	}
}

// inputLoop applies input the parent forwards. Reads end when the
// channel closes, which is the parent's unmount.
func inputLoop(ctx context.Context, child *namespace.Child, registry *wm.Registry, logger *slog.Logger) {
	buffer := make([]byte, 4096)
	for {
		n, err := child.ReadInput(buffer)
		if err != nil {
			logger.Debug("parent channel closed", "error", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		data := string(buffer[:n])
		if strings.HasPrefix(data, "m ") {
			for _, line := range strings.Split(strings.TrimSuffix(data, "\n"), "\n") {
				if line == "" {
					continue
				}
				if err := registry.InjectPointer(line); err != nil {
					logger.Debug("forwarded pointer rejected", "error", err)
				}
			}
			continue
		}
		if err := registry.InjectKeyboard([]byte(data)); err != nil {
			logger.Debug("forwarded keys rejected", "error", err)
		}
	}
}
