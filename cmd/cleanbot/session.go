package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fentz26/cleanbot/internal/audit"
	"github.com/fentz26/cleanbot/internal/clock"
	"github.com/fentz26/cleanbot/internal/controller"
	"github.com/fentz26/cleanbot/internal/store"
)

// session wires one controller to its journal for the lifetime of a command.
type session struct {
	ctrl     *controller.Controller
	store    *store.Store
	recorder *audit.Recorder
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func loadConfig() (*controller.Config, error) {
	if configPath == "" {
		return controller.LoadConfigFromHome()
	}
	return controller.LoadConfig(configPath)
}

func newSession(cfg *controller.Config, clk clock.Clock, logger *slog.Logger) (*session, error) {
	s, err := store.New()
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	ctrl := controller.New(cfg, controller.WithClock(clk), controller.WithLogger(logger))
	rec := audit.NewRecorder(s, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sub := ctrl.Subscribe(64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		rec.Run(ctx, sub.C)
	}()

	return &session{ctrl: ctrl, store: s, recorder: rec, cancel: cancel, done: done}, nil
}

// Stop halts the controller and waits until the recorder has journaled every
// delivered notification. The store stays open for reads.
func (s *session) Stop() {
	s.stopOnce.Do(func() {
		s.ctrl.Close()
		<-s.done
		s.cancel()
	})
}

// Close stops the session and closes the journal.
func (s *session) Close() error {
	s.Stop()
	return s.store.Close()
}
