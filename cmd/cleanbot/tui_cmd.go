package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fentz26/cleanbot/internal/clock"
	"github.com/fentz26/cleanbot/internal/tui"
	"github.com/spf13/cobra"
)

var logFile string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file (default: discard)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	// stdout belongs to the dashboard
	var w io.Writer = io.Discard
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		w = f
	}
	logger, err := newLogger(w)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sess, err := newSession(cfg, clock.Real(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Error("session close failed", "error", err)
		}
	}()

	sub := sess.ctrl.Subscribe(0)
	app := tui.New(sess.ctrl, sub.C, tui.WithJournal(sess.store), tui.WithLogger(logger.With(slog.String("component", "tui"))))
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
