package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/cleanbot/internal/clock"
	"github.com/fentz26/cleanbot/internal/metrics"
	"github.com/fentz26/cleanbot/internal/models"
	"github.com/spf13/cobra"
)

var (
	simDuration  time.Duration
	simStopAfter time.Duration
	simSpeed     float64
	metricsAddr  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one headless cleaning cycle",
	Long: `Deploys the simulated robot and logs every notification until the robot is back at base,
the --duration elapses, or the process is interrupted. Prints a journal summary on exit.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().DurationVar(&simDuration, "duration", 0, "Wall-clock limit for the run (0 = until the robot returns)")
	simulateCmd.Flags().DurationVar(&simStopAfter, "stop-after", 0, "Issue a stop command after this much simulated time (0 = never)")
	simulateCmd.Flags().Float64Var(&simSpeed, "speed", 1, "Simulation speed multiplier")
	simulateCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	if simSpeed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", simSpeed)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	clk := clock.Scaled(clock.Real(), simSpeed)
	sess, err := newSession(cfg, clk, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Error("journal close failed", "error", err)
		}
	}()

	// Metrics endpoint
	serverErr := make(chan error, 1)
	var server *http.Server
	if metricsAddr != "" {
		collector := metrics.NewCollector(sess.ctrl)
		handler, err := metrics.Handler(collector)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		msub := sess.ctrl.Subscribe(0)
		go collector.Run(context.Background(), msub.C)

		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		server = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			err := server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
		logger.Info("serving metrics", "addr", metricsAddr)
	}

	returned := make(chan struct{})
	sub := sess.ctrl.Subscribe(0)
	go logNotifications(logger, sub.C, returned)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var limit <-chan time.Time
	if simDuration > 0 {
		limit = time.After(simDuration)
	}
	if simStopAfter > 0 {
		stopTimer := clk.AfterFunc(simStopAfter, func() {
			logger.Info("issuing stop", "after", simStopAfter)
			sess.ctrl.Stop()
		})
		defer stopTimer.Stop()
	}

	logger.Info("starting simulation", "battery", cfg.InitialBattery, "speed", simSpeed)
	sess.ctrl.Deploy()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
	case <-limit:
		logger.Info("duration elapsed", "duration", simDuration)
	case <-returned:
	case err := <-serverErr:
		logger.Error("metrics server error", "error", err)
		return err
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	final := sess.ctrl.Snapshot()
	sess.Stop()
	return printSummary(cmd, final, sess)
}

// logNotifications logs every notification and closes returned once the
// robot is back at base.
func logNotifications(logger *slog.Logger, ch <-chan models.Notification, returned chan<- struct{}) {
	closed := false
	for n := range ch {
		logger.Info(n.Message,
			"kind", n.Kind,
			"severity", n.Severity,
			"status", n.Snapshot.Status,
			"battery", n.Snapshot.Battery,
			"progress", n.Snapshot.Progress,
		)
		if n.Kind == models.KindReturned && !closed {
			close(returned)
			closed = true
		}
	}
}

func printSummary(cmd *cobra.Command, final models.Snapshot, sess *session) error {
	stats, err := sess.store.Stats()
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	events, err := sess.store.ListEvents(0)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Final state: %s at %s, battery %d%%, progress %d%%\n",
		final.Status.Label(), final.Location, final.Battery, models.ClampPercent(final.Progress))
	fmt.Fprintf(out, "Runs: %d (completed %d, low battery %d, stopped %d)\n",
		stats.TotalRuns, stats.CompletedRuns, stats.LowBatteryRuns, stats.StoppedRuns)
	fmt.Fprintf(out, "Battery used: %d%%, area cleaned: %d m²\n",
		stats.BatteryUsed, models.CleanedArea(stats.ProgressCleaned, models.DefaultTotalArea))
	fmt.Fprintf(out, "Events journaled: %d\n", len(events))
	return nil
}
