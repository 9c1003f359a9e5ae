// Package controller simulates the robot's deploy, clean, return lifecycle.
package controller

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fentz26/cleanbot/internal/clock"
	"github.com/fentz26/cleanbot/internal/models"
)

// Controller owns the simulated robot state. Deploy and Stop are the only
// external mutations; the cleaning tick runs internally while the robot is
// cleaning.
type Controller struct {
	cfg    *Config
	clock  clock.Clock
	logger *slog.Logger

	mu    sync.Mutex
	state models.Snapshot

	// pending is the deploy or return transition waiting on its latency.
	pending *task
	// tick is the live cleaning step, nil unless the robot is cleaning.
	tick *task

	subs    map[int]chan models.Notification
	nextSub int
	closed  bool
}

// task is a handle on one scheduled callback. A callback only acts while its
// handle is still installed on the controller.
type task struct {
	name  string
	timer clock.Timer
}

func (t *task) cancel() {
	if t != nil && t.timer != nil {
		t.timer.Stop()
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source. Defaults to clock.Real().
func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) {
		if l != nil {
			ctl.logger = l
		}
	}
}

// New creates a controller in the idle state.
func New(cfg *Config, opts ...Option) *Controller {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	c := &Controller{
		cfg:    cfg,
		clock:  clock.Real(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		state: models.Snapshot{
			Phase:    models.PhaseIdle,
			Status:   models.StatusIdle,
			Battery:  models.ClampPercent(cfg.InitialBattery),
			Progress: 0,
			Location: cfg.Locations.Home,
		},
		subs: make(map[int]chan models.Notification),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the configuration the controller runs with.
func (c *Controller) Config() Config {
	return *c.cfg
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Deploy starts a deployment. It is a no-op unless the deployment phase is
// idle.
func (c *Controller) Deploy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.state.Phase != models.PhaseIdle {
		c.logger.Debug("deploy ignored", "phase", c.state.Phase, "status", c.state.Status)
		return
	}

	c.state.Phase = models.PhaseDeploying
	c.state.Progress = 0
	c.notifyLocked(models.SeverityInfo, models.KindInitializing, "Initializing robot systems...")
	c.scheduleLocked("deploy", c.cfg.DeployLatency, c.finishDeployLocked)
}

// Stop sends the robot back to base. It is a no-op while nothing is
// deployed. Calling it while already returning restarts the return latency
// and keeps the current location.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.state.Phase == models.PhaseIdle {
		c.logger.Debug("stop ignored", "status", c.state.Status)
		return
	}

	location := c.cfg.Locations.Returning
	if c.state.Status == models.StatusReturning {
		location = c.state.Location
	}
	c.beginReturnLocked(location, models.SeverityInfo,
		models.KindReturning, "Robot returning to base...")
}

// Close cancels every scheduled transition and closes all subscriptions.
// Commands issued after Close are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.stopTickLocked()
	c.pending.cancel()
	c.pending = nil
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

func (c *Controller) finishDeployLocked() {
	c.state.Phase = models.PhaseDeployed
	c.state.Status = models.StatusCleaning
	c.state.Location = c.cfg.Locations.Cleaning
	c.notifyLocked(models.SeveritySuccess, models.KindDeployed, "Robot deployed successfully!")
	c.startTickLocked()
}

func (c *Controller) beginReturnLocked(location string, sev models.Severity, kind models.NotificationKind, msg string) {
	c.stopTickLocked()
	c.pending.cancel()
	c.pending = nil

	c.state.Status = models.StatusReturning
	c.state.Location = location
	c.notifyLocked(sev, kind, msg)
	c.scheduleLocked("return", c.cfg.ReturnLatency, c.finishReturnLocked)
}

func (c *Controller) finishReturnLocked() {
	c.state.Phase = models.PhaseIdle
	c.state.Status = models.StatusIdle
	c.state.Location = c.cfg.Locations.Home
	c.notifyLocked(models.SeveritySuccess, models.KindReturned, "Robot returned to base")
}

// scheduleLocked installs fn as the pending one-shot transition.
func (c *Controller) scheduleLocked(name string, d time.Duration, fn func()) {
	t := &task{name: name}
	c.pending = t
	t.timer = c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.pending != t {
			return
		}
		c.pending = nil
		fn()
	})
}
