package controller

import "github.com/fentz26/cleanbot/internal/models"

// startTickLocked arms the cleaning step. At most one tick task is live.
func (c *Controller) startTickLocked() {
	if c.tick != nil {
		return
	}
	t := &task{name: "tick"}
	c.tick = t
	c.armTickLocked(t)
}

func (c *Controller) armTickLocked(t *task) {
	t.timer = c.clock.AfterFunc(c.cfg.TickInterval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.tick != t {
			return
		}
		c.stepLocked()
		if c.tick == t {
			c.armTickLocked(t)
		}
	})
}

// stopTickLocked cancels the cleaning step. Any callback already in flight
// sees its handle removed and does nothing.
func (c *Controller) stopTickLocked() {
	if c.tick == nil {
		return
	}
	c.tick.cancel()
	c.tick = nil
}

// stepLocked runs one simulation tick. The battery check runs first; a
// low-battery return leaves battery and progress untouched for this tick.
func (c *Controller) stepLocked() {
	if c.state.Status != models.StatusCleaning {
		c.stopTickLocked()
		return
	}

	next := c.state.Battery - c.cfg.BatteryDrain
	if next <= c.cfg.LowBatteryThreshold {
		c.logger.Info("battery low, aborting run", "battery", c.state.Battery, "threshold", c.cfg.LowBatteryThreshold)
		c.beginReturnLocked(c.cfg.Locations.LowBattery, models.SeverityWarning,
			models.KindLowBattery, "Low battery! Returning to base...")
		return
	}
	c.state.Battery = models.ClampPercent(next)

	c.state.Progress = models.ClampPercent(c.state.Progress + c.cfg.ProgressStep)
	c.logger.Debug("tick", "battery", c.state.Battery, "progress", c.state.Progress)
	if c.state.Progress >= 100 {
		c.beginReturnLocked(c.cfg.Locations.Returning, models.SeveritySuccess,
			models.KindComplete, "Cleaning complete! Returning to base.")
	}
}
