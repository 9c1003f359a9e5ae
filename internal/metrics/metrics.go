// Package metrics exposes the simulated robot state to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/fentz26/cleanbot/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var allStatuses = []models.RobotStatus{
	models.StatusIdle,
	models.StatusCleaning,
	models.StatusReturning,
	models.StatusCharging,
	models.StatusOffline,
}

var allPhases = []models.DeploymentPhase{
	models.PhaseIdle,
	models.PhaseDeploying,
	models.PhaseDeployed,
}

// SnapshotSource is anything that can report the current robot state.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// Collector reads the controller snapshot on every scrape and counts
// notifications as they arrive.
type Collector struct {
	source SnapshotSource

	batteryPercent  prometheus.Gauge
	progressPercent prometheus.Gauge
	cleanedArea     prometheus.Gauge
	status          *prometheus.GaugeVec
	phase           *prometheus.GaugeVec
	notifications   *prometheus.CounterVec
}

// NewCollector creates a collector backed by source.
func NewCollector(source SnapshotSource) *Collector {
	return &Collector{
		source: source,
		batteryPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cleanbot_battery_percent",
			Help: "Battery percentage (0-100)",
		}),
		progressPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cleanbot_cleaning_progress_percent",
			Help: "Cleaning progress of the current run (0-100)",
		}),
		cleanedArea: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cleanbot_cleaned_area_square_meters",
			Help: "Area cleaned in the current run (square meters)",
		}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cleanbot_robot_status",
			Help: "Robot status (1 for the active status label)",
		}, []string{"status"}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cleanbot_deployment_phase",
			Help: "Deployment phase (1 for the active phase label)",
		}, []string{"phase"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cleanbot_notifications_total",
			Help: "Notifications emitted by the controller",
		}, []string{"kind", "severity"}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.batteryPercent.Describe(ch)
	c.progressPercent.Describe(ch)
	c.cleanedArea.Describe(ch)
	c.status.Describe(ch)
	c.phase.Describe(ch)
	c.notifications.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Snapshot()

	c.batteryPercent.Set(float64(s.Battery))
	c.progressPercent.Set(float64(models.ClampPercent(s.Progress)))
	c.cleanedArea.Set(float64(models.CleanedArea(s.Progress, models.DefaultTotalArea)))
	for _, st := range allStatuses {
		c.status.WithLabelValues(string(st)).Set(boolGauge(st == s.Status))
	}
	for _, ph := range allPhases {
		c.phase.WithLabelValues(string(ph)).Set(boolGauge(ph == s.Phase))
	}

	c.batteryPercent.Collect(ch)
	c.progressPercent.Collect(ch)
	c.cleanedArea.Collect(ch)
	c.status.Collect(ch)
	c.phase.Collect(ch)
	c.notifications.Collect(ch)
}

// Observe counts one notification.
func (c *Collector) Observe(n models.Notification) {
	c.notifications.WithLabelValues(string(n.Kind), string(n.Severity)).Inc()
}

// Run counts notifications from ch until it is closed or ctx is done.
func (c *Collector) Run(ctx context.Context, ch <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			c.Observe(n)
		}
	}
}

// Handler registers the collector on a fresh registry and returns the
// scrape handler.
func Handler(c *Collector) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(c); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
