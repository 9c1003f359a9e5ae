// Package models defines the core domain types for cleanbot.
package models

import "time"

// DeploymentPhase tracks whether a deploy command is in flight or completed.
type DeploymentPhase string

const (
	PhaseIdle      DeploymentPhase = "idle"
	PhaseDeploying DeploymentPhase = "deploying"
	PhaseDeployed  DeploymentPhase = "deployed"
)

// RobotStatus is the operational state of the robot.
type RobotStatus string

const (
	StatusIdle      RobotStatus = "idle"
	StatusCleaning  RobotStatus = "cleaning"
	StatusReturning RobotStatus = "returning"
	// StatusCharging and StatusOffline are rendered by the dashboard but no
	// controller transition produces them.
	StatusCharging RobotStatus = "charging"
	StatusOffline  RobotStatus = "offline"
)

// Severity classifies a notification for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// NotificationKind identifies which transition produced a notification.
type NotificationKind string

const (
	KindInitializing NotificationKind = "initializing"
	KindDeployed     NotificationKind = "deployed"
	KindReturning    NotificationKind = "returning"
	KindLowBattery   NotificationKind = "low_battery"
	KindComplete     NotificationKind = "complete"
	KindReturned     NotificationKind = "returned"
)

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Phase    DeploymentPhase `json:"deployment_phase"`
	Status   RobotStatus     `json:"robot_status"`
	Battery  int             `json:"battery_level"`
	Progress int             `json:"cleaning_progress"`
	Location string          `json:"location"`
}

// Notification is a transient event emitted on every transition.
type Notification struct {
	ID       string           `json:"id"`
	Severity Severity         `json:"severity"`
	Kind     NotificationKind `json:"kind"`
	Message  string           `json:"message"`
	Time     time.Time        `json:"time"`
	Snapshot Snapshot         `json:"snapshot"`
}

// CycleOutcome records why a deployment cycle ended.
type CycleOutcome string

const (
	OutcomeRunning    CycleOutcome = "running"
	OutcomeStopped    CycleOutcome = "stopped"
	OutcomeLowBattery CycleOutcome = "low_battery"
	OutcomeCompleted  CycleOutcome = "completed"
)

// Cycle is one deploy → return run recorded in the session journal.
type Cycle struct {
	ID            string       `json:"id"`
	Outcome       CycleOutcome `json:"outcome"`
	StartBattery  int          `json:"start_battery"`
	EndBattery    int          `json:"end_battery"`
	FinalProgress int          `json:"final_progress"`
	StartedAt     time.Time    `json:"started_at"`
	EndedAt       *time.Time   `json:"ended_at,omitempty"`
}

// Event is a journaled notification.
type Event struct {
	ID       string           `json:"id"`
	CycleID  string           `json:"cycle_id,omitempty"`
	Kind     NotificationKind `json:"kind"`
	Severity Severity         `json:"severity"`
	Message  string           `json:"message"`
	Hash     string           `json:"snapshot_hash"`
	Time     time.Time        `json:"time"`
}

// SessionStats summarises the journal for the quick stats panel.
type SessionStats struct {
	TotalRuns       int `json:"total_runs"`
	CompletedRuns   int `json:"completed_runs"`
	LowBatteryRuns  int `json:"low_battery_runs"`
	StoppedRuns     int `json:"stopped_runs"`
	BatteryUsed     int `json:"battery_used"`
	ProgressCleaned int `json:"progress_cleaned"`
}
