// Package store provides the SQLite-backed session journal for cleanbot.
// The journal lives in memory and is discarded when the process exits.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fentz26/cleanbot/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrCycleNotFound is returned when a cycle ID does not exist.
var ErrCycleNotFound = errors.New("cycle not found")

// Store provides access to the session journal.
type Store struct {
	db *sql.DB
}

// New opens an in-memory journal and runs migrations.
func New() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every connection to :memory: is a separate database; pin to one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		outcome TEXT NOT NULL DEFAULT 'running',
		start_battery INTEGER NOT NULL,
		end_battery INTEGER,
		final_progress INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		ended_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		cycle_id TEXT,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		snapshot_hash TEXT NOT NULL,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_cycle_id ON events(cycle_id);
	CREATE INDEX IF NOT EXISTS idx_cycles_outcome ON cycles(outcome);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Cycle Operations ---

// StartCycle inserts a running cycle.
func (s *Store) StartCycle(startBattery int, at time.Time) (*models.Cycle, error) {
	cycle := &models.Cycle{
		ID:           uuid.New().String(),
		Outcome:      models.OutcomeRunning,
		StartBattery: startBattery,
		StartedAt:    at.UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO cycles (id, outcome, start_battery, started_at) VALUES (?, ?, ?, ?)`,
		cycle.ID, cycle.Outcome, cycle.StartBattery, cycle.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cycle: %w", err)
	}
	return cycle, nil
}

// SetCycleOutcome records why a cycle is returning. Only the first cause is
// kept.
func (s *Store) SetCycleOutcome(id string, outcome models.CycleOutcome) error {
	result, err := s.db.Exec(
		`UPDATE cycles SET outcome = ? WHERE id = ? AND outcome = ?`,
		outcome, id, models.OutcomeRunning,
	)
	if err != nil {
		return fmt.Errorf("update cycle outcome: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		if _, err := s.GetCycle(id); err != nil {
			return err
		}
	}
	return nil
}

// FinishCycle closes a cycle with the final battery and progress values.
func (s *Store) FinishCycle(id string, endBattery, finalProgress int, at time.Time) error {
	result, err := s.db.Exec(
		`UPDATE cycles SET end_battery = ?, final_progress = ?, ended_at = ? WHERE id = ?`,
		endBattery, finalProgress, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finish cycle: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrCycleNotFound
	}
	return nil
}

// GetCycle retrieves a cycle by ID.
func (s *Store) GetCycle(id string) (*models.Cycle, error) {
	row := s.db.QueryRow(
		`SELECT id, outcome, start_battery, end_battery, final_progress, started_at, ended_at FROM cycles WHERE id = ?`,
		id,
	)
	cycle, err := scanCycle(row)
	if err == sql.ErrNoRows {
		return nil, ErrCycleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cycle: %w", err)
	}
	return cycle, nil
}

// ListCycles returns all cycles, newest first.
func (s *Store) ListCycles() ([]models.Cycle, error) {
	rows, err := s.db.Query(
		`SELECT id, outcome, start_battery, end_battery, final_progress, started_at, ended_at FROM cycles ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var cycles []models.Cycle
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		cycles = append(cycles, *cycle)
	}
	return cycles, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCycle(row scanner) (*models.Cycle, error) {
	cycle := &models.Cycle{}
	var endBattery sql.NullInt64
	var endedAt sql.NullTime

	err := row.Scan(&cycle.ID, &cycle.Outcome, &cycle.StartBattery, &endBattery,
		&cycle.FinalProgress, &cycle.StartedAt, &endedAt)
	if err != nil {
		return nil, err
	}
	if endBattery.Valid {
		cycle.EndBattery = int(endBattery.Int64)
	}
	if endedAt.Valid {
		cycle.EndedAt = &endedAt.Time
	}
	return cycle, nil
}

// --- Event Operations ---

// RecordEvent appends a notification to the journal.
func (s *Store) RecordEvent(cycleID string, n models.Notification, snapshotHash string) (*models.Event, error) {
	event := &models.Event{
		ID:       n.ID,
		CycleID:  cycleID,
		Kind:     n.Kind,
		Severity: n.Severity,
		Message:  n.Message,
		Hash:     snapshotHash,
		Time:     n.Time.UTC(),
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	_, err := s.db.Exec(
		`INSERT INTO events (id, cycle_id, kind, severity, message, snapshot_hash, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, nullString(cycleID), event.Kind, event.Severity, event.Message, event.Hash, event.Time,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// ListEvents returns the most recent events, newest first. A limit of zero
// or less returns everything.
func (s *Store) ListEvents(limit int) ([]models.Event, error) {
	query := `SELECT id, cycle_id, kind, severity, message, snapshot_hash, timestamp FROM events ORDER BY timestamp DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		var cycleID sql.NullString
		if err := rows.Scan(&e.ID, &cycleID, &e.Kind, &e.Severity, &e.Message, &e.Hash, &e.Time); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if cycleID.Valid {
			e.CycleID = cycleID.String
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// --- Stats ---

// Stats aggregates the journal. Only finished cycles contribute battery and
// progress totals.
func (s *Store) Stats() (*models.SessionStats, error) {
	stats := &models.SessionStats{}
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN ended_at IS NOT NULL THEN start_battery - end_battery ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN ended_at IS NOT NULL THEN final_progress ELSE 0 END), 0)
		FROM cycles`,
		models.OutcomeCompleted, models.OutcomeLowBattery, models.OutcomeStopped,
	).Scan(&stats.TotalRuns, &stats.CompletedRuns, &stats.LowBatteryRuns, &stats.StoppedRuns,
		&stats.BatteryUsed, &stats.ProgressCleaned)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
