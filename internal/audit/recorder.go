// Package audit journals controller notifications into the session store.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/fentz26/cleanbot/internal/models"
	"github.com/fentz26/cleanbot/internal/store"
)

// Recorder turns the notification stream into cycles and events.
type Recorder struct {
	store  *store.Store
	logger *slog.Logger

	mu      sync.Mutex
	cycleID string
}

// NewRecorder creates a recorder writing to s. A nil logger discards output.
func NewRecorder(s *store.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{store: s, logger: logger}
}

// Run records notifications from ch until it is closed or ctx is done.
func (r *Recorder) Run(ctx context.Context, ch <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := r.Record(n); err != nil {
				r.logger.Error("journal write failed", "kind", n.Kind, "error", err)
			}
		}
	}
}

// Record writes one notification and updates the current cycle.
func (r *Recorder) Record(n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch n.Kind {
	case models.KindInitializing:
		cycle, err := r.store.StartCycle(n.Snapshot.Battery, n.Time)
		if err != nil {
			return err
		}
		r.cycleID = cycle.ID
	case models.KindReturning, models.KindLowBattery, models.KindComplete:
		if r.cycleID != "" {
			if err := r.store.SetCycleOutcome(r.cycleID, outcomeFor(n.Kind)); err != nil {
				return err
			}
		}
	}

	if _, err := r.store.RecordEvent(r.cycleID, n, hashSnapshot(n.Snapshot)); err != nil {
		return err
	}

	if n.Kind == models.KindReturned && r.cycleID != "" {
		if err := r.store.FinishCycle(r.cycleID, n.Snapshot.Battery, n.Snapshot.Progress, n.Time); err != nil {
			return err
		}
		r.cycleID = ""
	}
	return nil
}

// CurrentCycle returns the ID of the cycle in progress, or "".
func (r *Recorder) CurrentCycle() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycleID
}

func outcomeFor(kind models.NotificationKind) models.CycleOutcome {
	switch kind {
	case models.KindLowBattery:
		return models.OutcomeLowBattery
	case models.KindComplete:
		return models.OutcomeCompleted
	default:
		return models.OutcomeStopped
	}
}

// hashSnapshot creates a SHA256 hash of the state at the transition.
func hashSnapshot(s models.Snapshot) string {
	data, err := json.Marshal(s)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
