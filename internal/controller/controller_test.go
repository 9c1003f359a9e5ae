package controller

import (
	"testing"
	"time"

	"github.com/fentz26/cleanbot/internal/clock"
	"github.com/fentz26/cleanbot/internal/models"
)

func newTestController(t *testing.T, cfg *Config) (*Controller, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	c := New(cfg, WithClock(fake))
	t.Cleanup(c.Close)
	return c, fake
}

// drain returns every notification currently buffered on sub.
func drain(sub *Subscription) []models.Notification {
	var out []models.Notification
	for {
		select {
		case n, ok := <-sub.C:
			if !ok {
				return out
			}
			out = append(out, n)
		default:
			return out
		}
	}
}

func kinds(ns []models.Notification) []models.NotificationKind {
	out := make([]models.NotificationKind, len(ns))
	for i, n := range ns {
		out[i] = n.Kind
	}
	return out
}

func TestInitialState(t *testing.T) {
	c, _ := newTestController(t, nil)

	got := c.Snapshot()
	want := models.Snapshot{
		Phase:    models.PhaseIdle,
		Status:   models.StatusIdle,
		Battery:  78,
		Progress: 0,
		Location: "Home Base",
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestDeployReachesCleaning(t *testing.T) {
	c, fake := newTestController(t, nil)
	sub := c.Subscribe(0)

	c.Deploy()
	s := c.Snapshot()
	if s.Phase != models.PhaseDeploying || s.Status != models.StatusIdle {
		t.Fatalf("Expected (deploying, idle), got (%s, %s)", s.Phase, s.Status)
	}

	fake.Advance(1999 * time.Millisecond)
	if c.Snapshot().Status != models.StatusIdle {
		t.Fatal("deploy transition fired early")
	}
	fake.Advance(time.Millisecond)

	want := models.Snapshot{
		Phase:    models.PhaseDeployed,
		Status:   models.StatusCleaning,
		Battery:  78,
		Progress: 0,
		Location: "Zone A - North Side",
	}
	if got := c.Snapshot(); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	ns := drain(sub)
	if len(ns) != 2 {
		t.Fatalf("Expected 2 notifications, got %v", kinds(ns))
	}
	if ns[0].Kind != models.KindInitializing || ns[0].Severity != models.SeverityInfo {
		t.Errorf("unexpected first notification %+v", ns[0])
	}
	if ns[1].Kind != models.KindDeployed || ns[1].Severity != models.SeveritySuccess {
		t.Errorf("unexpected second notification %+v", ns[1])
	}
}

func TestFirstTick(t *testing.T) {
	c, fake := newTestController(t, nil)
	c.Deploy()
	fake.Advance(2 * time.Second)

	fake.Advance(2 * time.Second)

	s := c.Snapshot()
	if s.Battery != 77 || s.Progress != 3 {
		t.Errorf("Expected battery=77 progress=3, got battery=%d progress=%d", s.Battery, s.Progress)
	}
	if s.Status != models.StatusCleaning {
		t.Errorf("Expected cleaning, got %s", s.Status)
	}
}

func TestLowBatteryFreezesAndReturns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialBattery = 30
	c, fake := newTestController(t, cfg)
	sub := c.Subscribe(64)

	c.Deploy()
	fake.Advance(2 * time.Second)
	// 30 -> 21 takes nine ticks.
	fake.Advance(9 * 2 * time.Second)
	s := c.Snapshot()
	if s.Battery != 21 || s.Status != models.StatusCleaning {
		t.Fatalf("Expected battery 21 while cleaning, got %+v", s)
	}
	progressBefore := s.Progress

	fake.Advance(2 * time.Second)

	s = c.Snapshot()
	if s.Battery != 21 {
		t.Errorf("Expected battery frozen at 21, got %d", s.Battery)
	}
	if s.Progress != progressBefore {
		t.Errorf("progress changed on the low-battery tick: %d -> %d", progressBefore, s.Progress)
	}
	if s.Status != models.StatusReturning || s.Location != "Returning (Low Battery)" {
		t.Errorf("Expected low-battery return, got %+v", s)
	}

	ns := drain(sub)
	last := ns[len(ns)-1]
	if last.Kind != models.KindLowBattery || last.Severity != models.SeverityWarning {
		t.Errorf("Expected low battery warning, got %+v", last)
	}

	// A stop while already returning keeps the low-battery location.
	fake.Advance(time.Second)
	c.Stop()
	if s := c.Snapshot(); s.Location != "Returning (Low Battery)" {
		t.Errorf("Stop during low-battery return replaced location with %q", s.Location)
	}
	fake.Advance(2 * time.Second)
	if s := c.Snapshot(); s.Status != models.StatusReturning {
		t.Fatalf("Expected return latency to restart, got %+v", s)
	}

	fake.Advance(time.Second)
	s = c.Snapshot()
	if s.Phase != models.PhaseIdle || s.Status != models.StatusIdle || s.Location != "Home Base" {
		t.Errorf("Expected idle at Home Base, got %+v", s)
	}
	if s.Battery != 21 {
		t.Errorf("Expected battery to stay at 21 after return, got %d", s.Battery)
	}
	if fake.PendingCount() != 0 {
		t.Errorf("Expected no pending timers, got %d", fake.PendingCount())
	}
}

func TestLowBatteryAcrossRedeploys(t *testing.T) {
	c, fake := newTestController(t, nil)

	// First run completes at tick 34 with battery 78-34 = 44.
	c.Deploy()
	fake.Advance(2 * time.Second)
	fake.Advance(34 * 2 * time.Second)
	if s := c.Snapshot(); s.Battery != 44 || s.Status != models.StatusReturning {
		t.Fatalf("Expected completion return at battery 44, got %+v", s)
	}
	fake.Advance(3 * time.Second)

	// Second run drains 44 -> 21 in 23 ticks, then freezes.
	c.Deploy()
	fake.Advance(2 * time.Second)
	fake.Advance(23 * 2 * time.Second)
	if s := c.Snapshot(); s.Battery != 21 || s.Status != models.StatusCleaning {
		t.Fatalf("Expected battery 21 while cleaning, got %+v", s)
	}
	fake.Advance(2 * time.Second)
	s := c.Snapshot()
	if s.Battery != 21 || s.Location != "Returning (Low Battery)" {
		t.Errorf("Expected frozen low-battery return, got %+v", s)
	}
}

func TestStopWhileCleaning(t *testing.T) {
	c, fake := newTestController(t, nil)
	c.Deploy()
	fake.Advance(2 * time.Second)
	fake.Advance(3 * 2 * time.Second)

	c.Stop()
	s := c.Snapshot()
	if s.Status != models.StatusReturning || s.Location != "Returning..." {
		t.Fatalf("Expected returning, got %+v", s)
	}
	battery, progress := s.Battery, s.Progress

	fake.Advance(2900 * time.Millisecond)
	s = c.Snapshot()
	if s.Battery != battery || s.Progress != progress {
		t.Errorf("tick kept running after stop: %+v", s)
	}
	if s.Status != models.StatusReturning {
		t.Errorf("return fired early: %+v", s)
	}
}

func TestReturnResetsToIdleWithoutRecharge(t *testing.T) {
	c, fake := newTestController(t, nil)
	sub := c.Subscribe(64)
	c.Deploy()
	fake.Advance(2 * time.Second)
	fake.Advance(5 * 2 * time.Second)
	c.Stop()
	atReturn := c.Snapshot()

	fake.Advance(3 * time.Second)

	s := c.Snapshot()
	if s.Phase != models.PhaseIdle || s.Status != models.StatusIdle || s.Location != "Home Base" {
		t.Errorf("Expected (idle, idle, Home Base), got %+v", s)
	}
	if s.Battery != atReturn.Battery || s.Progress != atReturn.Progress {
		t.Errorf("battery/progress changed during return: %+v -> %+v", atReturn, s)
	}

	got := kinds(drain(sub))
	want := []models.NotificationKind{
		models.KindInitializing, models.KindDeployed, models.KindReturning, models.KindReturned,
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
			break
		}
	}
}

func TestCompletionReturn(t *testing.T) {
	c, fake := newTestController(t, nil)
	sub := c.Subscribe(64)
	c.Deploy()
	fake.Advance(2 * time.Second)

	fake.Advance(33 * 2 * time.Second)
	if s := c.Snapshot(); s.Progress != 99 || s.Status != models.StatusCleaning {
		t.Fatalf("Expected progress 99 while cleaning, got %+v", s)
	}

	fake.Advance(2 * time.Second)
	s := c.Snapshot()
	if s.Progress != 100 {
		t.Errorf("Expected progress clamped to 100, got %d", s.Progress)
	}
	if s.Status != models.StatusReturning || s.Location != "Returning..." {
		t.Errorf("Expected completion return, got %+v", s)
	}
	ns := drain(sub)
	last := ns[len(ns)-1]
	if last.Kind != models.KindComplete || last.Severity != models.SeveritySuccess {
		t.Errorf("Expected completion success, got %+v", last)
	}

	fake.Advance(10 * time.Second)
	if s := c.Snapshot(); s.Progress != 100 || s.Status != models.StatusIdle {
		t.Errorf("Expected idle with progress 100, got %+v", s)
	}
}

func TestBatteryPriorityOverCompletion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialBattery = 22
	cfg.ProgressStep = 100
	c, fake := newTestController(t, cfg)
	sub := c.Subscribe(64)
	c.Deploy()
	fake.Advance(2 * time.Second)

	fake.Advance(2 * time.Second)

	s := c.Snapshot()
	if s.Battery != 21 || s.Progress != 100 {
		t.Fatalf("Expected battery 21 progress 100 after the first tick, got %+v", s)
	}
	ns := drain(sub)
	if ns[len(ns)-1].Kind != models.KindComplete {
		t.Errorf("Expected completion, got %v", kinds(ns))
	}

	cfg = DefaultConfig()
	cfg.InitialBattery = 21
	cfg.ProgressStep = 100
	c2, fake2 := newTestController(t, cfg)
	sub2 := c2.Subscribe(64)
	c2.Deploy()
	fake2.Advance(4 * time.Second)

	s = c2.Snapshot()
	if s.Progress != 0 || s.Location != "Returning (Low Battery)" {
		t.Errorf("Expected battery to win the tie, got %+v", s)
	}
	returning := 0
	for _, n := range drain(sub2) {
		switch n.Kind {
		case models.KindLowBattery, models.KindComplete, models.KindReturning:
			returning++
		}
	}
	if returning != 1 {
		t.Errorf("Expected exactly one return trigger, got %d", returning)
	}
}

func TestDeployIdempotent(t *testing.T) {
	once, fakeOnce := newTestController(t, nil)
	twice, fakeTwice := newTestController(t, nil)
	sub := twice.Subscribe(64)

	once.Deploy()
	twice.Deploy()
	twice.Deploy()

	if fakeTwice.PendingCount() != 1 {
		t.Errorf("Expected a single pending deploy timer, got %d", fakeTwice.PendingCount())
	}

	for i := 0; i < 5; i++ {
		fakeOnce.Advance(2 * time.Second)
		fakeTwice.Advance(2 * time.Second)
	}
	if once.Snapshot() != twice.Snapshot() {
		t.Errorf("double deploy diverged: %+v vs %+v", once.Snapshot(), twice.Snapshot())
	}

	initializing := 0
	for _, n := range drain(sub) {
		if n.Kind == models.KindInitializing {
			initializing++
		}
	}
	if initializing != 1 {
		t.Errorf("Expected 1 initializing notification, got %d", initializing)
	}
}

func TestDeployIgnoredWhileDeployedOrReturning(t *testing.T) {
	c, fake := newTestController(t, nil)
	c.Deploy()
	fake.Advance(2 * time.Second)
	fake.Advance(4 * time.Second)
	before := c.Snapshot()

	c.Deploy()
	if c.Snapshot() != before {
		t.Errorf("deploy while cleaning changed state: %+v -> %+v", before, c.Snapshot())
	}

	c.Stop()
	returning := c.Snapshot()
	c.Deploy()
	if c.Snapshot() != returning {
		t.Errorf("deploy while returning changed state: %+v -> %+v", returning, c.Snapshot())
	}
}

func TestStopWhileIdleIsNoop(t *testing.T) {
	c, fake := newTestController(t, nil)
	sub := c.Subscribe(0)

	c.Stop()
	fake.Advance(10 * time.Second)

	if got := drain(sub); len(got) != 0 {
		t.Errorf("Expected no notifications, got %v", kinds(got))
	}
	if fake.PendingCount() != 0 {
		t.Errorf("Expected no pending timers, got %d", fake.PendingCount())
	}
}

func TestStopDuringDeployCancelsDeployTimer(t *testing.T) {
	c, fake := newTestController(t, nil)
	c.Deploy()
	fake.Advance(time.Second)

	c.Stop()
	fake.Advance(time.Second)
	if s := c.Snapshot(); s.Status != models.StatusReturning {
		t.Fatalf("stale deploy transition fired: %+v", s)
	}

	fake.Advance(2 * time.Second)
	if s := c.Snapshot(); s.Phase != models.PhaseIdle || s.Status != models.StatusIdle {
		t.Errorf("Expected idle after return latency, got %+v", s)
	}
	fake.Advance(10 * time.Second)
	if s := c.Snapshot(); s.Status != models.StatusIdle {
		t.Errorf("Expected to stay idle, got %+v", s)
	}
}

func TestSecondStopRestartsReturnLatency(t *testing.T) {
	c, fake := newTestController(t, nil)
	sub := c.Subscribe(64)
	c.Deploy()
	fake.Advance(2 * time.Second)
	c.Stop()
	fake.Advance(2 * time.Second)

	c.Stop()
	if fake.PendingCount() != 1 {
		t.Errorf("Expected one pending return timer, got %d", fake.PendingCount())
	}
	fake.Advance(2 * time.Second)
	if s := c.Snapshot(); s.Status != models.StatusReturning {
		t.Fatalf("stale return transition fired: %+v", s)
	}
	fake.Advance(time.Second)
	if s := c.Snapshot(); s.Status != models.StatusIdle {
		t.Errorf("Expected idle, got %+v", s)
	}

	returned := 0
	for _, n := range drain(sub) {
		if n.Kind == models.KindReturned {
			returned++
		}
	}
	if returned != 1 {
		t.Errorf("Expected 1 returned notification, got %d", returned)
	}
}

func TestInvariantsHoldOverRun(t *testing.T) {
	for _, battery := range []int{100, 78, 50, 25, 21} {
		cfg := DefaultConfig()
		cfg.InitialBattery = battery
		c, fake := newTestController(t, cfg)
		c.Deploy()

		prev := c.Snapshot()
		for i := 0; i < 80; i++ {
			fake.Advance(time.Second)
			s := c.Snapshot()

			if s.Status == models.StatusCleaning {
				if s.Phase != models.PhaseDeployed {
					t.Fatalf("battery %d: cleaning while phase %s", battery, s.Phase)
				}
				if s.Battery <= cfg.LowBatteryThreshold {
					t.Fatalf("battery %d: drained to %d while cleaning", battery, s.Battery)
				}
			}
			active := s.Status == models.StatusCleaning || s.Status == models.StatusReturning || s.Status == models.StatusCharging
			if active && s.Phase == models.PhaseIdle {
				t.Fatalf("battery %d: %s while phase idle %+v", battery, s.Status, s)
			}
			if s.Phase == models.PhaseIdle && s.Status != models.StatusIdle && s.Status != models.StatusOffline {
				t.Fatalf("battery %d: phase idle with status %s", battery, s.Status)
			}
			if s.Battery > prev.Battery {
				t.Fatalf("battery %d: battery increased %d -> %d", battery, prev.Battery, s.Battery)
			}
			if s.Progress < prev.Progress && s.Phase != models.PhaseDeploying {
				t.Fatalf("battery %d: progress decreased %d -> %d", battery, prev.Progress, s.Progress)
			}
			if s.Progress > 100 || s.Battery < 0 {
				t.Fatalf("battery %d: out of range %+v", battery, s)
			}
			if s.Status != models.StatusCleaning && prev.Status != models.StatusCleaning &&
				(s.Battery != prev.Battery || (s.Progress != prev.Progress && s.Phase != models.PhaseDeploying)) {
				t.Fatalf("battery %d: state mutated outside cleaning %+v -> %+v", battery, prev, s)
			}
			prev = s
		}
	}
}

func TestCloseCancelsTimersAndSubscriptions(t *testing.T) {
	c, fake := newTestController(t, nil)
	sub := c.Subscribe(0)
	c.Deploy()
	fake.Advance(2 * time.Second)

	c.Close()
	before := c.Snapshot()
	fake.Advance(time.Minute)
	if c.Snapshot() != before {
		t.Errorf("state changed after Close: %+v -> %+v", before, c.Snapshot())
	}
	if fake.PendingCount() != 0 {
		t.Errorf("Expected no pending timers after Close, got %d", fake.PendingCount())
	}

	drain(sub)
	if _, ok := <-sub.C; ok {
		t.Error("subscription channel should be closed")
	}

	c.Deploy()
	c.Stop()
	if c.Snapshot() != before {
		t.Error("commands after Close should be ignored")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	c, fake := newTestController(t, nil)
	sub := c.Subscribe(1)

	c.Deploy()
	fake.Advance(2 * time.Second)
	fake.Advance(20 * time.Second)
	c.Stop()

	if got := len(drain(sub)); got != 1 {
		t.Errorf("Expected 1 buffered notification, got %d", got)
	}

	c.Unsubscribe(sub)
	if _, ok := <-sub.C; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	c.Unsubscribe(sub)
}
