// Package tui provides the interactive terminal dashboard for cleanbot.
package tui

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fentz26/cleanbot/internal/models"
)

// refreshInterval is how often the dashboard polls the controller. Ticks
// change battery and progress without emitting notifications.
const refreshInterval = 250 * time.Millisecond

// Robot is the command and query surface the dashboard drives.
type Robot interface {
	Deploy()
	Stop()
	Snapshot() models.Snapshot
}

// Journal supplies session statistics and recent events.
type Journal interface {
	Stats() (*models.SessionStats, error)
	ListEvents(limit int) ([]models.Event, error)
}

// App is the main TUI application model.
type App struct {
	robot   Robot
	notes   <-chan models.Notification
	journal Journal
	logger  *slog.Logger

	snap         models.Snapshot
	lastNote     *models.Notification
	lastDeployed time.Time
	stats        *models.SessionStats
	events       []models.Event

	spinner     spinner.Model
	batteryBar  progress.Model
	cleaningBar progress.Model
	help        help.Model
	input       textinput.Model
	suggestions *Suggestions

	width   int
	height  int
	mode    string // "dashboard", "log"
	message string
	now     func() time.Time
}

// Option configures an App.
type Option func(*App)

// WithJournal enables the quick stats panel and event log.
func WithJournal(j Journal) Option {
	return func(a *App) { a.journal = j }
}

// WithLogger sets the logger. The dashboard owns stdout, so callers should
// pass a file-backed logger or none.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New creates a new dashboard bound to robot. notes may be nil.
func New(robot Robot, notes <-chan models.Notification, opts ...Option) *App {
	ti := textinput.New()
	ti.Placeholder = "deploy | stop | status | stats | log | quit"
	ti.CharLimit = 64
	ti.Width = 60
	ti.Prompt = "/ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := &App{
		robot:       robot,
		notes:       notes,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		snap:        robot.Snapshot(),
		spinner:     sp,
		batteryBar:  progress.New(progress.WithSolidFill(string(successColor)), progress.WithWidth(26), progress.WithoutPercentage()),
		cleaningBar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(26), progress.WithoutPercentage()),
		help:        help.New(),
		input:       ti,
		suggestions: NewSuggestions(),
		mode:        "dashboard",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		a.refresh(),
		a.refreshTick(),
		a.waitForNotification(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.input.Focused() {
			return a, a.updateCommandBar(msg)
		}
		return a, a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 8
		a.help.Width = msg.Width

	case refreshMsg:
		a.snap = msg.snap
		if msg.stats != nil {
			a.stats = msg.stats
		}
		if msg.events != nil {
			a.events = msg.events
		}

	case refreshTickMsg:
		cmds = append(cmds, a.refresh(), a.refreshTick())

	case notificationMsg:
		n := models.Notification(msg)
		a.lastNote = &n
		a.snap = n.Snapshot
		if n.Kind == models.KindInitializing {
			a.lastDeployed = n.Time
		}
		a.logger.Debug("notification", "kind", n.Kind, "message", n.Message)
		cmds = append(cmds, a.refresh(), a.waitForNotification())

	case notesClosedMsg:
		a.notes = nil
		a.message = "Controller stopped"

	case commandResultMsg:
		a.message = msg.message

	case errMsg:
		a.message = "Error: " + msg.err.Error()
		a.logger.Error("dashboard error", "error", msg.err)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Command):
		a.input.SetValue("")
		return a.input.Focus()
	case key.Matches(msg, keys.Toggle):
		return a.toggle()
	case key.Matches(msg, keys.Deploy):
		return a.deploy()
	case key.Matches(msg, keys.Stop):
		return a.stop()
	case key.Matches(msg, keys.Log):
		a.toggleLog()
		return a.refresh()
	case msg.String() == "esc" && a.mode == "log":
		a.mode = "dashboard"
	}
	return nil
}

func (a *App) updateCommandBar(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc":
		a.input.Blur()
		a.input.SetValue("")
		a.suggestions.Update("")
		return nil
	case "up":
		a.suggestions.Prev()
		return nil
	case "down":
		a.suggestions.Next()
		return nil
	case "tab":
		if selected := a.suggestions.Selected(); selected != nil {
			a.input.SetValue(selected.Text)
			a.input.CursorEnd()
			a.suggestions.Update("")
		}
		return nil
	case "enter":
		cmd := strings.TrimSpace(a.input.Value())
		if selected := a.suggestions.Selected(); selected != nil && cmd != selected.Text {
			cmd = selected.Text
		}
		a.input.Blur()
		a.input.SetValue("")
		a.suggestions.Update("")
		return a.executeCommand(cmd)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.suggestions.Update(a.input.Value())
	return cmd
}

// controlDisabled mirrors the control widget: no input while the robot is
// on its way back or docked.
func (a *App) controlDisabled() bool {
	return a.snap.Status == models.StatusReturning || a.snap.Status == models.StatusCharging
}

func (a *App) isDeployed() bool {
	return a.snap.Phase == models.PhaseDeployed || a.snap.Phase == models.PhaseDeploying
}

func (a *App) toggle() tea.Cmd {
	if a.controlDisabled() || a.snap.Phase == models.PhaseDeploying {
		return nil
	}
	if a.isDeployed() {
		return a.stop()
	}
	return a.deploy()
}

func (a *App) deploy() tea.Cmd {
	if a.controlDisabled() {
		return func() tea.Msg { return commandResultMsg{"Robot is busy returning to base"} }
	}
	a.robot.Deploy()
	return a.refresh()
}

func (a *App) stop() tea.Cmd {
	if a.controlDisabled() {
		return func() tea.Msg { return commandResultMsg{"Robot is already returning"} }
	}
	a.robot.Stop()
	return a.refresh()
}

func (a *App) toggleLog() {
	if a.mode == "log" {
		a.mode = "dashboard"
	} else {
		a.mode = "log"
	}
}

func (a *App) executeCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	switch parts[0] {
	case "deploy":
		return a.deploy()
	case "stop":
		return a.stop()
	case "status":
		s := a.robot.Snapshot()
		return func() tea.Msg {
			return commandResultMsg{fmt.Sprintf("%s at %s | battery %d%% | progress %d%%",
				s.Status.Label(), s.Location, s.Battery, models.ClampPercent(s.Progress))}
		}
	case "stats":
		if a.journal == nil {
			return func() tea.Msg { return commandResultMsg{"Session journal not available"} }
		}
		return func() tea.Msg {
			stats, err := a.journal.Stats()
			if err != nil {
				return errMsg{err}
			}
			return commandResultMsg{fmt.Sprintf("%d runs | %d completed | %d low battery | %d stopped",
				stats.TotalRuns, stats.CompletedRuns, stats.LowBatteryRuns, stats.StoppedRuns)}
		}
	case "log":
		a.toggleLog()
		return a.refresh()
	case "q", "quit", "exit":
		return tea.Quit
	default:
		return func() tea.Msg {
			return commandResultMsg{fmt.Sprintf("Unknown: %s (try: deploy, stop, status, stats, log)", parts[0])}
		}
	}
}

func (a *App) refresh() tea.Cmd {
	return func() tea.Msg {
		msg := refreshMsg{snap: a.robot.Snapshot()}
		if a.journal != nil {
			stats, err := a.journal.Stats()
			if err != nil {
				return errMsg{err}
			}
			events, err := a.journal.ListEvents(20)
			if err != nil {
				return errMsg{err}
			}
			msg.stats = stats
			msg.events = events
		}
		return msg
	}
}

func (a *App) refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func (a *App) waitForNotification() tea.Cmd {
	ch := a.notes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return notesClosedMsg{}
		}
		return notificationMsg(n)
	}
}

type refreshMsg struct {
	snap   models.Snapshot
	stats  *models.SessionStats
	events []models.Event
}

type refreshTickMsg time.Time

type notificationMsg models.Notification

type notesClosedMsg struct{}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}
