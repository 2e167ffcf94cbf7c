package ui

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"focusflow/internal/achievements"
	"focusflow/internal/config"
	"focusflow/internal/notify"
	"focusflow/internal/progress"
	"focusflow/internal/storage"
	"focusflow/internal/timer"
)

var testNow = time.Date(2025, 9, 3, 18, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// setupTest disables colors so rendered output is plain text.
func setupTest(t *testing.T) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
}

func createTestStyles() *Styles {
	return NewStylesFromTheme(&config.ThemeConfig{})
}

// captured records notifications instead of showing them.
type captured struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (c *captured) Notify(n notify.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
	return nil
}

func (c *captured) Available() bool { return true }

func (c *captured) titles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.notes))
	for i, n := range c.notes {
		out[i] = n.Title
	}
	return out
}

// eventLog collects timer events so tests can replay them into the app.
type eventLog struct {
	mu     sync.Mutex
	events []timer.Event
}

func (l *eventLog) listen(e timer.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) drain() []timer.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}

type harness struct {
	app      *App
	repo     *storage.MemoryStore
	svc      *progress.Service
	machine  *timer.Machine
	sched    *timer.ManualScheduler
	events   *eventLog
	notifier *captured
}

func newHarness(t *testing.T, cfg *AppConfig) *harness {
	t.Helper()
	setupTest(t)

	h := &harness{
		repo:     storage.NewMemoryStore(),
		sched:    &timer.ManualScheduler{},
		events:   &eventLog{},
		notifier: &captured{},
	}
	h.repo.SetNowFunc(testClock)
	ach := achievements.NewEngine(
		achievements.NewFileStore(filepath.Join(t.TempDir(), "achievements.json")),
		achievements.WithClock(testClock))
	h.svc = progress.NewService(h.repo, ach, "u1", progress.WithClock(testClock))
	h.machine = timer.New(h.repo,
		timer.Config{UserID: "u1", FocusMinutes: 1, BreakMinutes: 5},
		timer.WithScheduler(h.sched),
		timer.WithClock(testClock),
		timer.WithListener(h.events.listen))

	if cfg == nil {
		cfg = DefaultAppConfig()
		cfg.ShowOnboarding = false
	}
	cfg.Notifier = h.notifier
	h.app = NewApp(context.Background(), h.svc, h.machine, createTestStyles(), cfg)
	h.app.now = testClock
	h.app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// send delivers msg and runs every command it produces, feeding the
// resulting messages back in until nothing is left.
func (h *harness) send(msg tea.Msg) {
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		_, cmd := h.app.Update(next)
		queue = append(queue, runCmd(cmd)...)
	}
}

// press sends a key press.
func (h *harness) press(keys ...string) {
	for _, k := range keys {
		h.send(keyPress(k))
	}
}

// typeText types into a focused text input. Cursor blink commands are
// discarded.
func (h *harness) typeText(s string) {
	for _, r := range s {
		h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// replayTimer feeds recorded timer events into the app.
func (h *harness) replayTimer() {
	for _, e := range h.events.drain() {
		h.send(timerEventMsg{event: e})
	}
}

func (h *harness) reload() {
	h.send(loadDashboardCmd(context.Background(), h.svc)())
}

// runCmd executes cmd and flattens batches. Text input blink and clock
// ticks are dropped so tests never wait on timers.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, runCmd(c)...)
		}
		return out
	case dashboardLoadedMsg, habitToggledMsg, habitAddedMsg, habitDeletedMsg,
		confirmDeleteMsg, evaluatedMsg, timerActionMsg, todayFocusMsg, notifiedMsg:
		return []tea.Msg{msg}
	default:
		return nil
	}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
