// Package timer implements the focus timer: a countdown with idle, running,
// paused and break states that records focus sessions.
package timer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"focusflow/internal/stats"
	"focusflow/internal/storage"
)

// State is the timer state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateBreak   State = "break"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("invalid timer transition")
	// ErrSessionNotRecorded means the timer is running but its session could
	// not be stored, so completion will not be recorded.
	ErrSessionNotRecorded = errors.New("focus session not recorded")
)

const (
	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5
)

// BreakChoices are the break lengths offered in the UI.
var BreakChoices = []int{5, 10, 15, 20}

// Sessions is the part of the repository the timer uses.
type Sessions interface {
	CreateFocusSession(ctx context.Context, userID string, durationMinutes int) (string, error)
	CompleteFocusSession(ctx context.Context, id string) error
	DeleteFocusSession(ctx context.Context, id string) error
	ListTodayFocusSessions(ctx context.Context, userID string, today time.Time) ([]storage.FocusSession, error)
}

// Config holds the user's timer settings.
type Config struct {
	UserID       string
	FocusMinutes int
	BreakMinutes int
	BreakEnabled bool
}

// EventKind identifies an Event.
type EventKind int

const (
	EventTick EventKind = iota
	EventStateChanged
	EventFocusCompleted
	EventBreakCompleted
	EventWarning
)

// Event is delivered to the listener after the machine lock is released.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	// Recorded is set on EventFocusCompleted when the session was stored.
	Recorded bool
	Err      error
}

// Snapshot is a read-only view of the machine.
type Snapshot struct {
	State        State
	Remaining    Countdown
	TotalSeconds int
	SessionID    string
	FocusMinutes int
	BreakMinutes int
	BreakEnabled bool
	TodayMinutes int
}

// Progress returns the elapsed share of the current phase, 0 to 100.
func (s Snapshot) Progress() float64 {
	if s.TotalSeconds <= 0 {
		return 0
	}
	elapsed := s.TotalSeconds - s.Remaining.TotalSeconds()
	return float64(elapsed) / float64(s.TotalSeconds) * 100
}

// pendingStart tracks a CreateFocusSession call still in flight.
type pendingStart struct {
	done chan struct{}
	id   string
	err  error
}

// wait blocks until the create finished and returns the stored id, or "".
func (p *pendingStart) wait() string {
	<-p.done
	if p.err != nil {
		return ""
	}
	return p.id
}

// Machine is the focus timer. All methods are safe for concurrent use; ticks
// arrive on the scheduler's goroutine.
type Machine struct {
	mu        sync.Mutex
	sessions  Sessions
	scheduler Scheduler
	now       func() time.Time
	logger    *log.Logger
	listener  func(Event)

	cfg       Config
	state     State
	remaining Countdown
	total     int
	sessionID string
	pending   *pendingStart
	// settling is closed once a detached session has been deleted or
	// completed. Start waits on it so the next create cannot race it.
	settling chan struct{}
	task     Task
	gen      uint64
	today    int
}

// Option configures a Machine.
type Option func(*Machine)

// WithScheduler sets the scheduler that drives ticks.
func WithScheduler(s Scheduler) Option {
	return func(m *Machine) {
		if s != nil {
			m.scheduler = s
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithListener registers fn to receive events. fn runs on whichever
// goroutine caused the event and must not block for long.
func WithListener(fn func(Event)) Option {
	return func(m *Machine) { m.listener = fn }
}

// New returns an idle machine.
func New(sessions Sessions, cfg Config, opts ...Option) *Machine {
	if cfg.FocusMinutes < 1 {
		cfg.FocusMinutes = DefaultFocusMinutes
	}
	if cfg.BreakMinutes < 1 {
		cfg.BreakMinutes = DefaultBreakMinutes
	}
	m := &Machine{
		sessions:  sessions,
		scheduler: TickerScheduler{},
		now:       time.Now,
		logger:    log.New(io.Discard),
		cfg:       cfg,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resetCountdownLocked()
	return m
}

// Snapshot returns the current view.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		State:        m.state,
		Remaining:    m.remaining,
		TotalSeconds: m.total,
		SessionID:    m.sessionID,
		FocusMinutes: m.cfg.FocusMinutes,
		BreakMinutes: m.cfg.BreakMinutes,
		BreakEnabled: m.cfg.BreakEnabled,
		TodayMinutes: m.today,
	}
}

// RefreshToday reloads today's completed focus minutes from the repository.
func (m *Machine) RefreshToday(ctx context.Context) (int, error) {
	sessions, err := m.sessions.ListTodayFocusSessions(ctx, m.cfg.UserID, m.now())
	if err != nil {
		return 0, fmt.Errorf("load today's focus sessions: %w", err)
	}
	minutes := stats.CompletedMinutes(sessions)
	m.mu.Lock()
	m.today = minutes
	m.mu.Unlock()
	return minutes, nil
}

// Start moves idle to running and records a new session. If the session
// cannot be stored the timer keeps running and the returned error wraps
// ErrSessionNotRecorded. A previous session that is still being deleted or
// completed is waited for first.
func (m *Machine) Start(ctx context.Context) error {
	for {
		m.mu.Lock()
		if m.state != StateIdle {
			state := m.state
			m.mu.Unlock()
			return fmt.Errorf("start from %s: %w", state, ErrInvalidTransition)
		}
		settling := m.settling
		if settling == nil {
			break
		}
		m.mu.Unlock()
		select {
		case <-settling:
		case <-ctx.Done():
			return fmt.Errorf("start: %w", ctx.Err())
		}
	}
	m.state = StateRunning
	m.resetCountdownLocked()
	m.sessionID = ""
	p := &pendingStart{done: make(chan struct{})}
	m.pending = p
	m.startTaskLocked()
	minutes := m.cfg.FocusMinutes
	started := Event{Kind: EventStateChanged, Snapshot: m.snapshotLocked()}
	m.mu.Unlock()
	m.emit(started)

	id, err := m.sessions.CreateFocusSession(ctx, m.cfg.UserID, minutes)

	m.mu.Lock()
	p.id, p.err = id, err
	close(p.done)
	current := m.pending == p
	if current {
		m.pending = nil
		if err == nil {
			m.sessionID = id
		}
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if !current {
		// Reset or completion took the session over while it was created.
		m.logger.Debug("focus session start superseded", "id", id, "err", err)
		return nil
	}
	if err != nil {
		werr := fmt.Errorf("start focus session: %w: %w", ErrSessionNotRecorded, err)
		m.logger.Warn("focus session not recorded", "err", err)
		m.emit(Event{Kind: EventWarning, Snapshot: snap, Err: werr})
		return werr
	}
	m.logger.Debug("focus session started", "id", id, "minutes", minutes)
	return nil
}

// Pause freezes a running countdown.
func (m *Machine) Pause() error {
	m.mu.Lock()
	if m.state != StateRunning {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("pause from %s: %w", state, ErrInvalidTransition)
	}
	m.stopTaskLocked()
	m.state = StatePaused
	ev := Event{Kind: EventStateChanged, Snapshot: m.snapshotLocked()}
	m.mu.Unlock()
	m.emit(ev)
	return nil
}

// Resume continues a paused countdown.
func (m *Machine) Resume() error {
	m.mu.Lock()
	if m.state != StatePaused {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("resume from %s: %w", state, ErrInvalidTransition)
	}
	m.state = StateRunning
	m.startTaskLocked()
	ev := Event{Kind: EventStateChanged, Snapshot: m.snapshotLocked()}
	m.mu.Unlock()
	m.emit(ev)
	return nil
}

// Reset abandons a running or paused session and deletes it. When the
// session is still being created, Reset waits for it and deletes the result.
// During a break Reset behaves like SkipBreak.
func (m *Machine) Reset(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateBreak:
		m.mu.Unlock()
		return m.SkipBreak()
	case StateRunning, StatePaused:
	default:
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("reset from %s: %w", state, ErrInvalidTransition)
	}
	m.stopTaskLocked()
	id, p, settled := m.detachSessionLocked()
	defer settled()
	m.state = StateIdle
	m.resetCountdownLocked()
	ev := Event{Kind: EventStateChanged, Snapshot: m.snapshotLocked()}
	m.mu.Unlock()
	m.emit(ev)

	if p != nil {
		id = p.wait()
	}
	if id == "" {
		return nil
	}
	if err := m.sessions.DeleteFocusSession(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		m.logger.Warn("deleting abandoned focus session failed", "id", id, "err", err)
		return fmt.Errorf("delete focus session: %w", err)
	}
	m.logger.Debug("focus session abandoned", "id", id)
	return nil
}

// SkipBreak ends a break early.
func (m *Machine) SkipBreak() error {
	m.mu.Lock()
	if m.state != StateBreak {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("skip break from %s: %w", state, ErrInvalidTransition)
	}
	m.stopTaskLocked()
	m.state = StateIdle
	m.resetCountdownLocked()
	ev := Event{Kind: EventStateChanged, Snapshot: m.snapshotLocked()}
	m.mu.Unlock()
	m.emit(ev)
	return nil
}

// SetDuration changes the focus length. It only applies while idle.
func (m *Machine) SetDuration(minutes int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle || minutes < 1 {
		return false
	}
	m.cfg.FocusMinutes = minutes
	m.resetCountdownLocked()
	return true
}

// SetBreakDuration changes the break length. It only applies while idle.
func (m *Machine) SetBreakDuration(minutes int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle || minutes < 1 {
		return false
	}
	m.cfg.BreakMinutes = minutes
	return true
}

// SetBreakEnabled turns breaks on or off. It only applies while idle.
func (m *Machine) SetBreakEnabled(enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return false
	}
	m.cfg.BreakEnabled = enabled
	return true
}

// Close stops the tick task. The machine keeps its state.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTaskLocked()
}

func (m *Machine) tick(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || (m.state != StateRunning && m.state != StateBreak) {
		m.mu.Unlock()
		return
	}

	var done bool
	m.remaining, done = m.remaining.Tick()
	events := []Event{{Kind: EventTick, Snapshot: m.snapshotLocked()}}
	if !done {
		m.mu.Unlock()
		m.emit(events...)
		return
	}

	if m.state == StateBreak {
		m.stopTaskLocked()
		m.state = StateIdle
		m.resetCountdownLocked()
		snap := m.snapshotLocked()
		events = append(events,
			Event{Kind: EventBreakCompleted, Snapshot: snap},
			Event{Kind: EventStateChanged, Snapshot: snap})
		m.mu.Unlock()
		m.emit(events...)
		return
	}

	// Focus phase finished.
	m.stopTaskLocked()
	id, p, settled := m.detachSessionLocked()
	if m.cfg.BreakEnabled {
		m.state = StateBreak
		m.remaining = FromMinutes(m.cfg.BreakMinutes)
		m.total = m.remaining.TotalSeconds()
		m.startTaskLocked()
	} else {
		m.state = StateIdle
		m.resetCountdownLocked()
	}
	events = append(events, Event{Kind: EventStateChanged, Snapshot: m.snapshotLocked()})
	m.mu.Unlock()
	m.emit(events...)

	m.finishFocus(id, p, settled)
}

// finishFocus records the completed session and refreshes today's total.
func (m *Machine) finishFocus(id string, p *pendingStart, settled func()) {
	ctx := context.Background()
	if p != nil {
		id = p.wait()
	}

	var warn error
	recorded := false
	if id != "" {
		if err := m.sessions.CompleteFocusSession(ctx, id); err != nil {
			m.logger.Error("completing focus session failed", "id", id, "err", err)
			warn = fmt.Errorf("complete focus session: %w", err)
		} else {
			recorded = true
		}
	}
	settled()
	if _, err := m.RefreshToday(ctx); err != nil {
		m.logger.Warn("refreshing focus minutes failed", "err", err)
		warn = errors.Join(warn, err)
	}

	snap := m.Snapshot()
	m.logger.Info("focus session completed", "id", id, "recorded", recorded, "today_minutes", snap.TodayMinutes)
	m.emit(Event{Kind: EventFocusCompleted, Snapshot: snap, Recorded: recorded})
	if warn != nil {
		m.emit(Event{Kind: EventWarning, Snapshot: snap, Err: warn})
	}
}

// detachSessionLocked hands the current session, or the create still in
// flight, to the caller. The caller must call settled once it has deleted or
// completed that session; until then Start blocks.
func (m *Machine) detachSessionLocked() (id string, p *pendingStart, settled func()) {
	id, p = m.sessionID, m.pending
	m.sessionID, m.pending = "", nil
	if id == "" && p == nil {
		return id, p, func() {}
	}
	done := make(chan struct{})
	m.settling = done
	var once sync.Once
	return id, p, func() {
		once.Do(func() {
			m.mu.Lock()
			if m.settling == done {
				m.settling = nil
			}
			m.mu.Unlock()
			close(done)
		})
	}
}

func (m *Machine) resetCountdownLocked() {
	m.remaining = FromMinutes(m.cfg.FocusMinutes)
	m.total = m.remaining.TotalSeconds()
}

func (m *Machine) startTaskLocked() {
	m.stopTaskLocked()
	gen := m.gen
	m.task = m.scheduler.Every(time.Second, func() { m.tick(gen) })
}

func (m *Machine) stopTaskLocked() {
	m.gen++
	if m.task != nil {
		m.task.Stop()
		m.task = nil
	}
}

func (m *Machine) emit(events ...Event) {
	if m.listener == nil {
		return
	}
	for _, ev := range events {
		m.listener(ev)
	}
}
