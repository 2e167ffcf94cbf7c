// Package reminder decides when the daily habit reminder is due and sends
// it through a desktop notifier.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"focusflow/internal/localstate"
	"focusflow/internal/notify"
	"focusflow/internal/storage"
)

// DefaultTime is used when no reminder time was saved.
const DefaultTime = "09:00"

// CheckInterval is how often Run looks at the clock.
const CheckInterval = time.Minute

var ErrInvalidTime = errors.New("reminder time must be HH:MM (24h)")

// Prefs are the saved reminder settings.
type Prefs struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"`
}

// lastShown records the day the reminder was last sent.
type lastShown struct {
	Date string `json:"date"`
}

// ParseTime validates an "HH:MM" string and returns it zero-padded.
func ParseTime(s string) (string, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}
	return t.Format("15:04"), nil
}

func (p Prefs) withDefaults() Prefs {
	if t, err := ParseTime(p.Time); err == nil {
		p.Time = t
	} else {
		p.Time = DefaultTime
	}
	return p
}

// Due reports whether the reminder should fire at now: reminders are on,
// the wall clock minute equals the reminder time, and nothing was sent today.
func Due(now time.Time, p Prefs, last string) bool {
	p = p.withDefaults()
	if !p.Enabled {
		return false
	}
	return now.Format("15:04") == p.Time && last != storage.DayKey(now)
}

// Service owns the reminder files and sends due reminders.
type Service struct {
	mu       sync.Mutex
	prefs    *localstate.File[Prefs]
	last     *localstate.File[lastShown]
	notifier notify.Notifier
	logger   *log.Logger
	now      func() time.Time

	cur      Prefs
	lastDate string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService loads the reminder files from dir. Unreadable files are logged
// and treated as empty.
func NewService(dir string, n notify.Notifier, opts ...Option) *Service {
	if n == nil {
		n = notify.Discard{}
	}
	s := &Service{
		prefs:    localstate.OpenIn[Prefs](dir, localstate.RemindersFile),
		last:     localstate.OpenIn[lastShown](dir, localstate.LastReminderFile),
		notifier: n,
		logger:   log.New(io.Discard),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	p, err := s.prefs.Load()
	if err != nil {
		s.logger.Warn("reminder settings unreadable", "path", s.prefs.Path(), "err", err)
	}
	s.cur = p.withDefaults()

	l, err := s.last.Load()
	if err != nil {
		s.logger.Warn("last reminder date unreadable", "path", s.last.Path(), "err", err)
	}
	s.lastDate = l.Date
	return s
}

// Prefs returns the current settings.
func (s *Service) Prefs() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// LastShown returns the day the reminder was last sent, or "".
func (s *Service) LastShown() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDate
}

// SetEnabled turns reminders on or off.
func (s *Service) SetEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	next.Enabled = enabled
	return s.saveLocked(next)
}

// SetTime changes the reminder time.
func (s *Service) SetTime(hhmm string) error {
	t, err := ParseTime(hhmm)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	next.Time = t
	return s.saveLocked(next)
}

func (s *Service) saveLocked(p Prefs) error {
	if err := s.prefs.Save(p); err != nil {
		return err
	}
	s.cur = p
	return nil
}

// Check sends the reminder if it is due and reports whether it did.
func (s *Service) Check() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !Due(now, s.cur, s.lastDate) {
		return false, nil
	}
	err := s.notifier.Notify(notify.Notification{
		Title: "Time to build habits!",
		Body:  "Start your day with a focus session and complete your habits.",
		Sound: true,
	})
	if err != nil {
		return false, fmt.Errorf("send reminder: %w", err)
	}

	s.lastDate = storage.DayKey(now)
	if err := s.last.Save(lastShown{Date: s.lastDate}); err != nil {
		// Sent already; a lost date only risks a repeat after restart.
		s.logger.Warn("saving last reminder date failed", "err", err)
	}
	s.logger.Info("reminder sent", "date", s.lastDate)
	return true, nil
}

// Run checks immediately and then every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = CheckInterval
	}
	check := func() {
		if _, err := s.Check(); err != nil {
			s.logger.Error("reminder check failed", "err", err)
		}
	}
	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
