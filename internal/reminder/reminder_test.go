package reminder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusflow/internal/localstate"
	"focusflow/internal/notify"
)

type fakeNotifier struct {
	sent []notify.Notification
	err  error
}

func (f *fakeNotifier) Notify(n notify.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) Available() bool { return true }

func at(day, hhmm string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", day+" "+hhmm, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:00", "09:00", false},
		{"9:05", "09:05", false},
		{"23:59", "23:59", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidTime, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestDue(t *testing.T) {
	on := Prefs{Enabled: true, Time: "08:30"}
	tests := []struct {
		name string
		now  time.Time
		p    Prefs
		last string
		want bool
	}{
		{"exact minute", at("2025-09-01", "08:30"), on, "", true},
		{"already sent today", at("2025-09-01", "08:30"), on, "2025-09-01", false},
		{"sent yesterday", at("2025-09-01", "08:30"), on, "2025-08-31", true},
		{"other minute", at("2025-09-01", "08:31"), on, "", false},
		{"disabled", at("2025-09-01", "08:30"), Prefs{Time: "08:30"}, "", false},
		{"default time", at("2025-09-01", "09:00"), Prefs{Enabled: true}, "", true},
		{"bad time falls back", at("2025-09-01", "09:00"), Prefs{Enabled: true, Time: "soon"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Due(tt.now, tt.p, tt.last))
		})
	}
}

func TestServiceDefaults(t *testing.T) {
	s := NewService(t.TempDir(), nil)
	assert.Equal(t, Prefs{Enabled: false, Time: DefaultTime}, s.Prefs())
	assert.Empty(t, s.LastShown())
}

func TestServiceSendsOncePerDay(t *testing.T) {
	dir := t.TempDir()
	now := at("2025-09-01", "09:00")
	n := &fakeNotifier{}
	s := NewService(dir, n, WithClock(func() time.Time { return now }))
	require.NoError(t, s.SetEnabled(true))

	sent, err := s.Check()
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "Time to build habits!", n.sent[0].Title)

	sent, err = s.Check()
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Len(t, n.sent, 1)

	// The date survives a restart.
	restarted := NewService(dir, n, WithClock(func() time.Time { return now }))
	assert.Equal(t, "2025-09-01", restarted.LastShown())
	sent, err = restarted.Check()
	require.NoError(t, err)
	assert.False(t, sent)

	now = at("2025-09-02", "09:00")
	sent, err = restarted.Check()
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Len(t, n.sent, 2)
}

func TestServiceNotifierFailureRetries(t *testing.T) {
	now := at("2025-09-01", "07:15")
	n := &fakeNotifier{err: errors.New("notify-send: exit status 1")}
	s := NewService(t.TempDir(), n, WithClock(func() time.Time { return now }))
	require.NoError(t, s.SetTime("7:15"))
	require.NoError(t, s.SetEnabled(true))

	sent, err := s.Check()
	assert.Error(t, err)
	assert.False(t, sent)
	assert.Empty(t, s.LastShown())

	n.err = nil
	sent, err = s.Check()
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestServicePersistsPrefs(t *testing.T) {
	dir := t.TempDir()
	s := NewService(dir, nil)
	require.NoError(t, s.SetTime("21:45"))
	require.NoError(t, s.SetEnabled(true))
	assert.ErrorIs(t, s.SetTime("25:00"), ErrInvalidTime)

	reloaded := NewService(dir, nil)
	assert.Equal(t, Prefs{Enabled: true, Time: "21:45"}, reloaded.Prefs())
}

func TestCorruptPrefsTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, localstate.RemindersFile), []byte("{enabled"), 0o600))

	s := NewService(dir, nil)
	assert.Equal(t, Prefs{Time: DefaultTime}, s.Prefs())

	matches, err := filepath.Glob(filepath.Join(dir, localstate.RemindersFile+".corrupt.*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	now := at("2025-09-01", "09:00")
	n := &fakeNotifier{}
	s := NewService(t.TempDir(), n, WithClock(func() time.Time { return now }))
	require.NoError(t, s.SetEnabled(true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, time.Hour) }()

	require.Eventually(t, func() bool { return s.LastShown() == "2025-09-01" }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
