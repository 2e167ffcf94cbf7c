// Package notify delivers desktop notifications by shelling out to the
// platform notifier (osascript on macOS, notify-send on Linux).
package notify

import "errors"

// ErrUnavailable is returned when no notifier binary is installed.
var ErrUnavailable = errors.New("desktop notifications unavailable")

// Notification is one message to show.
type Notification struct {
	Title string
	Body  string
	Sound bool
}

// Notifier sends notifications.
type Notifier interface {
	Notify(n Notification) error
	Available() bool
}

// Settings mirrors the notifications section of the config file.
type Settings struct {
	Enabled bool
	Sound   bool
}

// New returns the platform notifier, or Discard when it is not installed.
func New() Notifier {
	n := newPlatformNotifier()
	if n == nil || !n.Available() {
		return Discard{}
	}
	return n
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(Notification) error { return nil }
func (Discard) Available() bool           { return false }

// WithSettings applies user settings to n: nothing is sent when disabled and
// sound is stripped unless allowed.
func WithSettings(n Notifier, s Settings) Notifier {
	if !s.Enabled || n == nil {
		return Discard{}
	}
	return gated{next: n, sound: s.Sound}
}

type gated struct {
	next  Notifier
	sound bool
}

func (g gated) Notify(n Notification) error {
	if !g.sound {
		n.Sound = false
	}
	return g.next.Notify(n)
}

func (g gated) Available() bool { return g.next.Available() }
