//go:build !darwin && !linux

package notify

type unsupported struct{}

func newPlatformNotifier() Notifier { return unsupported{} }

func (unsupported) Notify(Notification) error { return ErrUnavailable }
func (unsupported) Available() bool           { return false }
