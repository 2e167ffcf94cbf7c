//go:build linux

package notify

import (
	"fmt"
	"os/exec"
)

type notifySend struct{}

func newPlatformNotifier() Notifier { return notifySend{} }

func (notifySend) Available() bool {
	_, err := exec.LookPath("notify-send")
	return err == nil
}

func (notifySend) Notify(n Notification) error {
	args := []string{"--app-name=focusflow"}
	if n.Sound {
		// Whether a sound plays is up to the notification daemon.
		args = append(args, "--hint=string:sound-name:complete")
	}
	args = append(args, n.Title, n.Body)
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}
