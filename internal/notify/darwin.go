//go:build darwin

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

type osascript struct{}

func newPlatformNotifier() Notifier { return osascript{} }

func (osascript) Available() bool {
	_, err := exec.LookPath("osascript")
	return err == nil
}

func (osascript) Notify(n Notification) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
	if n.Sound {
		script += ` sound name "Glass"`
	}
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("osascript: %w", err)
	}
	return nil
}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeAppleScript(s string) string {
	return appleScriptEscaper.Replace(s)
}
