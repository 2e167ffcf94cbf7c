package notify

import (
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	sent []Notification
	err  error
}

func (c *captured) Notify(n Notification) error {
	c.sent = append(c.sent, n)
	return c.err
}

func (c *captured) Available() bool { return true }

func TestNewNeverNil(t *testing.T) {
	n := New()
	require.NotNil(t, n)
	if runtime.GOOS != "darwin" && runtime.GOOS != "linux" {
		assert.False(t, n.Available())
	}
}

func TestWithSettingsDisabled(t *testing.T) {
	c := &captured{}
	n := WithSettings(c, Settings{Enabled: false, Sound: true})
	require.NoError(t, n.Notify(Notification{Title: "x"}))
	assert.Empty(t, c.sent)
	assert.False(t, n.Available())
}

func TestWithSettingsStripsSound(t *testing.T) {
	c := &captured{}
	n := WithSettings(c, Settings{Enabled: true})
	require.NoError(t, n.Notify(Notification{Title: "Focus complete", Body: "25 minutes", Sound: true}))
	require.Len(t, c.sent, 1)
	assert.False(t, c.sent[0].Sound)
	assert.Equal(t, "Focus complete", c.sent[0].Title)

	loud := WithSettings(c, Settings{Enabled: true, Sound: true})
	require.NoError(t, loud.Notify(Notification{Title: "t", Sound: true}))
	assert.True(t, c.sent[1].Sound)
}

func TestWithSettingsPassesErrors(t *testing.T) {
	c := &captured{err: errors.New("exit status 1")}
	err := WithSettings(c, Settings{Enabled: true}).Notify(Notification{Title: "t"})
	assert.EqualError(t, err, "exit status 1")
}

// TestSendDesktop shows a real notification.
func TestSendDesktop(t *testing.T) {
	if os.Getenv("RUN_NOTIFY_TESTS") != "1" {
		t.Skip("set RUN_NOTIFY_TESTS=1 to show a real notification")
	}
	n := New()
	if !n.Available() {
		t.Skip("no notifier installed")
	}
	require.NoError(t, n.Notify(Notification{Title: "focusflow test", Body: "notifications work"}))
}
