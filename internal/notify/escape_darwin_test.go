//go:build darwin

package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeAppleScript(t *testing.T) {
	tests := map[string]string{
		"Hello":                  "Hello",
		`Hello "World"`:          `Hello \"World\"`,
		`Path\to\file`:           `Path\\to\\file`,
		`Mix "quote" and \slash`: `Mix \"quote\" and \\slash`,
	}
	for in, want := range tests {
		assert.Equal(t, want, escapeAppleScript(in), in)
	}
}
