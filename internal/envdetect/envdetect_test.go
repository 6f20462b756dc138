// ABOUTME: Tests for client environment detection
// ABOUTME: Covers each known client marker and the terminal fallback

package envdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func detectorWith(vars map[string]string) *Detector {
	return NewWithLookup(func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
}

func TestDetectEnvironment(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"claude code", map[string]string{"CLAUDECODE": "1"}, "claude-code"},
		{"claude code entrypoint", map[string]string{"CLAUDE_CODE_ENTRYPOINT": "cli"}, "claude-code"},
		{"cursor", map[string]string{"CURSOR_TRACE_ID": "abc"}, "cursor"},
		{"vscode terminal", map[string]string{"TERM_PROGRAM": "vscode"}, "vscode"},
		{"other term program", map[string]string{"TERM_PROGRAM": "iTerm.app"}, "terminal"},
		{"windsurf", map[string]string{"WINDSURF_SESSION": "x"}, "windsurf"},
		{"ci", map[string]string{"CI": "true"}, "ci"},
		{"ci false", map[string]string{"CI": "false"}, "terminal"},
		{"bare shell", map[string]string{}, "terminal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectorWith(tt.vars).DetectEnvironment())
		})
	}
}

func TestDetectEnvironment_MostSpecificWins(t *testing.T) {
	d := detectorWith(map[string]string{
		"CLAUDECODE":   "1",
		"TERM_PROGRAM": "vscode",
		"CI":           "true",
	})
	assert.Equal(t, "claude-code", d.DetectEnvironment())
}
