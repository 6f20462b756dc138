// ABOUTME: Production environment detector for session labeling
// ABOUTME: Sniffs well-known env vars to identify the AI coding client in use

package envdetect

import "os"

// Detector resolves the label of the client environment a session runs in.
// It satisfies the conversation engine's EnvironmentDetector interface.
type Detector struct {
	lookup func(string) (string, bool)
}

// New creates a Detector backed by the process environment.
func New() *Detector {
	return &Detector{lookup: os.LookupEnv}
}

// NewWithLookup creates a Detector with a custom variable lookup, for tests.
func NewWithLookup(lookup func(string) (string, bool)) *Detector {
	return &Detector{lookup: lookup}
}

// DetectEnvironment returns a label for the calling client. Checks are
// ordered most-specific first; "terminal" is the fallback.
func (d *Detector) DetectEnvironment() string {
	if _, ok := d.lookup("CLAUDECODE"); ok {
		return "claude-code"
	}
	if _, ok := d.lookup("CLAUDE_CODE_ENTRYPOINT"); ok {
		return "claude-code"
	}
	if _, ok := d.lookup("CURSOR_TRACE_ID"); ok {
		return "cursor"
	}
	if v, ok := d.lookup("TERM_PROGRAM"); ok && v == "vscode" {
		return "vscode"
	}
	if _, ok := d.lookup("WINDSURF_SESSION"); ok {
		return "windsurf"
	}
	if v, ok := d.lookup("CI"); ok && v != "" && v != "false" {
		return "ci"
	}
	return "terminal"
}
