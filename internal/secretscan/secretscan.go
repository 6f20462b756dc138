// ABOUTME: Advisory secret scanner flagging credential-shaped content
// ABOUTME: Built-in regex rules plus optional TOML rule files; never blocks logging

package secretscan

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Rule is one named pattern the scanner checks content against.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// builtinRules cover common credential shapes. Deliberately conservative:
// a false positive is a harmless advisory flag, a noisy scanner gets ignored.
var builtinRules = []Rule{
	{"aws access key", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"github token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)},
	{"slack token", regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`)},
	{"private key block", regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)},
	{"bearer token", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]{20,}`)},
	{"generic api key", regexp.MustCompile(`(?i)\b(api[_-]?key|secret[_-]?key|access[_-]?token)\s*[:=]\s*['"]?[A-Za-z0-9\-._]{16,}`)},
	{"password assignment", regexp.MustCompile(`(?i)\bpassword\s*[:=]\s*['"]?[^\s'"]{8,}`)},
}

// Scanner flags content that may contain credentials. It satisfies the
// conversation engine's SecretScanner interface.
type Scanner struct {
	rules  []Rule
	logger *slog.Logger
}

// New creates a Scanner with the built-in rules.
func New(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		rules:  builtinRules,
		logger: logger.With("component", "secretscan"),
	}
}

// ContainsSecrets reports whether content matches any rule.
func (s *Scanner) ContainsSecrets(content string) bool {
	for _, r := range s.rules {
		if r.Pattern.MatchString(content) {
			s.logger.Debug("content matched secret rule", "rule", r.Name)
			return true
		}
	}
	return false
}

// ruleFile is the TOML shape for custom rules:
//
//	[[rule]]
//	name = "internal service token"
//	pattern = 'svc-[a-f0-9]{32}'
type ruleFile struct {
	Rules []struct {
		Name    string `toml:"name"`
		Pattern string `toml:"pattern"`
	} `toml:"rule"`
}

// LoadRules merges additional rules from a TOML file into the scanner.
// Invalid patterns fail the load; already-merged rules are kept.
func (s *Scanner) LoadRules(path string) error {
	var rf ruleFile
	if _, err := toml.DecodeFile(path, &rf); err != nil {
		return fmt.Errorf("decoding rule file %s: %w", path, err)
	}

	for _, r := range rf.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return fmt.Errorf("compiling rule %q: %w", r.Name, err)
		}
		s.rules = append(s.rules, Rule{Name: r.Name, Pattern: re})
	}

	s.logger.Info("loaded custom secret rules", "path", path, "count", len(rf.Rules))
	return nil
}
