// Package shell runs short-lived helper commands (osascript, xattr, brew
// queries) and renders command lines for display and for terminals.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes helper commands. Tests substitute a fake.
type Runner interface {
	// Run executes name with args and returns its standard output.
	// A non-zero exit is an error that includes the command's stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// Start launches name with args without waiting for it to finish.
	Start(ctx context.Context, name string, args ...string) error
}

// Exec implements Runner with os/exec.
type Exec struct {
	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

// Run implements Runner.
func (e Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if e.Env != nil {
		cmd.Env = e.Env
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Start implements Runner. The child is reaped in the background.
func (e Exec) Start(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if e.Env != nil {
		cmd.Env = e.Env
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

var _ Runner = Exec{}

// Quote returns s quoted for a POSIX shell. Strings made only of safe
// characters are returned unchanged.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, c := range s {
		if !isShellSafe(c) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '/' || c == '@' || c == '=' || c == ':' || c == '+'
}

// Join quotes each argument and joins them with spaces.
func Join(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}

// AppleScriptString returns s as a double-quoted AppleScript string literal.
func AppleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
