package escalation

import (
	"context"
	"fmt"
	"strings"

	"github.com/caskdeck/caskdeck/internal/shell"
)

// TerminalOpener opens a new, user-visible terminal window running
// commandLine. It returns once the window has been requested; it does not
// wait for the command to finish.
type TerminalOpener interface {
	Open(ctx context.Context, commandLine string) error
	Name() string
}

// AppleScriptTerminal opens a window in a macOS terminal application by
// driving it with osascript.
type AppleScriptTerminal struct {
	// App is the application to script, e.g. "Terminal" or "iTerm".
	App    string
	runner shell.Runner
}

// NewAppleScriptTerminal creates an opener for app. A nil runner uses
// shell.Exec.
func NewAppleScriptTerminal(app string, runner shell.Runner) *AppleScriptTerminal {
	if app == "" {
		app = "Terminal"
	}
	if runner == nil {
		runner = shell.Exec{}
	}
	return &AppleScriptTerminal{App: app, runner: runner}
}

// Script returns the AppleScript that runs commandLine in a new window.
func (a *AppleScriptTerminal) Script(commandLine string) string {
	return strings.Join([]string{
		"tell application " + shell.AppleScriptString(a.App),
		"    activate",
		"    do script " + shell.AppleScriptString(commandLine),
		"end tell",
	}, "\n")
}

// Open implements TerminalOpener.
func (a *AppleScriptTerminal) Open(ctx context.Context, commandLine string) error {
	if _, err := a.runner.Run(ctx, "osascript", "-e", a.Script(commandLine)); err != nil {
		return fmt.Errorf("open %s: %w", a.App, err)
	}
	return nil
}

// Name implements TerminalOpener.
func (a *AppleScriptTerminal) Name() string { return a.App }

// ExecTerminal opens a terminal emulator that accepts a command after its
// arguments, e.g. `x-terminal-emulator -e sh -c <line>`.
type ExecTerminal struct {
	Program string
	Args    []string
	runner  shell.Runner
}

// NewExecTerminal creates an opener that runs program with args followed by
// "sh -c <commandLine>". A nil runner uses shell.Exec.
func NewExecTerminal(program string, args []string, runner shell.Runner) *ExecTerminal {
	if runner == nil {
		runner = shell.Exec{}
	}
	return &ExecTerminal{Program: program, Args: args, runner: runner}
}

// Open implements TerminalOpener. The emulator is started in the background.
func (e *ExecTerminal) Open(ctx context.Context, commandLine string) error {
	args := append(append([]string{}, e.Args...), "sh", "-c", commandLine)
	if err := e.runner.Start(ctx, e.Program, args...); err != nil {
		return fmt.Errorf("open %s: %w", e.Program, err)
	}
	return nil
}

// Name implements TerminalOpener.
func (e *ExecTerminal) Name() string { return e.Program }

var (
	_ TerminalOpener = (*AppleScriptTerminal)(nil)
	_ TerminalOpener = (*ExecTerminal)(nil)
)
