// Package notify raises desktop notifications for task results and for
// escalations that need the user's attention.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/caskdeck/caskdeck/internal/shell"
)

// Notifier delivers a user-facing notification. Delivery is
// fire-and-forget: Notify must not block on the user.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Config controls desktop notifications.
type Config struct {
	Enabled   bool
	UseSound  bool
	SoundPath string
}

// Desktop implements Notifier with the platform's notification tool:
// osascript on macOS, notify-send elsewhere. When no tool is available it
// rings the terminal bell.
type Desktop struct {
	cfg    Config
	runner shell.Runner
	goos   string
	bell   io.Writer
}

// NewDesktop creates a Desktop notifier. A nil runner uses shell.Exec.
func NewDesktop(cfg Config, runner shell.Runner) *Desktop {
	if runner == nil {
		runner = shell.Exec{}
	}
	return &Desktop{cfg: cfg, runner: runner, goos: runtime.GOOS, bell: os.Stdout}
}

// Notify implements Notifier.
func (d *Desktop) Notify(ctx context.Context, title, body string) error {
	if !d.cfg.Enabled {
		return nil
	}

	var err error
	switch d.goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s",
			shell.AppleScriptString(body), shell.AppleScriptString(title))
		err = d.runner.Start(ctx, "osascript", "-e", script)
		if err == nil && d.cfg.UseSound {
			if d.cfg.SoundPath == "" {
				_ = d.runner.Start(ctx, "osascript", "-e", "beep")
			} else {
				_ = d.runner.Start(ctx, "afplay", d.cfg.SoundPath)
			}
		}
	default:
		err = d.runner.Start(ctx, "notify-send", "--app-name=caskdeck", title, body)
	}

	if err != nil {
		_, _ = d.bell.Write([]byte{'\a'})
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

// Nop discards notifications.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, string, string) error { return nil }

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, title, body string) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, title, body string) error {
	return f(ctx, title, body)
}

var (
	_ Notifier = (*Desktop)(nil)
	_ Notifier = Nop{}
	_ Notifier = Func(nil)
)
