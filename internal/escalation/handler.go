// Package escalation hands a command that needs elevated privileges to an
// interactive terminal, where the user can type their password.
//
// The handler cannot observe the command it hands off. After a fixed grace
// period it reports [OutcomeAssumedSuccess], which callers must keep
// distinct from a success the package manager confirmed.
package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/logging"
	"github.com/caskdeck/caskdeck/internal/notify"
	"github.com/caskdeck/caskdeck/internal/supervisor"
	"github.com/caskdeck/caskdeck/internal/task"
)

// DefaultGracePeriod is how long the handler waits after opening the
// terminal before assuming success.
const DefaultGracePeriod = 5 * time.Second

// PasswordPrompt is the progress sample shown while the user is expected
// to type their password.
var PasswordPrompt = task.Progress{Percent: 50, Text: "Check terminal for password..."}

// Outcome is the result of an escalation.
type Outcome int

const (
	// OutcomeAssumedSuccess means the terminal opened and the grace period
	// elapsed. The command's real result is unknown.
	OutcomeAssumedSuccess Outcome = iota

	// OutcomeSurfaceFailed means the terminal could not be opened.
	OutcomeSurfaceFailed
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAssumedSuccess:
		return "assumed_success"
	case OutcomeSurfaceFailed:
		return "surface_failed"
	default:
		return "unknown"
	}
}

// Result is returned by Handler.Resolve.
type Result struct {
	Outcome Outcome
	Err     error // set when Outcome is OutcomeSurfaceFailed
}

// ProgressReporter receives the password-prompt progress sample.
type ProgressReporter interface {
	Progress(t task.Task, p task.Progress) error
}

// Config configures a Handler.
type Config struct {
	// GracePeriod is the wait between opening the terminal and assuming
	// success. Zero means DefaultGracePeriod.
	GracePeriod time.Duration

	// SudoCommand prefixes the re-issued command. Empty means "sudo".
	SudoCommand string
}

// Handler runs the escalation fallback for one task at a time.
type Handler struct {
	opener   TerminalOpener
	notifier notify.Notifier
	reporter ProgressReporter
	cfg      Config
	logger   *logging.Logger

	// wait is replaced in tests.
	wait func(ctx context.Context, d time.Duration)
}

// NewHandler creates a Handler.
func NewHandler(opener TerminalOpener, notifier notify.Notifier, reporter ProgressReporter, cfg Config, logger *logging.Logger) *Handler {
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.SudoCommand == "" {
		cfg.SudoCommand = "sudo"
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Handler{
		opener:   opener,
		notifier: notifier,
		reporter: reporter,
		cfg:      cfg,
		logger:   logger.WithComponent("escalation"),
		wait:     sleepContext,
	}
}

// CommandLine returns the line typed into the terminal: the original
// command behind the privilege prefix, followed by exit so the window
// closes when it is done.
func (h *Handler) CommandLine(cmd supervisor.Command) string {
	return fmt.Sprintf("%s %s; exit", h.cfg.SudoCommand, cmd.String())
}

// Resolve reports the password prompt, opens the terminal, asks the user
// for input and waits out the grace period. It always returns; a cancelled
// ctx ends the grace period early but still yields OutcomeAssumedSuccess
// because the terminal is already running the command.
func (h *Handler) Resolve(ctx context.Context, t task.Task, cmd supervisor.Command) Result {
	log := h.logger.WithTask(t.ID).WithPackage(t.PackageID)

	if h.reporter != nil {
		if err := h.reporter.Progress(t, PasswordPrompt); err != nil {
			log.Warn("failed to report escalation progress", "error", err)
		}
	}

	line := h.CommandLine(cmd)
	if err := h.opener.Open(ctx, line); err != nil {
		escErr := errors.NewEscalationError(err).WithTerminal(h.opener.Name())
		log.Error("failed to open escalation terminal", "error", escErr)
		return Result{Outcome: OutcomeSurfaceFailed, Err: escErr}
	}
	log.Info("escalated command handed to terminal", "terminal", h.opener.Name())

	body := fmt.Sprintf("Please enter your password for %s in the new terminal window.", t.DisplayName)
	if err := h.notifier.Notify(ctx, "Action Required", body); err != nil {
		log.Warn("failed to raise escalation notification", "error", err)
	}

	h.wait(ctx, h.cfg.GracePeriod)
	log.Info("escalation grace period over; assuming success", "grace_period", h.cfg.GracePeriod)
	return Result{Outcome: OutcomeAssumedSuccess}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
