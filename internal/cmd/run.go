package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/caskdeck/caskdeck/internal/config"
	"github.com/caskdeck/caskdeck/internal/task"
	"github.com/caskdeck/caskdeck/internal/tui"
)

// request is one task to submit.
type request struct {
	Action task.Action
	Cask   string
	Name   string
}

// runOptions controls how a batch of requests is executed.
type runOptions struct {
	plain    bool
	noLookup bool
	app      appOptions
}

// runRequests submits reqs to a fresh in-process runner, shows their
// progress and returns once every submitted task has finished. It returns
// an error if any task failed.
func runRequests(cmd *cobra.Command, cfg *config.Config, reqs []request, opts runOptions) error {
	a, err := newApp(cfg, opts.app)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	interactive := !opts.plain && isTerminal(out)
	if !interactive {
		printer := newLinePrinter(out)
		id := a.reporter.Subscribe(printer.handle)
		defer a.reporter.Unsubscribe(id)
	}

	if !opts.noLookup {
		reqs = resolveNames(ctx, a, reqs)
	}

	var submitted []task.Task
	var submitErrs int
	for _, req := range reqs {
		t, err := a.runner.Submit(req.Action, req.Cask, req.Name)
		if err != nil {
			submitErrs++
			fmt.Fprintf(cmd.ErrOrStderr(), "cannot %s %s: %v\n", req.Action, req.Cask, err)
			continue
		}
		submitted = append(submitted, t)
	}
	if len(submitted) == 0 {
		return fmt.Errorf("no tasks submitted")
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.runner.Run(runCtx) }()

	if interactive {
		if _, err := tui.Run(ctx, a.board, tui.Options{ExitWhenIdle: true}); err != nil {
			a.logger.Warn("live view failed", "error", err)
		}
	} else {
		_ = a.runner.Wait(ctx)
	}
	if cur, ok := a.runner.Current(); ok {
		fmt.Fprintf(out, "Waiting for %s %s to finish...\n", cur.Action, cur.DisplayName)
	}

	cancelRun()
	if err := <-done; err != nil {
		return err
	}

	failed := 0
	for _, t := range submitted {
		if v, ok := a.board.Get(t.ID); ok && v.State == task.StateFailed {
			failed++
		}
	}
	if failed > 0 || submitErrs > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed+submitErrs, len(reqs))
	}
	return nil
}

// resolveNames fills in missing display names from brew's cask metadata.
// Lookups that fail leave the name empty so the cask token is used.
func resolveNames(ctx context.Context, a *app, reqs []request) []request {
	out := make([]request, len(reqs))
	for i, req := range reqs {
		out[i] = req
		if req.Name != "" {
			continue
		}
		info, err := a.brew.Info(ctx, req.Cask)
		if err != nil {
			a.logger.Debug("cask info lookup failed", "package", req.Cask, "error", err)
			continue
		}
		out[i].Name = info.DisplayName()
	}
	return out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
