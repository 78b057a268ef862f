package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/status"
	"github.com/caskdeck/caskdeck/internal/task"
	"github.com/caskdeck/caskdeck/internal/tui/styles"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the task queue of the running caskdeck process",
	Long: `Display the last status snapshot written by a running caskdeck process:
the task holding the execution slot, queued tasks and recent results.

With --watch the output is refreshed every time the snapshot changes.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the raw snapshot as JSON")
	statusCmd.Flags().BoolP("watch", "w", false, "keep printing the snapshot as it changes")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.Paths.ResolveStateDir()
	asJSON, _ := cmd.Flags().GetBool("json")
	watch, _ := cmd.Flags().GetBool("watch")

	show := func() error {
		snap, err := status.LoadSnapshot(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No status yet: caskdeck has not run any tasks.")
				return nil
			}
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), snap)
		}
		printSnapshot(cmd.OutOrStdout(), snap, time.Now())
		return nil
	}

	if err := show(); err != nil || !watch {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchSnapshot(ctx, dir, func() {
		fmt.Fprintln(cmd.OutOrStdout())
		if err := show(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "status: %v\n", err)
		}
	})
}

// watchSnapshot calls onChange whenever the snapshot file in dir is
// replaced, until ctx is done. The directory is watched rather than the
// file because snapshots are written with a rename.
func watchSnapshot(ctx context.Context, dir string, onChange func()) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := status.StatePath(dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}

func printSnapshot(out io.Writer, snap status.Snapshot, now time.Time) {
	c := snap.Counts
	fmt.Fprintf(out, "Updated: %s", snap.UpdatedAt.Format("2006-01-02 15:04:05"))
	if snap.PID > 0 {
		fmt.Fprintf(out, " (pid %d)", snap.PID)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Tasks: %d queued, %d running, %d succeeded, %d failed\n\n",
		c.Queued, c.Running+c.EscalationPending, c.Succeeded, c.Failed)

	if cur, ok := snap.Current(); ok {
		fmt.Fprintf(out, "Now: %s %s %s (%s)\n", styles.StateIcon(cur.State), cur.Task.Action, cur.Task.DisplayName,
			cur.Duration(now).Round(time.Second))
		if !cur.Progress.IsZero() {
			fmt.Fprintf(out, "     %d%% %s\n", cur.Progress.Percent, cur.Progress.Text)
		}
		fmt.Fprintln(out)
	}

	if queued := snap.Filter(task.StateQueued); len(queued) > 0 {
		fmt.Fprintln(out, "Queued:")
		for i := len(queued) - 1; i >= 0; i-- {
			v := queued[i]
			fmt.Fprintf(out, "  %s %s %s\n", styles.StateIcon(v.State), v.Task.Action, v.Task.PackageID)
		}
		fmt.Fprintln(out)
	}

	if finished := snap.Filter(task.StateSucceeded, task.StateFailed); len(finished) > 0 {
		fmt.Fprintln(out, "Recent:")
		for _, v := range finished {
			line := fmt.Sprintf("  %s %s %s", styles.StateIcon(v.State), v.Task.Action, v.Task.DisplayName)
			switch {
			case v.State == task.StateFailed && v.Message != "":
				line += ": " + v.Message
			case v.Outcome == task.OutcomeAssumed:
				line += " (assumed)"
			}
			fmt.Fprintln(out, line)
		}
	}
}
