package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/caskdeck/caskdeck/internal/event"
	"github.com/caskdeck/caskdeck/internal/status"
	"github.com/caskdeck/caskdeck/internal/task"
	"github.com/caskdeck/caskdeck/internal/tui/styles"
)

// linePrinter writes task events as plain lines for pipes and logs.
// Progress is printed once per ten-percent step.
type linePrinter struct {
	mu     sync.Mutex
	out    io.Writer
	bucket map[string]int
}

func newLinePrinter(out io.Writer) *linePrinter {
	return &linePrinter{out: out, bucket: make(map[string]int)}
}

func (p *linePrinter) handle(e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev := e.(type) {
	case event.TaskStateEvent:
		fmt.Fprintln(p.out, stateLine(ev))
		if ev.State.IsTerminal() {
			delete(p.bucket, ev.Task.ID)
		}
	case event.TaskProgressEvent:
		if ev.Cleared() {
			return
		}
		b := ev.Progress.Percent / 10
		if last, ok := p.bucket[ev.Task.ID]; ok && last == b {
			return
		}
		p.bucket[ev.Task.ID] = b
		fmt.Fprintf(p.out, "  %3d%% %s\n", ev.Progress.Percent, ev.Progress.Text)
	}
}

func stateLine(ev event.TaskStateEvent) string {
	icon := styles.StateIcon(ev.State)
	t := ev.Task
	switch ev.State {
	case task.StateQueued:
		return fmt.Sprintf("%s queued %s %s", icon, t.Action, t.PackageID)
	case task.StateRunning:
		return fmt.Sprintf("%s %s %s...", icon, presentParticiple(t.Action), t.DisplayName)
	case task.StateEscalationPending:
		return fmt.Sprintf("%s %s needs administrator privileges; enter your password in the terminal window", icon, t.DisplayName)
	default:
		_, body := status.NotificationText(t, ev.State, ev.Message, ev.Outcome)
		return fmt.Sprintf("%s %s", icon, body)
	}
}

func presentParticiple(a task.Action) string {
	switch a {
	case task.ActionInstall:
		return "Installing"
	case task.ActionUninstall:
		return "Uninstalling"
	case task.ActionUpgrade:
		return "Upgrading"
	}
	return string(a)
}
