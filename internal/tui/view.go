package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/caskdeck/caskdeck/internal/status"
	"github.com/caskdeck/caskdeck/internal/task"
	"github.com/caskdeck/caskdeck/internal/tui/styles"
)

// View renders the board.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.Header.Render("caskdeck"))
	b.WriteString("\n")

	if len(m.snap.Tasks) == 0 {
		b.WriteString(styles.Muted.Render("No tasks yet."))
		b.WriteString("\n")
	}

	now := m.now()
	for _, v := range m.snap.Tasks {
		b.WriteString(m.renderTask(v, now))
		b.WriteString("\n")
	}

	b.WriteString(renderCounts(m.snap.Counts))
	if !m.quitting {
		b.WriteString("\n")
		b.WriteString(styles.HelpBar.Render(styles.HelpKey.Render("q") + " quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTask(v status.TaskView, now time.Time) string {
	icon := lipgloss.NewStyle().Foreground(styles.StateColor(v.State)).Render(styles.StateIcon(v.State))
	if v.State == task.StateRunning {
		icon = m.spinner.View()
	}

	line := fmt.Sprintf("%s %s %s", icon,
		styles.TaskAction.Render(string(v.Task.Action)),
		styles.TaskName.Render(v.Task.DisplayName))
	if v.Task.DisplayName != v.Task.PackageID {
		line += styles.Muted.Render(" (" + v.Task.PackageID + ")")
	}
	if d := v.Duration(now); d > 0 {
		line += styles.Muted.Render(" " + d.Round(time.Second).String())
	}

	var detail string
	switch {
	case v.State.IsActive() && !v.Progress.IsZero():
		detail = m.bar.ViewAs(v.Progress.Fraction())
		if v.Progress.Text != "" {
			detail += " " + v.Progress.Text
		}
	case v.State == task.StateFailed:
		detail = styles.Error.Render(v.Message)
	case v.State == task.StateSucceeded && v.Outcome == task.OutcomeAssumed:
		detail = styles.Warning.Render("completed in terminal, assumed successful")
	case v.State == task.StateEscalationPending:
		detail = styles.Warning.Render("enter your password in the terminal window")
	}

	if m.width > 0 {
		line = truncate(line, m.width)
	}
	if detail == "" {
		return line
	}
	return line + "\n" + truncate(styles.TaskDetail.Render(detail), m.width)
}

func renderCounts(c status.Counts) string {
	parts := []string{fmt.Sprintf("%d queued", c.Queued)}
	if active := c.Running + c.EscalationPending; active > 0 {
		parts = append(parts, styles.Primary.Render(fmt.Sprintf("%d running", active)))
	}
	parts = append(parts, styles.Secondary.Render(fmt.Sprintf("%d done", c.Succeeded)))
	if c.Failed > 0 {
		parts = append(parts, styles.Error.Render(fmt.Sprintf("%d failed", c.Failed)))
	}
	return "\n" + strings.Join(parts, styles.Muted.Render(" · "))
}

// truncate cuts s to width visible columns. A non-positive width leaves s
// untouched.
func truncate(s string, width int) string {
	if width <= 3 || lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "...")
}
