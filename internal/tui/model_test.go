package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/caskdeck/caskdeck/internal/event"
	"github.com/caskdeck/caskdeck/internal/status"
	"github.com/caskdeck/caskdeck/internal/task"
)

type boardHarness struct {
	board    *status.Board
	reporter *status.Reporter
}

func newHarness(t *testing.T) boardHarness {
	t.Helper()
	reporter := status.NewReporter(event.NewBus(nil), nil, nil)
	board := status.NewBoard(0)
	board.Attach(reporter)
	return boardHarness{board: board, reporter: reporter}
}

func (h boardHarness) submit(t *testing.T, action task.Action, pkg, name string) task.Task {
	t.Helper()
	tk, err := task.New(action, pkg, name)
	if err != nil {
		t.Fatalf("task.New() error = %v", err)
	}
	if err := h.reporter.Queued(tk); err != nil {
		t.Fatalf("Queued() error = %v", err)
	}
	return tk
}

func refresh(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tickMsg(time.Now()))
	return next.(Model), cmd
}

func TestModel_RendersTasks(t *testing.T) {
	h := newHarness(t)
	firefox := h.submit(t, task.ActionInstall, "firefox", "Firefox")
	h.submit(t, task.ActionUninstall, "slack", "Slack")
	_ = h.reporter.Running(firefox)
	_ = h.reporter.Progress(firefox, task.Progress{Percent: 61, Text: "Downloading"})

	m, _ := refresh(t, NewModel(h.board, Options{}))
	out := ansi.Strip(m.View())

	for _, want := range []string{"install", "Firefox", "(firefox)", "uninstall", "Slack", "Downloading", "1 queued", "1 running"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q:\n%s", want, out)
		}
	}
}

func TestModel_RendersOutcomes(t *testing.T) {
	h := newHarness(t)
	zoom := h.submit(t, task.ActionUpgrade, "zoom", "Zoom")
	vlc := h.submit(t, task.ActionInstall, "vlc", "VLC")
	_ = h.reporter.Running(zoom)
	_ = h.reporter.EscalationPending(zoom)
	_ = h.reporter.Succeeded(zoom, task.OutcomeAssumed)
	_ = h.reporter.Running(vlc)
	_ = h.reporter.Failed(vlc, "brew exited with status 1")

	m, _ := refresh(t, NewModel(h.board, Options{}))
	out := ansi.Strip(m.View())

	for _, want := range []string{"✓", "assumed successful", "✗", "brew exited with status 1", "1 done", "1 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q:\n%s", want, out)
		}
	}
}

func TestModel_EmptyBoard(t *testing.T) {
	h := newHarness(t)
	m := NewModel(h.board, Options{ExitWhenIdle: true})
	if m.Done() {
		t.Error("an empty board must not count as done")
	}
	if !strings.Contains(ansi.Strip(m.View()), "No tasks yet.") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestModel_ExitWhenIdle(t *testing.T) {
	tests := []struct {
		name         string
		exitWhenIdle bool
		finish       bool
		wantDone     bool
	}{
		{"active task keeps running", true, false, false},
		{"finished board exits", true, true, true},
		{"exit disabled", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tk := h.submit(t, task.ActionInstall, "firefox", "Firefox")
			_ = h.reporter.Running(tk)
			if tt.finish {
				_ = h.reporter.Succeeded(tk, task.OutcomeVerified)
			}

			m, cmd := refresh(t, NewModel(h.board, Options{ExitWhenIdle: tt.exitWhenIdle}))
			if m.Done() != tt.wantDone {
				t.Errorf("Done() = %v, want %v", m.Done(), tt.wantDone)
			}
			if cmd == nil {
				t.Fatal("Update(tick) returned nil command")
			}
			_, quit := cmd().(tea.QuitMsg)
			if quit != tt.wantDone {
				t.Errorf("quit = %v, want %v", quit, tt.wantDone)
			}
		})
	}
}

func TestModel_QuitKeys(t *testing.T) {
	h := newHarness(t)
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		next, cmd := NewModel(h.board, Options{}).Update(key)
		if cmd == nil {
			t.Fatalf("key %q: expected quit command", key.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %q: command did not quit", key.String())
		}
		if !next.(Model).quitting {
			t.Errorf("key %q: model not marked quitting", key.String())
		}
	}
}

func TestModel_WindowSize(t *testing.T) {
	h := newHarness(t)
	h.submit(t, task.ActionInstall, "a-very-long-cask-token-that-overflows", "A Very Long Application Name That Overflows")

	next, _ := NewModel(h.board, Options{}).Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	m, _ := refresh(t, next.(Model))

	for _, line := range strings.Split(m.View(), "\n") {
		if w := ansi.StringWidth(line); w > 40 {
			t.Errorf("line %q is %d columns wide, want <= 40", ansi.Strip(line), w)
		}
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		term int
		want int
	}{
		{0, 10},
		{60, 20},
		{300, 50},
	}
	for _, tt := range tests {
		if got := barWidth(tt.term); got != tt.want {
			t.Errorf("barWidth(%d) = %d, want %d", tt.term, got, tt.want)
		}
	}
}
