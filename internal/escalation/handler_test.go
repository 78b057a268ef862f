package escalation

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	cderrors "github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/notify"
	"github.com/caskdeck/caskdeck/internal/supervisor"
	"github.com/caskdeck/caskdeck/internal/task"
)

type fakeOpener struct {
	lines []string
	err   error
}

func (f *fakeOpener) Open(_ context.Context, line string) error {
	f.lines = append(f.lines, line)
	return f.err
}

func (f *fakeOpener) Name() string { return "FakeTerm" }

type progressRecorder struct {
	mu      sync.Mutex
	samples []task.Progress
}

func (r *progressRecorder) Progress(_ task.Task, p task.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, p)
	return nil
}

type notification struct{ title, body string }

func recordNotifications(dst *[]notification) notify.Notifier {
	return notify.Func(func(_ context.Context, title, body string) error {
		*dst = append(*dst, notification{title, body})
		return nil
	})
}

var brewInstall = supervisor.Command{
	Path: "/opt/homebrew/bin/brew",
	Args: []string{"install", "--cask", "firefox"},
}

func TestHandler_CommandLine(t *testing.T) {
	h := NewHandler(&fakeOpener{}, nil, nil, Config{}, nil)
	want := "sudo /opt/homebrew/bin/brew install --cask firefox; exit"
	if got := h.CommandLine(brewInstall); got != want {
		t.Errorf("CommandLine() = %q, want %q", got, want)
	}
}

func TestHandler_ResolveAssumesSuccess(t *testing.T) {
	tk, _ := task.New(task.ActionInstall, "firefox", "Firefox")
	opener := &fakeOpener{}
	progress := &progressRecorder{}
	var notes []notification

	h := NewHandler(opener, recordNotifications(&notes), progress, Config{GracePeriod: 5 * time.Second}, nil)
	var waited time.Duration
	h.wait = func(_ context.Context, d time.Duration) { waited = d }

	res := h.Resolve(context.Background(), tk, brewInstall)

	if res.Outcome != OutcomeAssumedSuccess || res.Err != nil {
		t.Fatalf("Resolve() = %+v, want assumed success", res)
	}
	if !reflect.DeepEqual(progress.samples, []task.Progress{PasswordPrompt}) {
		t.Errorf("progress = %+v, want [%+v]", progress.samples, PasswordPrompt)
	}
	if len(opener.lines) != 1 || !strings.HasPrefix(opener.lines[0], "sudo ") {
		t.Errorf("opener lines = %q", opener.lines)
	}
	if len(notes) != 1 || notes[0].title != "Action Required" || !strings.Contains(notes[0].body, "Firefox") {
		t.Errorf("notifications = %+v", notes)
	}
	if waited != 5*time.Second {
		t.Errorf("waited %v, want 5s", waited)
	}
}

func TestHandler_ResolveSurfaceFailure(t *testing.T) {
	tk, _ := task.New(task.ActionUninstall, "slack", "Slack")
	opener := &fakeOpener{err: errors.New("osascript: not allowed")}
	var notes []notification

	h := NewHandler(opener, recordNotifications(&notes), &progressRecorder{}, Config{}, nil)
	h.wait = func(context.Context, time.Duration) { t.Error("must not wait after a surface failure") }

	res := h.Resolve(context.Background(), tk, brewInstall)
	if res.Outcome != OutcomeSurfaceFailed {
		t.Fatalf("Outcome = %v, want surface_failed", res.Outcome)
	}
	if !cderrors.Is(res.Err, cderrors.ErrEscalationSurface) {
		t.Errorf("Err = %v, want ErrEscalationSurface", res.Err)
	}
	if cderrors.Reason(res.Err) != "failed to open escalation terminal" {
		t.Errorf("Reason() = %q", cderrors.Reason(res.Err))
	}
	if len(notes) != 0 {
		t.Errorf("no input notification expected, got %+v", notes)
	}
}

func TestHandler_CancelledContextStillResolves(t *testing.T) {
	tk, _ := task.New(task.ActionUpgrade, "zoom", "Zoom")
	h := NewHandler(&fakeOpener{}, nil, nil, Config{GracePeriod: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan Result, 1)
	go func() { done <- h.Resolve(ctx, tk, brewInstall) }()

	select {
	case res := <-done:
		if res.Outcome != OutcomeAssumedSuccess {
			t.Errorf("Outcome = %v, want assumed_success", res.Outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not return after cancellation")
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{OutcomeAssumedSuccess, "assumed_success"},
		{OutcomeSurfaceFailed, "surface_failed"},
		{Outcome(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}
