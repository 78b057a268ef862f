package status

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/caskdeck/caskdeck/internal/event"
	"github.com/caskdeck/caskdeck/internal/notify"
	"github.com/caskdeck/caskdeck/internal/task"
)

func TestBoard_TracksLifecycle(t *testing.T) {
	r := NewReporter(event.NewBus(nil), notify.Nop{}, nil)
	b := NewBoard(0)
	detach := b.Attach(r)
	defer detach()

	tk := mustTask(t, task.ActionInstall, "firefox", "Firefox")
	_ = r.Queued(tk)

	v, ok := b.Get(tk.ID)
	if !ok || v.State != task.StateQueued {
		t.Fatalf("Get() = %+v, %v", v, ok)
	}

	_ = r.Running(tk)
	_ = r.Progress(tk, task.Progress{Percent: 42, Text: "Downloading..."})

	v, _ = b.Get(tk.ID)
	if v.State != task.StateRunning || v.Progress.Percent != 42 || v.StartedAt == nil {
		t.Errorf("running view = %+v", v)
	}
	if cur, ok := b.Snapshot().Current(); !ok || cur.Task.ID != tk.ID {
		t.Errorf("Current() = %+v, %v", cur, ok)
	}

	_ = r.Succeeded(tk, task.OutcomeVerified)
	v, _ = b.Get(tk.ID)
	if v.State != task.StateSucceeded || v.Outcome != task.OutcomeVerified {
		t.Errorf("final view = %+v", v)
	}
	if !v.Progress.IsZero() {
		t.Errorf("progress should be cleared on completion, got %+v", v.Progress)
	}
	if v.FinishedAt == nil || v.Duration(time.Now()) < 0 {
		t.Errorf("FinishedAt/Duration not set: %+v", v)
	}
	if _, ok := b.Snapshot().Current(); ok {
		t.Error("Current() should be empty once the task finished")
	}
}

func TestBoard_Counts(t *testing.T) {
	r := NewReporter(event.NewBus(nil), notify.Nop{}, nil)
	b := NewBoard(0)
	b.Attach(r)

	running := mustTask(t, task.ActionInstall, "zoom", "Zoom")
	queued := mustTask(t, task.ActionInstall, "slack", "Slack")
	failed := mustTask(t, task.ActionUninstall, "iterm2", "iTerm2")

	_ = r.Queued(failed)
	_ = r.Running(failed)
	_ = r.Failed(failed, "process exited with code 1")
	_ = r.Queued(running)
	_ = r.Running(running)
	_ = r.Queued(queued)

	c := b.Counts()
	if c.Total != 3 || c.Queued != 1 || c.Running != 1 || c.Failed != 1 || c.Active() != 2 {
		t.Errorf("Counts() = %+v", c)
	}
	if snap := b.Snapshot(); snap.Counts != c {
		t.Errorf("Snapshot().Counts = %+v, want %+v", snap.Counts, c)
	}
}

func TestBoard_PrunesFinishedHistory(t *testing.T) {
	r := NewReporter(event.NewBus(nil), notify.Nop{}, nil)
	b := NewBoard(2)
	b.Attach(r)

	var ids []string
	for i := 0; i < 4; i++ {
		tk := mustTask(t, task.ActionInstall, fmt.Sprintf("cask-%d", i), "")
		ids = append(ids, tk.ID)
		_ = r.Queued(tk)
		_ = r.Running(tk)
		_ = r.Succeeded(tk, task.OutcomeVerified)
	}
	pending := mustTask(t, task.ActionInstall, "pending", "")
	_ = r.Queued(pending)

	snap := b.Snapshot()
	if len(snap.Tasks) != 3 {
		t.Fatalf("len(Tasks) = %d, want 3", len(snap.Tasks))
	}
	for _, id := range ids[:2] {
		if _, ok := b.Get(id); ok {
			t.Errorf("task %s should have been pruned", id)
		}
	}
	for _, id := range append(ids[2:], pending.ID) {
		if _, ok := b.Get(id); !ok {
			t.Errorf("task %s should be kept", id)
		}
	}
}

func TestBoard_OnChangeSkipsProgress(t *testing.T) {
	r := NewReporter(event.NewBus(nil), notify.Nop{}, nil)
	b := NewBoard(0)
	b.Attach(r)

	var snaps []Snapshot
	b.OnChange(func(s Snapshot) { snaps = append(snaps, s) })

	tk := mustTask(t, task.ActionInstall, "firefox", "Firefox")
	_ = r.Queued(tk)
	_ = r.Running(tk)
	_ = r.Progress(tk, task.Progress{Percent: 5})
	_ = r.Progress(tk, task.Progress{Percent: 6})

	if len(snaps) != 2 {
		t.Fatalf("OnChange called %d times, want 2", len(snaps))
	}
	if snaps[1].Counts.Running != 1 {
		t.Errorf("last snapshot = %+v", snaps[1].Counts)
	}
}

func TestBoard_IgnoresProgressForUnknownTask(t *testing.T) {
	b := NewBoard(0)
	tk := mustTask(t, task.ActionInstall, "firefox", "Firefox")
	b.Handle(event.NewTaskProgressEvent(tk, task.Progress{Percent: 50}))
	if _, ok := b.Get(tk.ID); ok {
		t.Error("progress alone should not create a view")
	}
}

func TestSnapshot_Filter(t *testing.T) {
	now := time.Now()
	snap := Snapshot{Tasks: []TaskView{
		{Task: task.Task{ID: "a", CreatedAt: now.Add(-2 * time.Minute)}, State: task.StateSucceeded},
		{Task: task.Task{ID: "b", CreatedAt: now.Add(-time.Minute)}, State: task.StateFailed},
		{Task: task.Task{ID: "c", CreatedAt: now}, State: task.StateQueued},
	}}

	all := snap.Filter()
	if len(all) != 3 || all[0].Task.ID != "c" {
		t.Errorf("Filter() = %+v", all)
	}
	finished := snap.Filter(task.StateSucceeded, task.StateFailed)
	if len(finished) != 2 || finished[0].Task.ID != "b" || finished[1].Task.ID != "a" {
		t.Errorf("Filter(finished) = %+v", finished)
	}
}

func TestBoard_WatchStartsAfterSnapshot(t *testing.T) {
	r := NewReporter(event.NewBus(nil), notify.Nop{}, nil)
	b := NewBoard(0)
	b.Attach(r)

	tk := mustTask(t, task.ActionUpgrade, "zoom", "Zoom")
	_ = r.Queued(tk)

	var got []task.State
	snap, stop := b.Watch(func(e event.Event) {
		if st, ok := e.(event.TaskStateEvent); ok {
			got = append(got, st.State)
		}
	})
	if len(snap.Tasks) != 1 || snap.Tasks[0].State != task.StateQueued {
		t.Fatalf("snapshot = %+v", snap.Tasks)
	}

	_ = r.Running(tk)
	stop()
	_ = r.Succeeded(tk, task.OutcomeVerified)

	if len(got) != 1 || got[0] != task.StateRunning {
		t.Errorf("watched states = %v, want [running]", got)
	}
}

func TestBoard_WatchDuringPublishing(t *testing.T) {
	r := NewReporter(event.NewBus(nil), notify.Nop{}, nil)
	b := NewBoard(0)
	b.Attach(r)

	const total = 200
	tasks := make([]task.Task, total)
	for i := range tasks {
		tasks[i] = mustTask(t, task.ActionInstall, fmt.Sprintf("cask-%d", i), "")
	}

	published := make(chan struct{})
	go func() {
		defer close(published)
		for _, tk := range tasks {
			_ = r.Queued(tk)
		}
	}()

	var mu sync.Mutex
	seen := make(map[string]int)
	snap, stop := b.Watch(func(e event.Event) {
		if st, ok := e.(event.TaskStateEvent); ok {
			mu.Lock()
			seen[st.Task.ID]++
			mu.Unlock()
		}
	})
	defer stop()
	<-published

	mu.Lock()
	defer mu.Unlock()
	for _, v := range snap.Tasks {
		seen[v.Task.ID]++
	}
	for _, tk := range tasks {
		if seen[tk.ID] != 1 {
			t.Errorf("task %s seen %d times across snapshot and stream, want 1", tk.PackageID, seen[tk.ID])
		}
	}
}
