package status

import (
	"sort"
	"sync"
	"time"

	"github.com/caskdeck/caskdeck/internal/event"
	"github.com/caskdeck/caskdeck/internal/task"
)

// DefaultHistoryLimit is how many finished tasks a Board keeps.
const DefaultHistoryLimit = 50

// TaskView is the latest known state of one task.
type TaskView struct {
	Task       task.Task     `json:"task"`
	State      task.State    `json:"state"`
	Message    string        `json:"message,omitempty"`
	Outcome    task.Outcome  `json:"outcome,omitempty"`
	Progress   task.Progress `json:"progress"`
	UpdatedAt  time.Time     `json:"updated_at"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// Duration returns how long the task has been (or was) active.
func (v TaskView) Duration(now time.Time) time.Duration {
	if v.StartedAt == nil {
		return 0
	}
	if v.FinishedAt != nil {
		return v.FinishedAt.Sub(*v.StartedAt)
	}
	return now.Sub(*v.StartedAt)
}

// Counts tallies tasks by state.
type Counts struct {
	Total             int `json:"total"`
	Queued            int `json:"queued"`
	Running           int `json:"running"`
	EscalationPending int `json:"escalation_pending"`
	Succeeded         int `json:"succeeded"`
	Failed            int `json:"failed"`
}

// Active returns the number of tasks that have not finished.
func (c Counts) Active() int {
	return c.Queued + c.Running + c.EscalationPending
}

func (c *Counts) add(s task.State) {
	c.Total++
	switch s {
	case task.StateQueued:
		c.Queued++
	case task.StateRunning:
		c.Running++
	case task.StateEscalationPending:
		c.EscalationPending++
	case task.StateSucceeded:
		c.Succeeded++
	case task.StateFailed:
		c.Failed++
	}
}

// Snapshot is a point-in-time copy of a Board.
type Snapshot struct {
	Tasks     []TaskView `json:"tasks"`
	Counts    Counts     `json:"counts"`
	UpdatedAt time.Time  `json:"updated_at"`
	PID       int        `json:"pid,omitempty"`
}

// Current returns the task holding the execution slot, if any.
func (s Snapshot) Current() (TaskView, bool) {
	for _, v := range s.Tasks {
		if v.State.IsActive() {
			return v, true
		}
	}
	return TaskView{}, false
}

// Board keeps the latest view of every task it has seen, in submission
// order. Finished tasks beyond the history limit are dropped oldest first.
type Board struct {
	mu           sync.RWMutex
	views        map[string]*TaskView
	order        []string
	historyLimit int
	updatedAt    time.Time
	onChange     []func(Snapshot)
	now          func() time.Time

	// watchMu orders event application against Watch registration.
	watchMu   sync.Mutex
	watchers  map[int]event.Handler
	nextWatch int
}

// NewBoard creates an empty Board. A non-positive historyLimit uses
// DefaultHistoryLimit.
func NewBoard(historyLimit int) *Board {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Board{
		views:        make(map[string]*TaskView),
		historyLimit: historyLimit,
		now:          time.Now,
		watchers:     make(map[int]event.Handler),
	}
}

// OnChange registers a callback invoked with a fresh snapshot after every
// state change. Progress samples do not trigger it.
func (b *Board) OnChange(fn func(Snapshot)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = append(b.onChange, fn)
}

// Attach subscribes the board to r and returns a function that detaches it.
func (b *Board) Attach(r *Reporter) (detach func()) {
	id := r.Subscribe(b.Handle)
	return func() { r.Unsubscribe(id) }
}

// Handle applies an event to the board and forwards it to watchers.
func (b *Board) Handle(e event.Event) {
	b.watchMu.Lock()
	defer b.watchMu.Unlock()

	switch ev := e.(type) {
	case event.TaskStateEvent:
		b.applyState(ev)
	case event.TaskProgressEvent:
		b.applyProgress(ev)
	}
	for _, h := range b.watchers {
		h(e)
	}
}

// Watch returns the current snapshot and forwards every later event to h.
// No event is both part of the snapshot and delivered to h, and none is
// missed between the two. h runs on the publishing goroutine, must not
// block and must not call back into the Board. The returned function stops
// the forwarding.
func (b *Board) Watch(h event.Handler) (Snapshot, func()) {
	b.watchMu.Lock()
	defer b.watchMu.Unlock()

	id := b.nextWatch
	b.nextWatch++
	b.watchers[id] = h
	stop := func() {
		b.watchMu.Lock()
		defer b.watchMu.Unlock()
		delete(b.watchers, id)
	}
	return b.Snapshot(), stop
}

func (b *Board) applyState(ev event.TaskStateEvent) {
	b.mu.Lock()
	v, ok := b.views[ev.Task.ID]
	if !ok {
		v = &TaskView{Task: ev.Task}
		b.views[ev.Task.ID] = v
		b.order = append(b.order, ev.Task.ID)
	}
	ts := ev.Timestamp()
	v.State = ev.State
	v.Message = ev.Message
	v.Outcome = ev.Outcome
	v.UpdatedAt = ts
	switch {
	case ev.State == task.StateRunning:
		v.StartedAt = &ts
	case ev.State.IsTerminal():
		v.FinishedAt = &ts
		v.Progress = task.Progress{}
	}
	b.updatedAt = ts
	b.prune()
	listeners := append([]func(Snapshot){}, b.onChange...)
	var snap Snapshot
	if len(listeners) > 0 {
		snap = b.snapshotLocked()
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (b *Board) applyProgress(ev event.TaskProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.views[ev.Task.ID]
	if !ok || v.State.IsTerminal() {
		return
	}
	v.Progress = ev.Progress
	v.UpdatedAt = ev.Timestamp()
}

// prune drops the oldest finished tasks beyond the history limit.
func (b *Board) prune() {
	finished := 0
	for _, id := range b.order {
		if b.views[id].State.IsTerminal() {
			finished++
		}
	}
	excess := finished - b.historyLimit
	if excess <= 0 {
		return
	}
	kept := b.order[:0]
	for _, id := range b.order {
		if excess > 0 && b.views[id].State.IsTerminal() {
			delete(b.views, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	b.order = kept
}

// Get returns the view of a single task.
func (b *Board) Get(taskID string) (TaskView, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.views[taskID]
	if !ok {
		return TaskView{}, false
	}
	return *v, true
}

// Counts returns task totals by state.
func (b *Board) Counts() Counts {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var c Counts
	for _, v := range b.views {
		c.add(v.State)
	}
	return c
}

// Snapshot returns a copy of the board.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() Snapshot {
	snap := Snapshot{
		Tasks:     make([]TaskView, 0, len(b.order)),
		UpdatedAt: b.updatedAt,
	}
	for _, id := range b.order {
		v := *b.views[id]
		snap.Tasks = append(snap.Tasks, v)
		snap.Counts.add(v.State)
	}
	return snap
}

// Filter returns the views whose state is one of states, newest first.
// With no states it returns every view.
func (s Snapshot) Filter(states ...task.State) []TaskView {
	want := make(map[task.State]bool, len(states))
	for _, st := range states {
		want[st] = true
	}
	var out []TaskView
	for _, v := range s.Tasks {
		if len(want) == 0 || want[v.State] {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Task.CreatedAt.After(out[j].Task.CreatedAt)
	})
	return out
}
