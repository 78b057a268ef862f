package status

import (
	"context"
	"fmt"
	"sync"

	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/event"
	"github.com/caskdeck/caskdeck/internal/logging"
	"github.com/caskdeck/caskdeck/internal/notify"
	"github.com/caskdeck/caskdeck/internal/task"
)

// Reporter validates and publishes task state changes and progress.
// It is safe for concurrent use. Events are published while the reporter's
// lock is held so every observer sees one global order; handlers must not
// call back into the Reporter.
type Reporter struct {
	mu       sync.Mutex
	bus      *event.Bus
	states   map[string]task.State
	finished []string // terminal task ids, oldest first
	retain   int
	notifier notify.Notifier
	logger   *logging.Logger
}

// FinishedRetention is how many finished tasks a Reporter remembers. Older
// ones are forgotten and State no longer reports them.
const FinishedRetention = 1000

// NewReporter creates a Reporter publishing on bus. A nil notifier
// disables desktop notifications.
func NewReporter(bus *event.Bus, notifier notify.Notifier, logger *logging.Logger) *Reporter {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Reporter{
		bus:      bus,
		states:   make(map[string]task.State),
		retain:   FinishedRetention,
		notifier: notifier,
		logger:   logger.WithComponent("status"),
	}
}

// Queued reports that t entered the queue.
func (r *Reporter) Queued(t task.Task) error {
	return r.transition(t, task.StateQueued, "", "")
}

// Running reports that t's process started.
func (r *Reporter) Running(t task.Task) error {
	return r.transition(t, task.StateRunning, "", "")
}

// EscalationPending reports that t was handed to an interactive terminal.
func (r *Reporter) EscalationPending(t task.Task) error {
	return r.transition(t, task.StateEscalationPending, "", "")
}

// Succeeded reports that t finished successfully with the given outcome.
func (r *Reporter) Succeeded(t task.Task, outcome task.Outcome) error {
	if outcome == "" {
		outcome = task.OutcomeVerified
	}
	return r.transition(t, task.StateSucceeded, "", outcome)
}

// Failed reports that t finished unsuccessfully for reason.
func (r *Reporter) Failed(t task.Task, reason string) error {
	if reason == "" {
		reason = errors.ErrUnclassified.Error()
	}
	return r.transition(t, task.StateFailed, reason, "")
}

func (r *Reporter) transition(t task.Task, to task.State, message string, outcome task.Outcome) error {
	r.mu.Lock()
	from := r.states[t.ID]
	if !task.ValidTransition(from, to) {
		r.mu.Unlock()
		r.logger.Warn("rejected task state change",
			"task_id", t.ID, "package", t.PackageID, "from", string(from), "to", string(to))
		return fmt.Errorf("%w: %s -> %s for task %s", errors.ErrInvalidTransition, displayState(from), to, t.ID)
	}
	r.states[t.ID] = to
	r.bus.Publish(event.NewTaskStateEvent(t, to, message, outcome))
	if to.IsTerminal() {
		r.forgetLocked(t.ID)
	}
	r.mu.Unlock()

	r.logger.Info("task state changed",
		"task_id", t.ID, "package", t.PackageID, "action", string(t.Action),
		"state", string(to), "message", message, "outcome", string(outcome))

	if to.IsTerminal() {
		r.notifyTerminal(t, to, message, outcome)
	}
	return nil
}

// forgetLocked records id as finished and drops the oldest finished tasks
// beyond the retention limit.
func (r *Reporter) forgetLocked(id string) {
	r.finished = append(r.finished, id)
	excess := len(r.finished) - r.retain
	if excess <= 0 {
		return
	}
	for _, old := range r.finished[:excess] {
		delete(r.states, old)
	}
	r.finished = append(r.finished[:0], r.finished[excess:]...)
}

func displayState(s task.State) string {
	if s == "" {
		return "new"
	}
	return string(s)
}

// notifyTerminal raises the one notification a terminal state gets.
func (r *Reporter) notifyTerminal(t task.Task, state task.State, reason string, outcome task.Outcome) {
	title, body := NotificationText(t, state, reason, outcome)
	if err := r.notifier.Notify(context.Background(), title, body); err != nil {
		r.logger.Warn("failed to deliver notification", "task_id", t.ID, "error", err)
	}
	r.bus.Publish(event.NewNotificationEvent(t.ID, title, body))
}

// NotificationText returns the title and body of the notification for a
// terminal state.
func NotificationText(t task.Task, state task.State, reason string, outcome task.Outcome) (title, body string) {
	if state == task.StateSucceeded {
		if outcome == task.OutcomeAssumed {
			return "Task Complete", fmt.Sprintf("%s should now be %s. Check the terminal window to confirm.",
				t.DisplayName, t.Action.PastTense())
		}
		return "Task Complete", fmt.Sprintf("%s was successfully %s.", t.DisplayName, t.Action.PastTense())
	}
	if reason == "" {
		return "Task Failed", fmt.Sprintf("The %s task for %s failed.", t.Action, t.DisplayName)
	}
	return "Task Failed", fmt.Sprintf("The %s task for %s failed: %s.", t.Action, t.DisplayName, reason)
}

// Progress publishes a progress sample for an active task. Samples for
// tasks that are not running or escalation-pending are rejected.
func (r *Reporter) Progress(t task.Task, p task.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.states[t.ID].IsActive() {
		return fmt.Errorf("%w: progress for %s task %s", errors.ErrInvalidTransition, displayState(r.states[t.ID]), t.ID)
	}
	r.bus.Publish(event.NewTaskProgressEvent(t, p.Clamp()))
	return nil
}

// ClearProgress publishes an empty progress sample for t, resetting any
// progress indicator. It is valid in every state.
func (r *Reporter) ClearProgress(t task.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bus.Publish(event.NewTaskProgressEvent(t, task.Progress{}))
}

// State returns the last reported state of a task.
func (r *Reporter) State(taskID string) (task.State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[taskID]
	return s, ok
}

// Subscribe registers a handler for every event the reporter publishes.
func (r *Reporter) Subscribe(h event.Handler) string {
	return r.bus.SubscribeAll(h)
}

// SubscribeState registers a handler for task state events.
func (r *Reporter) SubscribeState(h func(event.TaskStateEvent)) string {
	return r.bus.Subscribe(event.TypeTaskState, func(e event.Event) {
		if st, ok := e.(event.TaskStateEvent); ok {
			h(st)
		}
	})
}

// SubscribeProgress registers a handler for progress events.
func (r *Reporter) SubscribeProgress(h func(event.TaskProgressEvent)) string {
	return r.bus.Subscribe(event.TypeTaskProgress, func(e event.Event) {
		if pe, ok := e.(event.TaskProgressEvent); ok {
			h(pe)
		}
	})
}

// Unsubscribe removes a subscription created by any Subscribe method.
func (r *Reporter) Unsubscribe(id string) bool {
	return r.bus.Unsubscribe(id)
}
