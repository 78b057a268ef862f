package event

import (
	"time"

	"github.com/caskdeck/caskdeck/internal/task"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.state", "task.progress")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event types published by caskdeck.
const (
	TypeTaskState    = "task.state"
	TypeTaskProgress = "task.progress"
	TypeNotification = "notification.sent"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// TaskStateEvent is emitted every time a task enters a new lifecycle state.
type TaskStateEvent struct {
	baseEvent
	Task    task.Task
	State   task.State
	Message string       // Failure reason for failed tasks, empty otherwise
	Outcome task.Outcome // Set only for succeeded tasks
}

// NewTaskStateEvent creates a TaskStateEvent.
func NewTaskStateEvent(t task.Task, state task.State, message string, outcome task.Outcome) TaskStateEvent {
	return TaskStateEvent{
		baseEvent: newBaseEvent(TypeTaskState),
		Task:      t,
		State:     state,
		Message:   message,
		Outcome:   outcome,
	}
}

// TaskProgressEvent carries a progress sample for the in-flight task.
// A zero Progress clears the indicator.
type TaskProgressEvent struct {
	baseEvent
	Task     task.Task
	Progress task.Progress
}

// NewTaskProgressEvent creates a TaskProgressEvent.
func NewTaskProgressEvent(t task.Task, p task.Progress) TaskProgressEvent {
	return TaskProgressEvent{
		baseEvent: newBaseEvent(TypeTaskProgress),
		Task:      t,
		Progress:  p,
	}
}

// Cleared reports whether the event resets the progress indicator.
func (e TaskProgressEvent) Cleared() bool {
	return e.Progress.IsZero()
}

// NotificationEvent records a desktop notification raised for a task.
type NotificationEvent struct {
	baseEvent
	TaskID string
	Title  string
	Body   string
}

// NewNotificationEvent creates a NotificationEvent.
func NewNotificationEvent(taskID, title, body string) NotificationEvent {
	return NotificationEvent{
		baseEvent: newBaseEvent(TypeNotification),
		TaskID:    taskID,
		Title:     title,
		Body:      body,
	}
}
