package taskqueue

import (
	"sync"

	"github.com/caskdeck/caskdeck/internal/task"
)

// StateReporter receives the queued report for admitted tasks.
type StateReporter interface {
	Queued(t task.Task) error
}

// ReportingQueue wraps a Queue and reports every admitted task as queued.
type ReportingQueue struct {
	mu       sync.Mutex // serializes admission, report and append
	q        *Queue
	reporter StateReporter
}

// NewReportingQueue creates a ReportingQueue over q.
func NewReportingQueue(q *Queue, reporter StateReporter) *ReportingQueue {
	return &ReportingQueue{q: q, reporter: reporter}
}

// Enqueue admits t, reports it as queued and appends it to the queue.
// The report happens before the task becomes visible to TryDequeue, so a
// consumer can never start a task whose queued state was not yet published.
func (rq *ReportingQueue) Enqueue(t task.Task) error {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if err := rq.q.Admit(t); err != nil {
		return err
	}
	if err := rq.reporter.Queued(t); err != nil {
		return err
	}
	return rq.q.Enqueue(t)
}

// TryDequeue removes and returns the head of the queue.
func (rq *ReportingQueue) TryDequeue() (task.Task, bool) {
	return rq.q.TryDequeue()
}

// Len returns the number of pending tasks.
func (rq *ReportingQueue) Len() int {
	return rq.q.Len()
}

// Pending returns a copy of the pending tasks in queue order.
func (rq *ReportingQueue) Pending() []task.Task {
	return rq.q.Pending()
}

// Get returns the pending task with the given ID.
func (rq *ReportingQueue) Get(taskID string) (task.Task, bool) {
	return rq.q.Get(taskID)
}
