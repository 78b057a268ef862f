package taskqueue

import (
	"fmt"
	"sync"

	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/task"
)

// AdmitFunc decides whether t may join a queue that currently holds
// pending. A non-nil error rejects the task.
type AdmitFunc func(pending []task.Task, t task.Task) error

// AdmitAll accepts every task. The same package may be queued more than
// once; each task runs in turn.
func AdmitAll([]task.Task, task.Task) error {
	return nil
}

// RejectDuplicatePackage rejects a task whose package already has a
// pending task, regardless of action.
func RejectDuplicatePackage(pending []task.Task, t task.Task) error {
	for _, p := range pending {
		if p.PackageID == t.PackageID {
			return fmt.Errorf("%w: %s already queued as task %s", errors.ErrDuplicatePackage, t.PackageID, p.ShortID())
		}
	}
	return nil
}

// Queue is a FIFO of pending tasks. All methods are safe for concurrent
// use via an internal mutex.
type Queue struct {
	mu      sync.Mutex
	pending []task.Task
	admit   AdmitFunc
}

// New creates an empty Queue. A nil admit uses AdmitAll.
func New(admit AdmitFunc) *Queue {
	if admit == nil {
		admit = AdmitAll
	}
	return &Queue{admit: admit}
}

// Admit runs the admission policy against the current contents without
// modifying the queue.
func (q *Queue) Admit(t task.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.admit(q.pending, t)
}

// Enqueue appends t to the tail if the admission policy accepts it.
func (q *Queue) Enqueue(t task.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.admit(q.pending, t); err != nil {
		return err
	}
	q.pending = append(q.pending, t)
	return nil
}

// TryDequeue removes and returns the head of the queue. It returns false
// when the queue is empty.
func (q *Queue) TryDequeue() (task.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return task.Task{}, false
	}
	head := q.pending[0]
	q.pending[0] = task.Task{}
	q.pending = q.pending[1:]
	if len(q.pending) == 0 {
		q.pending = nil
	}
	return head, true
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Pending returns a copy of the pending tasks in queue order.
func (q *Queue) Pending() []task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]task.Task, len(q.pending))
	copy(out, q.pending)
	return out
}

// Get returns the pending task with the given ID.
func (q *Queue) Get(taskID string) (task.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.pending {
		if t.ID == taskID {
			return t, true
		}
	}
	return task.Task{}, false
}
