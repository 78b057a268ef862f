// Package taskqueue holds submitted tasks until the runner picks them up.
//
// [Queue] is a plain FIFO: tasks leave in the order they arrived, there is
// no priority and nothing is re-inserted automatically. Whether a task may
// join the queue at all is decided by an [AdmitFunc], so de-duplication
// policy can change without touching the queue itself.
//
// [ReportingQueue] decorates a Queue so that every admitted task is
// reported as queued exactly once, before any consumer can dequeue it.
//
// Usage:
//
//	q := taskqueue.NewReportingQueue(taskqueue.New(taskqueue.AdmitAll), reporter)
//	if err := q.Enqueue(t); err != nil {
//	    // rejected by the admission policy
//	}
//
//	if next, ok := q.TryDequeue(); ok {
//	    // ... execute next ...
//	}
package taskqueue
