// Package status is the single point through which task lifecycle and
// progress updates leave the engine.
//
// [Reporter] enforces the task lifecycle (see task.ValidTransition), so
// observers see exactly one queued event, one running event, at most one
// escalation_pending event and exactly one terminal event per task. It
// fans events out over an event.Bus and raises one desktop notification
// for every terminal state.
//
// [Board] is an observer that keeps the latest view of every task for
// status displays, and [SaveSnapshot]/[LoadSnapshot] persist that view so
// other processes (`caskdeck status`) can read it.
package status
