// Package task defines the unit of work managed by caskdeck: a single
// mutating package-manager operation on one cask, together with its
// lifecycle states, progress samples and success outcomes.
//
// A [Task] is immutable once created with [New]. Its lifecycle is tracked
// externally through [State] values; [ValidTransition] encodes the only
// legal moves:
//
//	"" -> queued -> running -> succeeded | failed
//	                running -> escalation_pending -> succeeded | failed
//
// Successful tasks carry an [Outcome] that distinguishes a success the
// package manager confirmed ([OutcomeVerified]) from one that was assumed
// after handing the command to an interactive terminal ([OutcomeAssumed]).
package task
