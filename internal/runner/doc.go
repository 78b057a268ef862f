// Package runner executes queued package-manager tasks one at a time.
//
// A [Runner] owns a single worker goroutine. [Runner.Submit] validates a
// request, puts it on the queue (reporting it as queued) and wakes the
// worker without waiting for execution. The worker drains the queue in
// FIFO order; for each task it reports running, spawns the package manager
// through a supervisor.Spawner, feeds every stderr line to the progress
// parser and the escalation detector, and classifies the exit:
//
//   - exit 0: run the post-install step, then succeeded (verified)
//   - non-zero after a privilege marker: escalation_pending, hand the
//     command to an interactive terminal, then succeeded (assumed) or
//     failed if no terminal could be opened
//   - any other non-zero exit: failed with the exit code
//
// Only one task occupies the execution slot at a time, including the
// escalation grace period. With a cross-process lock configured, two
// caskdeck processes never drive the package manager concurrently.
//
// Usage:
//
//	r := runner.New(queue, reporter, spawner, commander, runner.WithEscalator(handler))
//	go r.Run(ctx)
//
//	t, err := r.Submit(task.ActionInstall, "firefox", "Firefox")
package runner
