package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/caskdeck/caskdeck/internal/detect"
	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/escalation"
	"github.com/caskdeck/caskdeck/internal/logging"
	"github.com/caskdeck/caskdeck/internal/supervisor"
	"github.com/caskdeck/caskdeck/internal/task"
	"github.com/caskdeck/caskdeck/internal/taskqueue"
)

// StateReporter receives the lifecycle of executed tasks. *status.Reporter
// implements it.
type StateReporter interface {
	Running(t task.Task) error
	EscalationPending(t task.Task) error
	Succeeded(t task.Task, outcome task.Outcome) error
	Failed(t task.Task, reason string) error
	Progress(t task.Task, p task.Progress) error
	ClearProgress(t task.Task)
}

// CommandBuilder turns a task into the command that performs it.
// brew.Commander implements it.
type CommandBuilder interface {
	Command(t task.Task) (supervisor.Command, error)
}

// Escalator resolves a task whose process asked for elevated privileges.
// *escalation.Handler implements it.
type Escalator interface {
	Resolve(ctx context.Context, t task.Task, cmd supervisor.Command) escalation.Result
}

// Postlude runs after a task succeeded. Its error is logged and never
// changes the task's outcome. *brew.Quarantine implements it.
type Postlude interface {
	AfterSuccess(ctx context.Context, t task.Task) error
}

// Locker is a cross-process lock. *flock.Lock implements it.
type Locker interface {
	LockContext(ctx context.Context, onWait func()) error
	Unlock() error
}

// Runner executes queued tasks sequentially on a single worker.
type Runner struct {
	queue     *taskqueue.ReportingQueue
	reporter  StateReporter
	spawner   supervisor.Spawner
	commands  CommandBuilder
	parser    detect.ProgressParser
	detector  detect.EscalationDetector
	escalator Escalator
	postlude  Postlude
	lock      Locker
	logger    *logging.Logger

	wake chan struct{}

	mu      sync.Mutex
	current *task.Task
	settled chan struct{} // closed and replaced whenever the slot changes
	started bool
}

// New creates a Runner. queue, reporter, spawner and commands must be
// non-nil; passing nil panics early to surface wiring bugs.
func New(queue *taskqueue.ReportingQueue, reporter StateReporter, spawner supervisor.Spawner, commands CommandBuilder, opts ...Option) *Runner {
	if queue == nil {
		panic("runner: queue must not be nil")
	}
	if reporter == nil {
		panic("runner: reporter must not be nil")
	}
	if spawner == nil {
		panic("runner: spawner must not be nil")
	}
	if commands == nil {
		panic("runner: command builder must not be nil")
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.parser == nil {
		cfg.parser = detect.NewProgressParser()
	}
	if cfg.detector == nil {
		cfg.detector = detect.NewEscalationDetector()
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}

	return &Runner{
		queue:     queue,
		reporter:  reporter,
		spawner:   spawner,
		commands:  commands,
		parser:    cfg.parser,
		detector:  cfg.detector,
		escalator: cfg.escalator,
		postlude:  cfg.postlude,
		lock:      cfg.lock,
		logger:    cfg.logger.WithComponent("runner"),
		wake:      make(chan struct{}, 1),
		settled:   make(chan struct{}),
	}
}

// Submit validates a request, queues it and wakes the worker. It returns
// the queued task as acknowledgement and never waits for execution.
func (r *Runner) Submit(action task.Action, packageID, displayName string) (task.Task, error) {
	t, err := task.New(action, packageID, displayName)
	if err != nil {
		return task.Task{}, err
	}
	if err := r.queue.Enqueue(t); err != nil {
		return task.Task{}, err
	}
	r.logger.Info("task submitted", "task_id", t.ID, "action", string(t.Action), "package", t.PackageID)
	r.notifyWorker()
	return t, nil
}

func (r *Runner) notifyWorker() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Current returns the task holding the execution slot, if any.
func (r *Runner) Current() (task.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return task.Task{}, false
	}
	return *r.current, true
}

// Pending returns the queued tasks in execution order.
func (r *Runner) Pending() []task.Task {
	return r.queue.Pending()
}

// Idle reports whether the queue is empty and no task is in flight.
func (r *Runner) Idle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current == nil && r.queue.Len() == 0
}

// Wait blocks until the runner is idle or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		idle := r.current == nil && r.queue.Len() == 0
		ch := r.settled
		r.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Run is the worker loop. It blocks until ctx is cancelled; a task that is
// already in flight is carried to a terminal state first and tasks still
// queued stay queued. Only one Run may be active per Runner.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("runner: already running")
	}
	r.started = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.started = false
		r.mu.Unlock()
	}()

	r.logger.Info("runner started")
	for {
		if ctx.Err() != nil {
			r.logger.Info("runner stopped", "pending", r.queue.Len())
			return nil
		}
		if r.queue.Len() == 0 {
			select {
			case <-ctx.Done():
			case <-r.wake:
			}
			continue
		}
		lockErr := r.acquire(ctx)
		if lockErr != nil && ctx.Err() != nil {
			continue
		}
		t, ok := r.claim()
		if ok {
			r.execute(ctx, t, lockErr)
		}
		r.release(lockErr == nil)
	}
}

// acquire takes the cross-process lock, if one is configured.
func (r *Runner) acquire(ctx context.Context) error {
	if r.lock == nil {
		return nil
	}
	return r.lock.LockContext(ctx, func() {
		r.logger.Info("waiting for another caskdeck process to finish")
	})
}

// claim moves the queue head into the execution slot. Dequeue and slot
// assignment happen under one lock so Wait never sees a task in neither.
func (r *Runner) claim() (task.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.queue.TryDequeue()
	if !ok {
		return task.Task{}, false
	}
	r.current = &t
	r.signalLocked()
	return t, true
}

func (r *Runner) release(locked bool) {
	if r.lock != nil && locked {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release package manager lock", "error", err)
		}
	}
	r.mu.Lock()
	r.current = nil
	r.signalLocked()
	r.mu.Unlock()
}

func (r *Runner) signalLocked() {
	close(r.settled)
	r.settled = make(chan struct{})
}

// result is how a task ended before it is reported.
type result struct {
	outcome task.Outcome
	err     error
}

// execute carries t from running to a terminal state. It never returns
// with t still active. A non-nil lockErr fails the task without running it.
func (r *Runner) execute(ctx context.Context, t task.Task, lockErr error) {
	log := r.logger.WithTask(t.ID).WithPackage(t.PackageID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("task panicked", "panic", rec, "stack", string(debug.Stack()))
			r.finish(t, result{err: errors.ErrUnclassified}, log)
		}
	}()

	if err := r.reporter.Running(t); err != nil {
		log.Error("failed to report running state", "error", err)
		r.finish(t, result{err: errors.ErrUnclassified}, log)
		return
	}
	if lockErr != nil {
		log.Error("failed to acquire package manager lock", "error", lockErr)
		r.finish(t, result{err: errors.NewTaskError("failed to acquire package manager lock",
			fmt.Errorf("%w: %v", errors.ErrLocked, lockErr)).WithTaskID(t.ID)}, log)
		return
	}
	r.finish(t, r.perform(ctx, t, log), log)
}

// perform runs the package manager for t and classifies the result.
// The process itself is not tied to ctx; only the escalation grace period
// is shortened by cancellation.
func (r *Runner) perform(ctx context.Context, t task.Task, log *logging.Logger) result {
	cmd, err := r.commands.Command(t)
	if err != nil {
		return result{err: errors.NewTaskError("failed to build package manager command", err).
			WithTaskID(t.ID).WithAction(string(t.Action)).WithPackage(t.PackageID)}
	}

	runCtx := context.WithoutCancel(ctx)
	proc, err := r.spawner.Spawn(runCtx, cmd)
	if err != nil {
		log.Error("failed to start package manager", "command", cmd.String(), "error", err)
		return result{err: err}
	}
	log.Info("package manager started", "command", cmd.String(), "pid", proc.PID())

	needsEscalation := false
	for line := range proc.Lines() {
		log.Debug("stderr", "line", line)
		if p, ok := r.parser.Parse(line); ok {
			if err := r.reporter.Progress(t, p); err != nil {
				log.Warn("failed to report progress", "error", err)
			}
		}
		if !needsEscalation && r.detector.NeedsEscalation(line) {
			needsEscalation = true
			log.Info("package manager asked for elevated privileges")
		}
	}

	exit := proc.Wait()
	log.Info("package manager exited", "code", exit.Code)

	if exit.Success() {
		if r.postlude != nil {
			if err := r.postlude.AfterSuccess(runCtx, t); err != nil {
				log.Warn("post-install step failed", "error", err)
			}
		}
		return result{outcome: task.OutcomeVerified}
	}

	if needsEscalation && r.escalator != nil {
		if err := r.reporter.EscalationPending(t); err != nil {
			log.Error("failed to report escalation state", "error", err)
		}
		res := r.escalator.Resolve(ctx, t, cmd)
		if res.Outcome == escalation.OutcomeAssumedSuccess {
			return result{outcome: task.OutcomeAssumed}
		}
		if res.Err == nil {
			return result{err: errors.ErrEscalationSurface}
		}
		return result{err: res.Err}
	}

	exitErr := errors.NewExitError(exit.Code).WithCommand(cmd.String()).WithPID(proc.PID())
	if exit.Err != nil {
		exitErr = exitErr.WithCause(exit.Err)
	}
	return result{err: exitErr}
}

// finish clears the progress indicator and reports the terminal state.
func (r *Runner) finish(t task.Task, res result, log *logging.Logger) {
	r.reporter.ClearProgress(t)

	var err error
	if res.err == nil {
		err = r.reporter.Succeeded(t, res.outcome)
	} else {
		err = r.reporter.Failed(t, errors.Reason(res.err))
	}
	if err != nil {
		log.Error("failed to report terminal state", "error", err)
	}
}
