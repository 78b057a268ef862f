package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/logging"
)

// maxLineSize bounds a single output line.
const maxLineSize = 1 << 20

// Exit is the result of a finished process.
type Exit struct {
	// Code is the exit status. -1 means the process was killed by a signal
	// or its status could not be read.
	Code int

	// Err is set when waiting for the process failed for a reason other
	// than a non-zero exit status.
	Err error
}

// Success reports whether the process exited with status zero.
func (e Exit) Success() bool {
	return e.Code == 0 && e.Err == nil
}

// Process is a running supervised process.
type Process interface {
	// Lines returns the process's standard error, one line per value.
	// The channel is closed once the stream reaches EOF.
	Lines() <-chan string

	// Wait blocks until the process exits and returns its result. It may be
	// called more than once and from several goroutines.
	Wait() Exit

	// PID returns the operating system process ID.
	PID() int
}

// Spawner starts processes.
type Spawner interface {
	// Spawn starts cmd. A returned error wraps errors.ErrSpawnFailed and
	// means no process is running.
	Spawn(ctx context.Context, cmd Command) (Process, error)
}

// ExecSpawner implements Spawner with os/exec.
type ExecSpawner struct {
	logger *logging.Logger
}

// NewExecSpawner creates a spawner. Standard output of spawned processes is
// written to logger at DEBUG level.
func NewExecSpawner(logger *logging.Logger) *ExecSpawner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &ExecSpawner{logger: logger.WithComponent("supervisor")}
}

// Spawn implements Spawner. The context is only consulted before the
// process starts; a started process always runs to completion.
func (s *ExecSpawner) Spawn(ctx context.Context, c Command) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewSpawnError(err).WithCommand(c.String())
	}

	cmd := exec.Command(c.Path, c.Args...)
	cmd.Env = c.Environ()
	cmd.Dir = c.Dir

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.NewSpawnError(err).WithCommand(c.String())
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.NewSpawnError(err).WithCommand(c.String())
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.NewSpawnError(err).WithCommand(c.String())
	}

	p := &execProcess{
		cmd:   cmd,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
	log := s.logger.With("pid", cmd.Process.Pid)
	log.Debug("process started", "command", c.String())

	go p.supervise(stderr, stdout, log)
	return p, nil
}

type execProcess struct {
	cmd   *exec.Cmd
	lines chan string
	done  chan struct{}
	exit  Exit
}

// supervise streams output until both pipes close, then reaps the process.
// Wait must not be called on the exec.Cmd before the pipes are drained.
func (p *execProcess) supervise(stderr, stdout io.Reader, log *logging.Logger) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		drain(stderr, func(line string) { p.lines <- line }, log)
	}()
	go func() {
		defer wg.Done()
		drain(stdout, func(line string) { log.Debug("stdout", "line", line) }, log)
	}()
	wg.Wait()
	close(p.lines)

	p.exit = exitFromError(p.cmd.Wait())
	log.Debug("process exited", "code", p.exit.Code)
	close(p.done)
}

func (p *execProcess) Lines() <-chan string { return p.lines }

func (p *execProcess) Wait() Exit {
	<-p.done
	return p.exit
}

func (p *execProcess) PID() int { return p.cmd.Process.Pid }

func exitFromError(err error) Exit {
	if err == nil {
		return Exit{Code: 0}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Exit{Code: exitErr.ExitCode()}
	}
	return Exit{Code: -1, Err: err}
}

// drain scans r to EOF. After a read error the rest of r is discarded so
// the child never blocks writing to a pipe nobody reads.
func drain(r io.Reader, fn func(string), log *logging.Logger) {
	if err := scanLines(r, fn); err != nil {
		log.Warn("output stream failed, discarding the rest", "error", err)
		_, _ = io.Copy(io.Discard, r)
	}
}

// scanLines calls fn for every non-empty, ANSI-stripped line of r. Lines
// longer than maxLineSize are split into maxLineSize chunks.
func scanLines(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	scanner.Split(splitLines)
	for scanner.Scan() {
		line := ansi.Strip(scanner.Text())
		if line == "" {
			continue
		}
		fn(line)
	}
	return scanner.Err()
}

// splitLines is a bufio.SplitFunc that ends a token at '\n', '\r' or "\r\n".
func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
			} else if !atEOF && len(data) < maxLineSize {
				// Need one more byte to tell "\r" from "\r\n".
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	if len(data) >= maxLineSize {
		return maxLineSize, data[:maxLineSize], nil
	}
	return 0, nil, nil
}

var _ Spawner = (*ExecSpawner)(nil)
