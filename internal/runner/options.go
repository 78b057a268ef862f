package runner

import (
	"github.com/caskdeck/caskdeck/internal/detect"
	"github.com/caskdeck/caskdeck/internal/logging"
)

// Option configures a Runner.
type Option func(*config)

type config struct {
	parser    detect.ProgressParser
	detector  detect.EscalationDetector
	escalator Escalator
	postlude  Postlude
	lock      Locker
	logger    *logging.Logger
}

// WithProgressParser replaces the default download progress parser.
func WithProgressParser(p detect.ProgressParser) Option {
	return func(c *config) {
		c.parser = p
	}
}

// WithEscalationDetector replaces the default sudo marker detector.
func WithEscalationDetector(d detect.EscalationDetector) Option {
	return func(c *config) {
		c.detector = d
	}
}

// WithEscalator sets the fallback used when a task needs elevated
// privileges. Without one such tasks fail with their exit code.
func WithEscalator(e Escalator) Option {
	return func(c *config) {
		c.escalator = e
	}
}

// WithPostlude sets the step run after a successful task.
func WithPostlude(p Postlude) Option {
	return func(c *config) {
		c.postlude = p
	}
}

// WithLock sets the cross-process lock held while a task is active.
func WithLock(l Locker) Option {
	return func(c *config) {
		c.lock = l
	}
}

// WithLogger sets the logger for the runner.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
