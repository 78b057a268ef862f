package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "escalation.grace_period_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateBrew()...)
	errors = append(errors, c.validateEscalation()...)
	errors = append(errors, c.validateNotifications()...)
	errors = append(errors, c.validateQueue()...)
	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validatePaths()...)

	return errors
}

// validateBrew validates the BrewConfig
func (c *Config) validateBrew() []ValidationError {
	var errors []ValidationError

	for i, p := range c.Brew.Paths {
		if p == "" || !filepath.IsAbs(p) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("brew.paths[%d]", i),
				Value:   p,
				Message: "must be an absolute path",
			})
		}
	}

	if c.Brew.ApplicationsDir != "" && !filepath.IsAbs(c.Brew.ApplicationsDir) {
		errors = append(errors, ValidationError{
			Field:   "brew.applications_dir",
			Value:   c.Brew.ApplicationsDir,
			Message: "must be an absolute path",
		})
	}

	for i, pattern := range c.Brew.ProgressPatterns {
		re, err := regexp.Compile(pattern)
		switch {
		case err != nil:
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("brew.progress_patterns[%d]", i),
				Value:   pattern,
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		case re.NumSubexp() < 1:
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("brew.progress_patterns[%d]", i),
				Value:   pattern,
				Message: "must have a capture group for the percentage",
			})
		}
	}

	return errors
}

// validateEscalation validates the EscalationConfig
func (c *Config) validateEscalation() []ValidationError {
	var errors []ValidationError

	// 0 means use the default grace period
	const maxGracePeriodMs = 10 * 60 * 1000
	if c.Escalation.GracePeriodMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "escalation.grace_period_ms",
			Value:   c.Escalation.GracePeriodMs,
			Message: "must be non-negative",
		})
	} else if c.Escalation.GracePeriodMs > maxGracePeriodMs {
		errors = append(errors, ValidationError{
			Field:   "escalation.grace_period_ms",
			Value:   c.Escalation.GracePeriodMs,
			Message: fmt.Sprintf("exceeds maximum of %d (10 minutes)", maxGracePeriodMs),
		})
	}

	if c.Escalation.Terminal != "" && !IsValidTerminalMode(c.Escalation.Terminal) {
		errors = append(errors, ValidationError{
			Field:   "escalation.terminal",
			Value:   c.Escalation.Terminal,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidTerminalModes(), ", ")),
		})
	}

	if c.Escalation.Terminal == "exec" && len(c.Escalation.TerminalCommand) == 0 {
		errors = append(errors, ValidationError{
			Field:   "escalation.terminal_command",
			Value:   c.Escalation.TerminalCommand,
			Message: "must name a program when escalation.terminal is \"exec\"",
		})
	}

	if strings.ContainsAny(c.Escalation.SudoCommand, "\"'`;&|\n") {
		errors = append(errors, ValidationError{
			Field:   "escalation.sudo_command",
			Value:   c.Escalation.SudoCommand,
			Message: "must not contain quotes or shell control characters",
		})
	}

	return errors
}

// validateNotifications validates the NotificationConfig
func (c *Config) validateNotifications() []ValidationError {
	var errors []ValidationError

	if c.Notifications.SoundPath != "" {
		if _, err := os.Stat(expandHome(c.Notifications.SoundPath)); err != nil {
			errors = append(errors, ValidationError{
				Field:   "notifications.sound_path",
				Value:   c.Notifications.SoundPath,
				Message: "file does not exist",
			})
		}
	}

	return errors
}

// validateQueue validates the QueueConfig
func (c *Config) validateQueue() []ValidationError {
	var errors []ValidationError

	// 0 means use the default limit
	const maxHistoryLimit = 10000
	if c.Queue.HistoryLimit < 0 || c.Queue.HistoryLimit > maxHistoryLimit {
		errors = append(errors, ValidationError{
			Field:   "queue.history_limit",
			Value:   c.Queue.HistoryLimit,
			Message: fmt.Sprintf("must be between 0 and %d", maxHistoryLimit),
		})
	}

	return errors
}

// validateServer validates the ServerConfig
func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if c.Server.Listen == "" {
		return errors
	}

	_, port, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		return append(errors, ValidationError{
			Field:   "server.listen",
			Value:   c.Server.Listen,
			Message: "must be in host:port form",
		})
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.listen",
			Value:   c.Server.Listen,
			Message: "port must be a number between 0 and 65535",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validatePaths validates the PathsConfig
func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	if c.Paths.StateDir != "" {
		path := c.Paths.StateDir

		// Check for null bytes which are invalid in paths
		if strings.ContainsRune(path, '\x00') {
			errors = append(errors, ValidationError{
				Field:   "paths.state_dir",
				Value:   path,
				Message: "path contains invalid null character",
			})
		}

		// Reasonable path length limit (most filesystems have limits around 4096)
		const maxPathLength = 4096
		if len(path) > maxPathLength {
			errors = append(errors, ValidationError{
				Field:   "paths.state_dir",
				Value:   path,
				Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
			})
		}
	}

	return errors
}
