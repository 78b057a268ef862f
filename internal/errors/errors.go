// Package errors provides centralized error definitions and error handling utilities
// for caskdeck. It defines the failure taxonomy of task execution, structured
// error types carrying task and process context, and the classification helpers
// that turn any error into the message shown to the user.
//
// # Error Types
//
// Domain-specific errors represent failures of a task:
//   - ProcessError: the package manager could not be started, or exited non-zero
//   - EscalationError: the interactive terminal for an escalated command could not be opened
//   - PostludeError: a best-effort step after a successful install failed
//   - TaskError: any other failure tied to a specific task
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// # Usage
//
//	err := errors.NewExitError(1).WithCommand("brew install --cask firefox")
//	if errors.Is(err, errors.ErrProcessExit) { ... }
//
//	var procErr *errors.ProcessError
//	if errors.As(err, &procErr) { ... }
//
//	msg := errors.Reason(err) // "process exited with code 1"
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Task execution sentinel errors
var (
	// ErrSpawnFailed indicates the package manager process could not be started.
	ErrSpawnFailed = New("failed to start process")
	// ErrProcessExit indicates the package manager exited with a non-zero status.
	ErrProcessExit = New("process exited unsuccessfully")
	// ErrEscalationRequired indicates the package manager asked for elevated privileges.
	ErrEscalationRequired = New("elevated privileges required")
	// ErrEscalationSurface indicates the interactive terminal could not be opened.
	ErrEscalationSurface = New("failed to open escalation terminal")
	// ErrPostlude indicates a best-effort step after a successful task failed.
	ErrPostlude = New("post-install step failed")
	// ErrUnclassified indicates a failure that fits no other category.
	ErrUnclassified = New("unexpected error while running task")
)

// Queue and lifecycle sentinel errors
var (
	// ErrInvalidAction indicates an action outside install, uninstall and upgrade.
	ErrInvalidAction = New("invalid action")
	// ErrInvalidTransition indicates a task state change the lifecycle forbids.
	ErrInvalidTransition = New("invalid state transition")
	// ErrDuplicatePackage indicates the admission policy rejected a second task for a package.
	ErrDuplicatePackage = New("package already queued")
	// ErrTaskNotFound indicates that a task could not be found.
	ErrTaskNotFound = New("task not found")
)

// Environment sentinel errors
var (
	// ErrBrewNotFound indicates no package manager binary was found.
	ErrBrewNotFound = New("homebrew not found")
	// ErrLocked indicates another process holds the package manager lock.
	ErrLocked = New("package manager is locked by another process")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CaskdeckError is the base interface for all caskdeck errors.
type CaskdeckError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// formatPrefix renders "<kind> [k=v, ...]" for structured errors.
func formatPrefix(kind string, parts []string) string {
	if len(parts) == 0 {
		return kind
	}
	return fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ProcessError represents a package manager process that failed to start or
// exited with a non-zero status.
//
// Example:
//
//	err := errors.NewExitError(1).WithCommand("brew upgrade --cask zoom")
//	fmt.Println(err) // "process error [exit=1]: process exited with code 1"
type ProcessError struct {
	baseError
	Command  string
	PID      int
	ExitCode int // -1 when the process never exited
	spawn    bool
}

// NewSpawnError creates a ProcessError for a process that could not be started.
func NewSpawnError(cause error) *ProcessError {
	return &ProcessError{
		baseError: baseError{
			message:    "failed to start package manager",
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		ExitCode: -1,
		spawn:    true,
	}
}

// NewExitError creates a ProcessError for a non-zero exit status.
func NewExitError(code int) *ProcessError {
	return &ProcessError{
		baseError: baseError{
			message:    fmt.Sprintf("process exited with code %d", code),
			severity:   SeverityError,
			userFacing: true,
		},
		ExitCode: code,
	}
}

// WithCommand adds the command line to the error context.
func (e *ProcessError) WithCommand(cmd string) *ProcessError {
	e.Command = cmd
	return e
}

// WithPID adds the process ID to the error context.
func (e *ProcessError) WithPID(pid int) *ProcessError {
	e.PID = pid
	return e
}

// WithCause adds a cause to the error.
func (e *ProcessError) WithCause(cause error) *ProcessError {
	e.cause = cause
	return e
}

// IsSpawnFailure reports whether the process never started.
func (e *ProcessError) IsSpawnFailure() bool {
	return e.spawn
}

// Message returns the message without context prefix or cause.
func (e *ProcessError) Message() string {
	return e.message
}

// Error returns the formatted error message.
func (e *ProcessError) Error() string {
	var parts []string
	if e.PID > 0 {
		parts = append(parts, fmt.Sprintf("pid=%d", e.PID))
	}
	if e.ExitCode >= 0 {
		parts = append(parts, fmt.Sprintf("exit=%d", e.ExitCode))
	}

	prefix := formatPrefix("process error", parts)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ProcessError) Is(target error) bool {
	if _, ok := target.(*ProcessError); ok {
		return true
	}
	if e.spawn && target == ErrSpawnFailed {
		return true
	}
	if !e.spawn && target == ErrProcessExit {
		return true
	}
	return e.baseError.Is(target)
}

// EscalationError represents a failure to hand an escalated command to an
// interactive terminal.
type EscalationError struct {
	baseError
	Terminal string
}

// NewEscalationError creates a new EscalationError.
func NewEscalationError(cause error) *EscalationError {
	return &EscalationError{
		baseError: baseError{
			message:    ErrEscalationSurface.Error(),
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithTerminal adds the terminal application name to the error context.
func (e *EscalationError) WithTerminal(name string) *EscalationError {
	e.Terminal = name
	return e
}

// Error returns the formatted error message.
func (e *EscalationError) Error() string {
	var parts []string
	if e.Terminal != "" {
		parts = append(parts, fmt.Sprintf("terminal=%s", e.Terminal))
	}
	prefix := formatPrefix("escalation error", parts)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *EscalationError) Is(target error) bool {
	if _, ok := target.(*EscalationError); ok {
		return true
	}
	if target == ErrEscalationSurface {
		return true
	}
	return e.baseError.Is(target)
}

// PostludeError represents a failed best-effort step after a successful task.
// It never changes the task outcome; it is logged and dropped.
type PostludeError struct {
	baseError
	Path string
}

// NewPostludeError creates a new PostludeError.
func NewPostludeError(message string, cause error) *PostludeError {
	return &PostludeError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: false,
		},
	}
}

// WithPath adds the affected filesystem path to the error context.
func (e *PostludeError) WithPath(path string) *PostludeError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *PostludeError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	prefix := formatPrefix("postlude error", parts)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *PostludeError) Is(target error) bool {
	if _, ok := target.(*PostludeError); ok {
		return true
	}
	if target == ErrPostlude {
		return true
	}
	return e.baseError.Is(target)
}

// TaskError represents a failure tied to a specific task.
//
// Example:
//
//	err := errors.NewTaskError("could not run task", cause).
//		WithTaskID(t.ID).WithPackage("firefox").WithAction("install")
type TaskError struct {
	baseError
	TaskID    string
	PackageID string
	Action    string
}

// NewTaskError creates a new TaskError.
func NewTaskError(message string, cause error) *TaskError {
	return &TaskError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithTaskID adds a task ID to the error context.
func (e *TaskError) WithTaskID(id string) *TaskError {
	e.TaskID = id
	return e
}

// WithPackage adds a package ID to the error context.
func (e *TaskError) WithPackage(pkg string) *TaskError {
	e.PackageID = pkg
	return e
}

// WithAction adds the task action to the error context.
func (e *TaskError) WithAction(action string) *TaskError {
	e.Action = action
	return e
}

// WithSeverity sets the error severity.
func (e *TaskError) WithSeverity(s Severity) *TaskError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *TaskError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.Action != "" {
		parts = append(parts, fmt.Sprintf("action=%s", e.Action))
	}
	if e.PackageID != "" {
		parts = append(parts, fmt.Sprintf("package=%s", e.PackageID))
	}

	prefix := formatPrefix("task error", parts)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *TaskError) Is(target error) bool {
	if _, ok := target.(*TaskError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("task", "abc123")
//	fmt.Println(err) // "task 'abc123' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("package id is required").WithField("package_id")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := formatPrefix("validation error", parts)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var caskErr CaskdeckError
	if As(err, &caskErr) {
		return caskErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CaskdeckError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var caskErr CaskdeckError
	if As(err, &caskErr) {
		return caskErr.Severity()
	}
	return SeverityError
}

// Reason converts a task failure into the short message reported with the
// failed state. Known failure kinds map to fixed messages; anything else
// falls back to the generic unclassified message so no failure goes
// unexplained.
//
// Example:
//
//	errors.Reason(errors.NewExitError(3))                 // "process exited with code 3"
//	errors.Reason(errors.NewEscalationError(cause))       // "failed to open escalation terminal"
//	errors.Reason(fmt.Errorf("boom"))                     // "unexpected error while running task"
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var procErr *ProcessError
	if As(err, &procErr) {
		if procErr.IsSpawnFailure() && procErr.cause != nil {
			return fmt.Sprintf("%s: %v", procErr.message, procErr.cause)
		}
		return procErr.message
	}
	if Is(err, ErrEscalationSurface) {
		return ErrEscalationSurface.Error()
	}
	if Is(err, ErrBrewNotFound) {
		return ErrBrewNotFound.Error()
	}
	if Is(err, ErrLocked) {
		return ErrLocked.Error()
	}

	var taskErr *TaskError
	if As(err, &taskErr) && taskErr.IsUserFacing() {
		return taskErr.message
	}
	return ErrUnclassified.Error()
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to list casks")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
