package errors

import (
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ProcessError Tests
// -----------------------------------------------------------------------------

func TestNewExitError(t *testing.T) {
	err := NewExitError(1).WithCommand("brew install --cask firefox").WithPID(42)

	if err.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", err.ExitCode)
	}
	if err.Command != "brew install --cask firefox" {
		t.Errorf("Command = %q", err.Command)
	}
	if err.IsSpawnFailure() {
		t.Error("IsSpawnFailure() = true, want false")
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
	if got, want := err.Error(), "process error [pid=42, exit=1]: process exited with code 1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestProcessError_Is(t *testing.T) {
	exitErr := NewExitError(2)
	spawnErr := NewSpawnError(fmt.Errorf("exec: no such file"))

	if !Is(exitErr, ErrProcessExit) {
		t.Error("exit error should match ErrProcessExit")
	}
	if Is(exitErr, ErrSpawnFailed) {
		t.Error("exit error should not match ErrSpawnFailed")
	}
	if !Is(spawnErr, ErrSpawnFailed) {
		t.Error("spawn error should match ErrSpawnFailed")
	}
	if Is(spawnErr, ErrProcessExit) {
		t.Error("spawn error should not match ErrProcessExit")
	}
	if !Is(spawnErr, &ProcessError{}) {
		t.Error("spawn error should match *ProcessError")
	}

	wrapped := fmt.Errorf("running task: %w", exitErr)
	var procErr *ProcessError
	if !As(wrapped, &procErr) || procErr.ExitCode != 2 {
		t.Errorf("As(*ProcessError) failed or wrong code: %+v", procErr)
	}
}

func TestNewSpawnError_Error(t *testing.T) {
	err := NewSpawnError(errors.New("permission denied"))
	want := "process error: failed to start package manager: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// -----------------------------------------------------------------------------
// EscalationError / PostludeError Tests
// -----------------------------------------------------------------------------

func TestEscalationError(t *testing.T) {
	err := NewEscalationError(errors.New("osascript: execution error")).WithTerminal("Terminal")

	if !Is(err, ErrEscalationSurface) {
		t.Error("should match ErrEscalationSurface")
	}
	if !Is(err, &EscalationError{}) {
		t.Error("should match *EscalationError")
	}
	want := "escalation error [terminal=Terminal]: failed to open escalation terminal: osascript: execution error"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestPostludeError(t *testing.T) {
	err := NewPostludeError("failed to clear quarantine", errors.New("exit status 1")).
		WithPath("/Applications/Firefox.app")

	if !Is(err, ErrPostlude) {
		t.Error("should match ErrPostlude")
	}
	if err.IsUserFacing() {
		t.Error("postlude errors are not user facing")
	}
	if GetSeverity(err) != SeverityWarning {
		t.Errorf("GetSeverity() = %v, want warning", GetSeverity(err))
	}
}

// -----------------------------------------------------------------------------
// TaskError Tests
// -----------------------------------------------------------------------------

func TestTaskError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *TaskError
		want string
	}{
		{
			name: "basic error",
			err:  NewTaskError("test error", nil),
			want: "task error: test error",
		},
		{
			name: "with cause",
			err:  NewTaskError("test error", ErrLocked),
			want: "task error: test error: package manager is locked by another process",
		},
		{
			name: "with context",
			err:  NewTaskError("test error", nil).WithTaskID("t1").WithAction("install").WithPackage("zoom"),
			want: "task error [task=t1, action=install, package=zoom]: test error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTaskError_Is(t *testing.T) {
	err := NewTaskError("could not lock", ErrLocked).WithTaskID("t1")

	if !Is(err, &TaskError{}) {
		t.Error("Is(TaskError{}) = false, want true")
	}
	if !Is(err, ErrLocked) {
		t.Error("Is(ErrLocked) = false, want true")
	}
	if Is(err, ErrSpawnFailed) {
		t.Error("Is(ErrSpawnFailed) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("task", "abc123")
	if got, want := err.Error(), "task 'abc123' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, &NotFoundError{}) {
		t.Error("Is(NotFoundError{}) = false, want true")
	}
	withCause := NewNotFoundError("task", "abc").WithCause(ErrTaskNotFound)
	if !Is(withCause, ErrTaskNotFound) {
		t.Error("Is(ErrTaskNotFound) = false, want true")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("package id is required").WithField("package_id").WithValue("")

	want := "validation error [field=package_id, value=]: package id is required"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("validation errors should match ErrInvalidInput")
	}
	if !IsUserFacing(err) {
		t.Error("validation errors should be user facing")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"exit code", NewExitError(3), "process exited with code 3"},
		{"wrapped exit code", fmt.Errorf("task: %w", NewExitError(1)), "process exited with code 1"},
		{"spawn", NewSpawnError(errors.New("not found")), "failed to start package manager: not found"},
		{"escalation", NewEscalationError(errors.New("boom")), "failed to open escalation terminal"},
		{"brew missing", fmt.Errorf("locate: %w", ErrBrewNotFound), "homebrew not found"},
		{"locked", NewTaskError("lock", ErrLocked), "package manager is locked by another process"},
		{"task error", NewTaskError("could not build command", nil), "could not build command"},
		{"unclassified", errors.New("boom"), "unexpected error while running task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reason(tt.err); got != tt.want {
				t.Errorf("Reason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"exit", NewExitError(1), true},
		{"postlude", NewPostludeError("x", nil), false},
		{"wrapped task", fmt.Errorf("ctx: %w", NewTaskError("x", nil)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	if got := GetSeverity(nil); got != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want debug", got)
	}
	if got := GetSeverity(errors.New("x")); got != SeverityError {
		t.Errorf("GetSeverity(plain) = %v, want error", got)
	}
	if got := GetSeverity(NewTaskError("x", nil).WithSeverity(SeverityCritical)); got != SeverityCritical {
		t.Errorf("GetSeverity(task) = %v, want critical", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	err := Wrap(ErrBrewNotFound, "locate brew")
	if err.Error() != "locate brew: homebrew not found" {
		t.Errorf("Wrap() = %q", err.Error())
	}
	if !Is(err, ErrBrewNotFound) {
		t.Error("Wrap should preserve the chain")
	}
	if got := Wrapf(ErrLocked, "task %s", "t1").Error(); got != "task t1: package manager is locked by another process" {
		t.Errorf("Wrapf() = %q", got)
	}
}
