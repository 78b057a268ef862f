package task

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caskdeck/caskdeck/internal/errors"
)

// Action is the package-manager operation a task performs.
type Action string

const (
	// ActionInstall installs a cask.
	ActionInstall Action = "install"

	// ActionUninstall removes a cask.
	ActionUninstall Action = "uninstall"

	// ActionUpgrade upgrades an installed cask to its latest version.
	ActionUpgrade Action = "upgrade"
)

// Actions lists every supported action in display order.
var Actions = []Action{ActionInstall, ActionUninstall, ActionUpgrade}

// ParseAction converts a string to an Action. The legacy "update" verb is
// accepted as an alias for upgrade.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "install":
		return ActionInstall, nil
	case "uninstall", "remove":
		return ActionUninstall, nil
	case "upgrade", "update":
		return ActionUpgrade, nil
	}
	return "", fmt.Errorf("%w: %q (expected install, uninstall or upgrade)", errors.ErrInvalidAction, s)
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Valid reports whether a is one of the supported actions.
func (a Action) Valid() bool {
	switch a {
	case ActionInstall, ActionUninstall, ActionUpgrade:
		return true
	}
	return false
}

// PastTense returns the verb used in completion messages.
func (a Action) PastTense() string {
	switch a {
	case ActionInstall:
		return "installed"
	case ActionUninstall:
		return "uninstalled"
	case ActionUpgrade:
		return "upgraded"
	}
	return string(a)
}

// State represents the lifecycle position of a task.
type State string

const (
	// StateQueued indicates the task is waiting in the queue.
	StateQueued State = "queued"

	// StateRunning indicates the package manager process for the task is live.
	StateRunning State = "running"

	// StateEscalationPending indicates the process exited asking for elevated
	// privileges and the command has been handed to an interactive terminal.
	StateEscalationPending State = "escalation_pending"

	// StateSucceeded indicates the task finished successfully.
	StateSucceeded State = "succeeded"

	// StateFailed indicates the task finished unsuccessfully.
	StateFailed State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true if this state is final.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// IsActive returns true if the state occupies the execution slot.
func (s State) IsActive() bool {
	return s == StateRunning || s == StateEscalationPending
}

// ValidTransition reports whether a task may move from one state to another.
// The empty state stands for a task that has not been reported yet.
func ValidTransition(from, to State) bool {
	switch from {
	case "":
		return to == StateQueued
	case StateQueued:
		return to == StateRunning
	case StateRunning:
		return to == StateSucceeded || to == StateFailed || to == StateEscalationPending
	case StateEscalationPending:
		return to == StateSucceeded || to == StateFailed
	}
	return false
}

// Outcome qualifies a successful task.
type Outcome string

const (
	// OutcomeVerified means the package manager exited with status zero.
	OutcomeVerified Outcome = "verified"

	// OutcomeAssumed means the command was handed to an interactive terminal
	// and success was assumed without observing its result.
	OutcomeAssumed Outcome = "assumed"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// Task is a single requested package-manager operation.
type Task struct {
	// ID uniquely identifies the task. Package IDs are not unique because
	// the same cask may be queued more than once.
	ID string `json:"id"`

	// Action is the operation to perform.
	Action Action `json:"action"`

	// PackageID is the cask token passed to the package manager.
	PackageID string `json:"package_id"`

	// DisplayName is the human-readable name used in notifications.
	DisplayName string `json:"display_name"`

	// CreatedAt is when the task was submitted.
	CreatedAt time.Time `json:"created_at"`
}

// New validates its inputs and creates a Task with a fresh ID.
// An empty display name falls back to the package ID.
func New(action Action, packageID, displayName string) (Task, error) {
	if !action.Valid() {
		return Task{}, fmt.Errorf("%w: %q", errors.ErrInvalidAction, action)
	}
	packageID = strings.TrimSpace(packageID)
	if packageID == "" {
		return Task{}, errors.NewValidationError("package id is required").WithField("package_id")
	}
	if strings.HasPrefix(packageID, "-") || strings.ContainsAny(packageID, " \t\n\"'") {
		return Task{}, errors.NewValidationError("invalid package id").
			WithField("package_id").WithValue(packageID)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = packageID
	}
	return Task{
		ID:          uuid.NewString(),
		Action:      action,
		PackageID:   packageID,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	}, nil
}

// String returns a short description such as "install firefox".
func (t Task) String() string {
	return fmt.Sprintf("%s %s", t.Action, t.PackageID)
}

// ShortID returns the first eight characters of the task ID.
func (t Task) ShortID() string {
	if len(t.ID) > 8 {
		return t.ID[:8]
	}
	return t.ID
}

// Progress is a single progress observation for the running task.
// The zero value means "no progress to show".
type Progress struct {
	Percent int    `json:"percent"`
	Text    string `json:"text"`
}

// Clamp returns p with Percent limited to the range 0..100.
func (p Progress) Clamp() Progress {
	p.Percent = ClampPercent(float64(p.Percent))
	return p
}

// IsZero reports whether p is the cleared sample.
func (p Progress) IsZero() bool {
	return p.Percent == 0 && p.Text == ""
}

// Fraction returns the percentage as a value between 0 and 1.
func (p Progress) Fraction() float64 {
	return float64(p.Clamp().Percent) / 100
}

// ClampPercent floors v and limits it to 0..100.
func ClampPercent(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Floor(v))
}
