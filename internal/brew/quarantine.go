package brew

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/shell"
	"github.com/caskdeck/caskdeck/internal/task"
)

// DefaultApplicationsDir is where casks install application bundles.
const DefaultApplicationsDir = "/Applications"

// Quarantine removes extended attributes (notably com.apple.quarantine)
// from installed application bundles so they launch without the
// "downloaded from the internet" prompt.
type Quarantine struct {
	dir    string
	runner shell.Runner
}

// NewQuarantine creates a Quarantine for bundles under dir. A nil runner
// uses shell.Exec.
func NewQuarantine(dir string, runner shell.Runner) *Quarantine {
	if dir == "" {
		dir = DefaultApplicationsDir
	}
	if runner == nil {
		runner = shell.Exec{}
	}
	return &Quarantine{dir: dir, runner: runner}
}

// AppPath returns the bundle path for a display name, adding ".app" when
// the name has no extension.
func (q *Quarantine) AppPath(displayName string) string {
	name := filepath.Base(displayName)
	if !strings.HasSuffix(name, ".app") {
		name += ".app"
	}
	return filepath.Join(q.dir, name)
}

// AfterSuccess clears attributes for a successful install. Other actions
// are ignored. Failures come back as *errors.PostludeError and are never
// fatal to the task.
func (q *Quarantine) AfterSuccess(ctx context.Context, t task.Task) error {
	if t.Action != task.ActionInstall {
		return nil
	}
	path := q.AppPath(t.DisplayName)
	if _, err := q.runner.Run(ctx, "xattr", "-cr", path); err != nil {
		return errors.NewPostludeError("failed to clear quarantine attributes", err).WithPath(path)
	}
	return nil
}
