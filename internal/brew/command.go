package brew

import (
	"os"
	"os/exec"

	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/supervisor"
	"github.com/caskdeck/caskdeck/internal/task"
)

// NoAutoUpdateEnv is set on every mutating brew invocation so that a
// task does not trigger a full `brew update` first.
const NoAutoUpdateEnv = "HOMEBREW_NO_AUTO_UPDATE"

// DefaultPaths are the standard Homebrew locations on Apple silicon and
// Intel Macs, in lookup order.
var DefaultPaths = []string{
	"/opt/homebrew/bin/brew",
	"/usr/local/bin/brew",
}

// Locate returns the first executable brew among paths. If none of them
// exists it falls back to a PATH lookup. The error wraps
// errors.ErrBrewNotFound.
func Locate(paths []string) (string, error) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
			continue
		}
		return p, nil
	}
	if p, err := exec.LookPath("brew"); err == nil {
		return p, nil
	}
	return "", errors.Wrapf(errors.ErrBrewNotFound, "looked in %v and PATH", paths)
}

// Args returns the brew arguments for an action on a cask.
func Args(action task.Action, packageID string) ([]string, error) {
	switch action {
	case task.ActionInstall:
		return []string{"install", "--cask", packageID}, nil
	case task.ActionUninstall:
		return []string{"uninstall", "--cask", "--force", packageID}, nil
	case task.ActionUpgrade:
		return []string{"upgrade", "--cask", packageID}, nil
	}
	return nil, errors.Wrapf(errors.ErrInvalidAction, "%q", action)
}

// Commander builds supervised commands for tasks.
type Commander struct {
	// Path is the brew executable.
	Path string

	// NoAutoUpdate sets HOMEBREW_NO_AUTO_UPDATE=1 on every command.
	NoAutoUpdate bool
}

// Command returns the command that performs t.
func (c Commander) Command(t task.Task) (supervisor.Command, error) {
	args, err := Args(t.Action, t.PackageID)
	if err != nil {
		return supervisor.Command{}, err
	}
	cmd := supervisor.Command{Path: c.Path, Args: args}
	if c.NoAutoUpdate {
		cmd.Env = map[string]string{NoAutoUpdateEnv: "1"}
	}
	return cmd, nil
}
