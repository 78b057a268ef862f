package supervisor

import (
	"os"
	"sort"
	"strings"

	"github.com/caskdeck/caskdeck/internal/shell"
)

// Command describes a process to spawn.
type Command struct {
	// Path is the executable to run.
	Path string

	// Args are the arguments after the executable.
	Args []string

	// Env holds variables set on top of the inherited environment.
	Env map[string]string

	// Dir is the working directory; empty means the current directory.
	Dir string
}

// String renders the command as a shell-quoted line without environment.
func (c Command) String() string {
	return shell.Join(append([]string{c.Path}, c.Args...)...)
}

// Environ returns os.Environ() with Env applied. Overridden variables are
// removed from the inherited list and Env is appended in key order.
func (c Command) Environ() []string {
	return mergeEnv(os.Environ(), c.Env)
}

func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, replaced := overrides[key]; !replaced {
			env = append(env, kv)
		}
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}
