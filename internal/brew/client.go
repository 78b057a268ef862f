package brew

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/shell"
)

// OutdatedCask is an installed cask with a newer version available.
type OutdatedCask struct {
	Token             string   `json:"token"`
	InstalledVersions []string `json:"installed_versions"`
	CurrentVersion    string   `json:"current_version"`
}

// CaskInfo holds the metadata shown for a single cask.
type CaskInfo struct {
	Token       string   `json:"token"`
	Names       []string `json:"names"`
	Description string   `json:"description"`
	Homepage    string   `json:"homepage"`
	Version     string   `json:"version"`
	Installed   string   `json:"installed,omitempty"`
	Outdated    bool     `json:"outdated"`
}

// DisplayName returns the first human-readable name, or the token.
func (c CaskInfo) DisplayName() string {
	if len(c.Names) > 0 && c.Names[0] != "" {
		return c.Names[0]
	}
	return c.Token
}

// Client runs read-only brew queries. Queries do not go through the task
// queue because they never modify the system.
type Client struct {
	path   string
	runner shell.Runner
}

// NewClient creates a Client for the brew binary at path. A nil runner uses
// shell.Exec with HOMEBREW_NO_AUTO_UPDATE set.
func NewClient(path string, runner shell.Runner) *Client {
	if runner == nil {
		runner = shell.Exec{Env: append(os.Environ(), NoAutoUpdateEnv+"=1")}
	}
	return &Client{path: path, runner: runner}
}

// Path returns the brew executable the client runs.
func (c *Client) Path() string {
	return c.path
}

// Installed returns the tokens of installed casks, sorted.
func (c *Client) Installed(ctx context.Context) ([]string, error) {
	out, err := c.runner.Run(ctx, c.path, "list", "--cask", "--full-name")
	if err != nil {
		return nil, errors.Wrap(err, "list installed casks")
	}
	var tokens []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tokens = append(tokens, line)
		}
	}
	sort.Strings(tokens)
	return tokens, nil
}

// Outdated returns installed casks that have a newer version available.
func (c *Client) Outdated(ctx context.Context) ([]OutdatedCask, error) {
	out, err := c.runner.Run(ctx, c.path, "outdated", "--cask", "--json")
	if err != nil {
		return nil, errors.Wrap(err, "list outdated casks")
	}
	return parseOutdated(out)
}

func parseOutdated(data []byte) ([]OutdatedCask, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("outdated casks: invalid JSON from brew")
	}
	var casks []OutdatedCask
	gjson.GetBytes(data, "casks").ForEach(func(_, v gjson.Result) bool {
		casks = append(casks, OutdatedCask{
			Token:             v.Get("name").String(),
			InstalledVersions: stringList(v.Get("installed_versions")),
			CurrentVersion:    v.Get("current_version").String(),
		})
		return true
	})
	return casks, nil
}

// Info returns metadata for a cask. The error wraps errors.NotFoundError
// when brew knows no such cask.
func (c *Client) Info(ctx context.Context, token string) (CaskInfo, error) {
	out, err := c.runner.Run(ctx, c.path, "info", "--json=v2", "--cask", token)
	if err != nil {
		return CaskInfo{}, errors.NewNotFoundError("cask", token).WithCause(err)
	}
	return parseInfo(out, token)
}

func parseInfo(data []byte, token string) (CaskInfo, error) {
	if !gjson.ValidBytes(data) {
		return CaskInfo{}, errors.New("cask info: invalid JSON from brew")
	}
	cask := gjson.GetBytes(data, "casks.0")
	if !cask.Exists() {
		return CaskInfo{}, errors.NewNotFoundError("cask", token)
	}
	return CaskInfo{
		Token:       cask.Get("token").String(),
		Names:       stringList(cask.Get("name")),
		Description: cask.Get("desc").String(),
		Homepage:    cask.Get("homepage").String(),
		Version:     cask.Get("version").String(),
		Installed:   cask.Get("installed").String(),
		Outdated:    cask.Get("outdated").Bool(),
	}, nil
}

// stringList accepts either a JSON array of strings or a single string.
func stringList(r gjson.Result) []string {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if !r.IsArray() {
		return []string{r.String()}
	}
	var out []string
	for _, v := range r.Array() {
		out = append(out, v.String())
	}
	return out
}
