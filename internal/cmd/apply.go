package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/caskdeck/caskdeck/internal/task"
)

var applyCmd = &cobra.Command{
	Use:   "apply -f <file>",
	Short: "Run a batch of tasks from a YAML file",
	Long: `Run a batch of tasks described in a YAML file, in file order.

Example file:

  tasks:
    - action: install
      cask: firefox
      name: Firefox
    - action: uninstall
      cask: slack
    - action: upgrade
      cask: zoom

Use "-" as the file name to read from standard input.`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "task file (required)")
	applyCmd.Flags().Bool("dry-run", false, "print the tasks without running them")
	applyCmd.Flags().Bool("plain", false, "print plain status lines instead of the live view")
	_ = applyCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(applyCmd)
}

// batchFile is the on-disk format read by apply.
type batchFile struct {
	Tasks []batchEntry `yaml:"tasks"`
}

type batchEntry struct {
	Action string `yaml:"action"`
	Cask   string `yaml:"cask"`
	Name   string `yaml:"name,omitempty"`
}

// parseBatch decodes and validates a task file. Every invalid entry is
// reported, not just the first.
func parseBatch(r io.Reader) ([]request, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file batchFile
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("task file is empty")
		}
		return nil, fmt.Errorf("failed to parse task file: %w", err)
	}
	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("task file has no tasks")
	}

	var problems []string
	reqs := make([]request, 0, len(file.Tasks))
	for i, e := range file.Tasks {
		action, err := task.ParseAction(e.Action)
		if err != nil {
			problems = append(problems, fmt.Sprintf("tasks[%d]: %v", i, err))
			continue
		}
		if strings.TrimSpace(e.Cask) == "" {
			problems = append(problems, fmt.Sprintf("tasks[%d]: cask is required", i))
			continue
		}
		reqs = append(reqs, request{Action: action, Cask: strings.TrimSpace(e.Cask), Name: e.Name})
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid task file:\n  %s", strings.Join(problems, "\n  "))
	}
	return reqs, nil
}

func runApply(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	plain, _ := cmd.Flags().GetBool("plain")

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open task file: %w", err)
		}
		defer f.Close()
		r = f
	}

	reqs, err := parseBatch(r)
	if err != nil {
		return err
	}

	if dryRun {
		out := cmd.OutOrStdout()
		for i, req := range reqs {
			fmt.Fprintf(out, "%d. %s %s\n", i+1, req.Action, req.Cask)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return runRequests(cmd, cfg, reqs, runOptions{plain: plain})
}
