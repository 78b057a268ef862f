package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caskdeck/caskdeck/internal/brew"
	"github.com/caskdeck/caskdeck/internal/task"
)

var (
	installCmd = newTaskCmd(task.ActionInstall, nil, "Install one or more casks",
		`Install casks one at a time. Tasks run in the order given; the command
returns when every task has finished and exits non-zero if any failed.`)

	uninstallCmd = newTaskCmd(task.ActionUninstall, []string{"remove"}, "Uninstall one or more casks",
		`Uninstall casks one at a time with "brew uninstall --cask --force".`)

	upgradeCmd = newTaskCmd(task.ActionUpgrade, []string{"update"}, "Upgrade one or more casks",
		`Upgrade casks one at a time. With --all, every outdated cask is upgraded
(optionally narrowed with --match).`)
)

func init() {
	upgradeCmd.Flags().Bool("all", false, "upgrade every outdated cask")
	upgradeCmd.Flags().StringSlice("match", nil, "with --all, only upgrade casks matching these glob patterns")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(upgradeCmd)
}

func newTaskCmd(action task.Action, aliases []string, short, long string) *cobra.Command {
	c := &cobra.Command{
		Use:     string(action) + " <cask>...",
		Aliases: aliases,
		Short:   short,
		Long:    long,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskCmd(cmd, action, args)
		},
	}
	c.Flags().String("name", "", "display name used in notifications (single cask only)")
	c.Flags().Bool("plain", false, "print plain status lines instead of the live view")
	c.Flags().Bool("no-lookup", false, "do not ask brew for display names")
	return c
}

func runTaskCmd(cmd *cobra.Command, action task.Action, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	plain, _ := cmd.Flags().GetBool("plain")
	noLookup, _ := cmd.Flags().GetBool("no-lookup")

	all := false
	if f := cmd.Flags().Lookup("all"); f != nil {
		all, _ = cmd.Flags().GetBool("all")
	}

	switch {
	case all && len(args) > 0:
		return fmt.Errorf("--all cannot be combined with cask names")
	case !all && len(args) == 0:
		return fmt.Errorf("at least one cask is required")
	case name != "" && len(args) != 1:
		return fmt.Errorf("--name requires exactly one cask")
	}

	if all {
		patterns, _ := cmd.Flags().GetStringSlice("match")
		args, err = outdatedTokens(cmd, cfg.Brew.Paths, patterns)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "All casks are up to date.")
			return nil
		}
	}

	reqs := make([]request, 0, len(args))
	for _, cask := range args {
		reqs = append(reqs, request{Action: action, Cask: cask, Name: name})
	}
	return runRequests(cmd, cfg, reqs, runOptions{plain: plain, noLookup: noLookup})
}

func outdatedTokens(cmd *cobra.Command, paths []string, patterns []string) ([]string, error) {
	filter, err := brew.NewFilter(patterns...)
	if err != nil {
		return nil, err
	}
	client, err := newBrewClient(paths)
	if err != nil {
		return nil, err
	}
	casks, err := client.Outdated(cmd.Context())
	if err != nil {
		return nil, err
	}
	var tokens []string
	for _, c := range filter.Outdated(casks) {
		tokens = append(tokens, c.Token)
	}
	return tokens, nil
}

func newBrewClient(paths []string) (*brew.Client, error) {
	path, err := brew.Locate(paths)
	if err != nil {
		return nil, err
	}
	return brew.NewClient(path, nil), nil
}
