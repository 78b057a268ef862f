package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caskdeck/caskdeck/internal/brew"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed casks",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var outdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "List installed casks with a newer version available",
	Args:  cobra.NoArgs,
	RunE:  runOutdated,
}

var infoCmd = &cobra.Command{
	Use:   "info <cask>",
	Short: "Show metadata for a cask",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	for _, c := range []*cobra.Command{listCmd, outdatedCmd} {
		c.Flags().StringSlice("match", nil, "only show casks matching these glob patterns (e.g. 'google-*')")
		c.Flags().Bool("json", false, "print JSON")
	}
	infoCmd.Flags().Bool("json", false, "print JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(outdatedCmd)
	rootCmd.AddCommand(infoCmd)
}

func queryClient(cmd *cobra.Command) (*brew.Client, *brew.Filter, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	var patterns []string
	if f := cmd.Flags().Lookup("match"); f != nil {
		patterns, _ = cmd.Flags().GetStringSlice("match")
	}
	filter, err := brew.NewFilter(patterns...)
	if err != nil {
		return nil, nil, err
	}
	client, err := newBrewClient(cfg.Brew.Paths)
	if err != nil {
		return nil, nil, err
	}
	return client, filter, nil
}

func runList(cmd *cobra.Command, args []string) error {
	client, filter, err := queryClient(cmd)
	if err != nil {
		return err
	}
	tokens, err := client.Installed(cmd.Context())
	if err != nil {
		return err
	}
	tokens = filter.Tokens(tokens)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), tokens)
	}
	for _, t := range tokens {
		fmt.Fprintln(cmd.OutOrStdout(), t)
	}
	return nil
}

func runOutdated(cmd *cobra.Command, args []string) error {
	client, filter, err := queryClient(cmd)
	if err != nil {
		return err
	}
	casks, err := client.Outdated(cmd.Context())
	if err != nil {
		return err
	}
	casks = filter.Outdated(casks)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), casks)
	}
	printOutdated(cmd.OutOrStdout(), casks)
	return nil
}

func printOutdated(out io.Writer, casks []brew.OutdatedCask) {
	if len(casks) == 0 {
		fmt.Fprintln(out, "All casks are up to date.")
		return
	}
	for _, c := range casks {
		fmt.Fprintf(out, "%s (%s) -> %s\n", c.Token, strings.Join(c.InstalledVersions, ", "), c.CurrentVersion)
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, _, err := queryClient(cmd)
	if err != nil {
		return err
	}
	info, err := client.Info(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(out, info)
	}
	fmt.Fprintf(out, "%s (%s)\n", info.DisplayName(), info.Token)
	if info.Description != "" {
		fmt.Fprintf(out, "  %s\n", info.Description)
	}
	if info.Homepage != "" {
		fmt.Fprintf(out, "  Homepage:  %s\n", info.Homepage)
	}
	fmt.Fprintf(out, "  Version:   %s\n", info.Version)
	if info.Installed != "" {
		fmt.Fprintf(out, "  Installed: %s", info.Installed)
		if info.Outdated {
			fmt.Fprint(out, " (outdated)")
		}
		fmt.Fprintln(out)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
