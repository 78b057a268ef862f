package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/caskdeck/caskdeck/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify caskdeck configuration",
	Long: `View or modify caskdeck configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	RunE:  runConfigValidate,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  caskdeck config set escalation.grace_period_ms 8000
  caskdeck config set escalation.terminal_app iTerm
  caskdeck config set queue.reject_duplicates true

Run 'caskdeck config show' to list every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/caskdeck/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
	return nil
}

// knownKeys returns every configuration key that has a default.
func knownKeys() map[string]bool {
	keys := make(map[string]bool)
	for _, k := range viper.AllKeys() {
		keys[k] = true
	}
	return keys
}

// parseValue converts a command-line value to the type of the key's
// current value.
func parseValue(key, value string) (any, error) {
	switch viper.Get(key).(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return b, nil
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		return n, nil
	case []string, []any:
		if value == "" {
			return []string{}, nil
		}
		return strings.Split(value, ","), nil
	}
	return value, nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])
	value := args[1]

	if !knownKeys()[key] {
		return fmt.Errorf("unknown configuration key: %s\nRun 'caskdeck config show' to see valid keys", key)
	}

	typed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	previous := viper.Get(key)
	viper.Set(key, typed)
	if _, err := config.Load(); err != nil {
		viper.Set(key, previous)
		return err
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = config.ConfigFile()
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typed)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

// defaultConfigYAML renders the default configuration with a header.
func defaultConfigYAML() ([]byte, error) {
	d := config.Default()
	settings := map[string]any{
		"brew": map[string]any{
			"paths":             d.Brew.Paths,
			"no_auto_update":    d.Brew.NoAutoUpdate,
			"applications_dir":  d.Brew.ApplicationsDir,
			"progress_patterns": d.Brew.ProgressPatterns,
		},
		"escalation": map[string]any{
			"grace_period_ms":  d.Escalation.GracePeriodMs,
			"terminal":         d.Escalation.Terminal,
			"terminal_app":     d.Escalation.TerminalApp,
			"terminal_command": d.Escalation.TerminalCommand,
			"sudo_command":     d.Escalation.SudoCommand,
			"extra_markers":    d.Escalation.ExtraMarkers,
		},
		"notifications": map[string]any{
			"enabled":    d.Notifications.Enabled,
			"use_sound":  d.Notifications.UseSound,
			"sound_path": d.Notifications.SoundPath,
		},
		"queue": map[string]any{
			"reject_duplicates": d.Queue.RejectDuplicates,
			"history_limit":     d.Queue.HistoryLimit,
		},
		"server": map[string]any{
			"listen": d.Server.Listen,
		},
		"logging": map[string]any{
			"enabled":     d.Logging.Enabled,
			"level":       d.Logging.Level,
			"max_size_mb": d.Logging.MaxSizeMB,
			"max_backups": d.Logging.MaxBackups,
		},
		"paths": map[string]any{
			"state_dir": d.Paths.StateDir,
		},
	}
	body, err := yaml.Marshal(settings)
	if err != nil {
		return nil, err
	}
	header := "# caskdeck configuration\n" +
		"# Every key can also be set with a CASKDECK_ environment variable,\n" +
		"# e.g. CASKDECK_ESCALATION_GRACE_PERIOD_MS=8000\n\n"
	return append([]byte(header), body...), nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'caskdeck config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := defaultConfigYAML()
	if err != nil {
		return fmt.Errorf("failed to render default config: %w", err)
	}
	if err := os.WriteFile(configFile, content, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize caskdeck's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/caskdeck/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")

	fmt.Fprintln(out, "\nEnvironment variables: CASKDECK_* (e.g., CASKDECK_ESCALATION_GRACE_PERIOD_MS)")
	return nil
}
