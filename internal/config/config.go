package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete caskdeck configuration
type Config struct {
	Brew          BrewConfig         `mapstructure:"brew"`
	Escalation    EscalationConfig   `mapstructure:"escalation"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Queue         QueueConfig        `mapstructure:"queue"`
	Server        ServerConfig       `mapstructure:"server"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Paths         PathsConfig        `mapstructure:"paths"`
}

// BrewConfig controls how the package manager is located and invoked
type BrewConfig struct {
	// Paths are candidate brew executables, checked in order before PATH
	// (default: /opt/homebrew/bin/brew, /usr/local/bin/brew)
	Paths []string `mapstructure:"paths"`
	// NoAutoUpdate sets HOMEBREW_NO_AUTO_UPDATE=1 on every task (default: true)
	NoAutoUpdate bool `mapstructure:"no_auto_update"`
	// ApplicationsDir is where installed app bundles live (default: /Applications)
	ApplicationsDir string `mapstructure:"applications_dir"`
	// ProgressPatterns are regular expressions with one capture group holding
	// a download percentage. Empty uses the built-in curl bar pattern.
	ProgressPatterns []string `mapstructure:"progress_patterns"`
}

// EscalationConfig controls the interactive fallback for tasks that need
// administrator privileges
type EscalationConfig struct {
	// GracePeriodMs is how long to wait after opening the terminal before
	// assuming success (default: 5000)
	GracePeriodMs int `mapstructure:"grace_period_ms"`
	// Terminal selects how the terminal is opened: "auto", "applescript" or "exec"
	// "auto" uses AppleScript on macOS and exec elsewhere (default: "auto")
	Terminal string `mapstructure:"terminal"`
	// TerminalApp is the AppleScript application name (default: "Terminal")
	TerminalApp string `mapstructure:"terminal_app"`
	// TerminalCommand is the program and leading arguments used by the exec
	// terminal (default: ["x-terminal-emulator", "-e"])
	TerminalCommand []string `mapstructure:"terminal_command"`
	// SudoCommand prefixes the re-issued command (default: "sudo")
	SudoCommand string `mapstructure:"sudo_command"`
	// ExtraMarkers are additional stderr substrings that mean the task
	// needs administrator privileges
	ExtraMarkers []string `mapstructure:"extra_markers"`
}

// NotificationConfig controls desktop notifications
type NotificationConfig struct {
	// Enabled controls whether notifications are shown (default: true)
	Enabled bool `mapstructure:"enabled"`
	// UseSound plays a system sound on macOS in addition to the banner (default: false)
	UseSound bool `mapstructure:"use_sound"`
	// SoundPath custom sound file path (macOS only, default: system alert sound)
	SoundPath string `mapstructure:"sound_path"`
}

// QueueConfig controls task admission and history
type QueueConfig struct {
	// RejectDuplicates refuses a task whose package is already queued (default: false)
	RejectDuplicates bool `mapstructure:"reject_duplicates"`
	// HistoryLimit is how many finished tasks status views keep (default: 50)
	HistoryLimit int `mapstructure:"history_limit"`
}

// ServerConfig controls the local HTTP API started by `caskdeck serve`
type ServerConfig struct {
	// Listen is the host:port to bind (default: "127.0.0.1:7357")
	Listen string `mapstructure:"listen"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging to the state directory is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// PathsConfig controls where caskdeck stores data
type PathsConfig struct {
	// StateDir holds the lock files, the status snapshot and the log.
	// If empty, defaults to $XDG_STATE_HOME/caskdeck or ~/.local/state/caskdeck.
	// Supports ~ for home directory expansion.
	StateDir string `mapstructure:"state_dir"`
}

// ResolveStateDir returns the resolved state directory path.
func (p *PathsConfig) ResolveStateDir() string {
	if p.StateDir == "" {
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, "caskdeck")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return ".caskdeck"
		}
		return filepath.Join(home, ".local", "state", "caskdeck")
	}
	return expandHome(p.StateDir)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// GracePeriod returns the escalation grace period as a time.Duration
func (c *EscalationConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodMs) * time.Millisecond
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Brew: BrewConfig{
			Paths:            []string{"/opt/homebrew/bin/brew", "/usr/local/bin/brew"},
			NoAutoUpdate:     true,
			ApplicationsDir:  "/Applications",
			ProgressPatterns: []string{},
		},
		Escalation: EscalationConfig{
			GracePeriodMs:   5000,
			Terminal:        "auto",
			TerminalApp:     "Terminal",
			TerminalCommand: []string{"x-terminal-emulator", "-e"},
			SudoCommand:     "sudo",
			ExtraMarkers:    []string{},
		},
		Notifications: NotificationConfig{
			Enabled:   true,
			UseSound:  false,
			SoundPath: "",
		},
		Queue: QueueConfig{
			RejectDuplicates: false,
			HistoryLimit:     50,
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:7357",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Paths: PathsConfig{
			StateDir: "", // Empty means use the XDG state directory
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Brew defaults
	viper.SetDefault("brew.paths", defaults.Brew.Paths)
	viper.SetDefault("brew.no_auto_update", defaults.Brew.NoAutoUpdate)
	viper.SetDefault("brew.applications_dir", defaults.Brew.ApplicationsDir)
	viper.SetDefault("brew.progress_patterns", defaults.Brew.ProgressPatterns)

	// Escalation defaults
	viper.SetDefault("escalation.grace_period_ms", defaults.Escalation.GracePeriodMs)
	viper.SetDefault("escalation.terminal", defaults.Escalation.Terminal)
	viper.SetDefault("escalation.terminal_app", defaults.Escalation.TerminalApp)
	viper.SetDefault("escalation.terminal_command", defaults.Escalation.TerminalCommand)
	viper.SetDefault("escalation.sudo_command", defaults.Escalation.SudoCommand)
	viper.SetDefault("escalation.extra_markers", defaults.Escalation.ExtraMarkers)

	// Notification defaults
	viper.SetDefault("notifications.enabled", defaults.Notifications.Enabled)
	viper.SetDefault("notifications.use_sound", defaults.Notifications.UseSound)
	viper.SetDefault("notifications.sound_path", defaults.Notifications.SoundPath)

	// Queue defaults
	viper.SetDefault("queue.reject_duplicates", defaults.Queue.RejectDuplicates)
	viper.SetDefault("queue.history_limit", defaults.Queue.HistoryLimit)

	// Server defaults
	viper.SetDefault("server.listen", defaults.Server.Listen)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Paths defaults
	viper.SetDefault("paths.state_dir", defaults.Paths.StateDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "caskdeck")
	}
	// Fall back to ~/.config/caskdeck
	home, err := os.UserHomeDir()
	if err != nil {
		return ".caskdeck"
	}
	return filepath.Join(home, ".config", "caskdeck")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidTerminalModes returns the list of valid escalation.terminal values
func ValidTerminalModes() []string {
	return []string{"auto", "applescript", "exec"}
}

// IsValidTerminalMode checks if the given terminal mode is valid
func IsValidTerminalMode(mode string) bool {
	for _, valid := range ValidTerminalModes() {
		if mode == valid {
			return true
		}
	}
	return false
}
