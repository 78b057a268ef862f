package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	soundFile := filepath.Join(t.TempDir(), "ding.aiff")
	if err := os.WriteFile(soundFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string // empty means valid
	}{
		{"defaults", func(c *Config) {}, ""},
		{"relative brew path", func(c *Config) { c.Brew.Paths = []string{"bin/brew"} }, "brew.paths[0]"},
		{"empty brew path", func(c *Config) { c.Brew.Paths = []string{"/usr/local/bin/brew", ""} }, "brew.paths[1]"},
		{"relative applications dir", func(c *Config) { c.Brew.ApplicationsDir = "Applications" }, "brew.applications_dir"},
		{"custom progress pattern", func(c *Config) { c.Brew.ProgressPatterns = []string{`(\d+)% done`} }, ""},
		{"bad progress pattern", func(c *Config) { c.Brew.ProgressPatterns = []string{`(\d+`} }, "brew.progress_patterns[0]"},
		{"progress pattern without group", func(c *Config) { c.Brew.ProgressPatterns = []string{`\d+%`} }, "brew.progress_patterns[0]"},
		{"zero grace period", func(c *Config) { c.Escalation.GracePeriodMs = 0 }, ""},
		{"negative grace period", func(c *Config) { c.Escalation.GracePeriodMs = -5 }, "escalation.grace_period_ms"},
		{"huge grace period", func(c *Config) { c.Escalation.GracePeriodMs = 11 * 60 * 1000 }, "escalation.grace_period_ms"},
		{"unknown terminal", func(c *Config) { c.Escalation.Terminal = "iterm" }, "escalation.terminal"},
		{"exec without command", func(c *Config) {
			c.Escalation.Terminal = "exec"
			c.Escalation.TerminalCommand = nil
		}, "escalation.terminal_command"},
		{"sudo with shell chars", func(c *Config) { c.Escalation.SudoCommand = "sudo; rm" }, "escalation.sudo_command"},
		{"doas", func(c *Config) { c.Escalation.SudoCommand = "doas" }, ""},
		{"existing sound", func(c *Config) { c.Notifications.SoundPath = soundFile }, ""},
		{"missing sound", func(c *Config) { c.Notifications.SoundPath = soundFile + ".missing" }, "notifications.sound_path"},
		{"negative history", func(c *Config) { c.Queue.HistoryLimit = -1 }, "queue.history_limit"},
		{"empty listen", func(c *Config) { c.Server.Listen = "" }, ""},
		{"listen without port", func(c *Config) { c.Server.Listen = "localhost" }, "server.listen"},
		{"listen bad port", func(c *Config) { c.Server.Listen = "localhost:99999" }, "server.listen"},
		{"listen any host", func(c *Config) { c.Server.Listen = ":8080" }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"zero log size", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb"},
		{"huge log size", func(c *Config) { c.Logging.MaxSizeMB = 5000 }, "logging.max_size_mb"},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups"},
		{"null in state dir", func(c *Config) { c.Paths.StateDir = "/tmp/a\x00b" }, "paths.state_dir"},
		{"long state dir", func(c *Config) { c.Paths.StateDir = "/" + strings.Repeat("a", 5000) }, "paths.state_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			errs := cfg.Validate()

			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("Validate() = %v, want no errors", errs)
				}
				return
			}
			if len(errs) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	single := ValidationErrors{{Field: "logging.level", Value: "x", Message: "bad"}}
	if got := single.Error(); got != "logging.level: bad (got: x)" {
		t.Errorf("single Error() = %q", got)
	}

	multi := ValidationErrors{
		{Field: "a", Value: 1, Message: "m1"},
		{Field: "b", Value: 2, Message: "m2"},
	}
	got := multi.Error()
	if !strings.HasPrefix(got, "2 validation errors:\n") {
		t.Errorf("multi Error() = %q", got)
	}
	if !strings.Contains(got, "  1. a: m1 (got: 1)\n") || !strings.Contains(got, "  2. b: m2 (got: 2)\n") {
		t.Errorf("multi Error() = %q", got)
	}

	if (ValidationErrors{}).Error() != "" {
		t.Error("empty ValidationErrors should render empty")
	}
}
