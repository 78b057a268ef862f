package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caskdeck/caskdeck/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "caskdeck",
	Short: "Queue and run Homebrew cask installs one at a time",
	Long: `caskdeck queues Homebrew cask installs, uninstalls and upgrades and runs
them strictly one at a time, with live progress, desktop notifications and
an interactive terminal fallback when brew needs your password.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/caskdeck/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/caskdeck")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CASKDECK")
	// Replace dots with underscores for nested keys in env vars
	// e.g., CASKDECK_ESCALATION_GRACE_PERIOD_MS for escalation.grace_period_ms
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
