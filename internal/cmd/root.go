// Package cmd implements the pypeline command line.
package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cuinixam/pypeline/internal/config"
	"github.com/cuinixam/pypeline/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "pypeline",
	Short: "Configure and execute the steps of a development pipeline",
	Long: `pypeline runs the steps declared in a project's pypeline.yaml: install
toolchains, create virtual environments, fetch dependencies and run commands.
Steps whose inputs, outputs and configuration are unchanged are skipped.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "application config file (default is $HOME/.config/pypeline/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStepsCmd())
}

// localConfigFile is a per-project application config in the working directory.
const localConfigFile = ".pypeline.yaml"

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if _, err := os.Stat(localConfigFile); err == nil {
		viper.SetConfigFile(localConfigFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PYPELINE")
	// e.g., PYPELINE_LOGGING_LEVEL for logging.level
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
