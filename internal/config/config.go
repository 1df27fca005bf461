package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete pypeline application configuration.
// Pipeline definitions live in the project file; this holds tool settings.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Project ProjectConfig `mapstructure:"project"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// File also writes JSON logs to <build dir>/pypeline.log (default: true)
	File bool `mapstructure:"file"`
	// MaxSizeMB is the size at which the log file is rotated (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files kept (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress"`
}

// ProjectConfig controls where project artifacts are looked up
type ProjectConfig struct {
	// ConfigFile is the pipeline document name, relative to the project root (default: "pypeline.yaml")
	ConfigFile string `mapstructure:"config_file"`
	// BuildDir is the build output directory, relative to the project root (default: "build")
	BuildDir string `mapstructure:"build_dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			File:       true,
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Project: ProjectConfig{
			ConfigFile: "pypeline.yaml",
			BuildDir:   "build",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// Project defaults
	viper.SetDefault("project.config_file", defaults.Project.ConfigFile)
	viper.SetDefault("project.build_dir", defaults.Project.BuildDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

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
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pypeline")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pypeline"
	}
	return filepath.Join(home, ".config", "pypeline")
}

// ConfigFile returns the path to the user config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
