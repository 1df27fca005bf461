package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "logging.max_size_mb")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateProject()...)

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateProject validates the ProjectConfig
func (c *Config) validateProject() []ValidationError {
	var errors []ValidationError

	if c.Project.ConfigFile == "" {
		errors = append(errors, ValidationError{
			Field:   "project.config_file",
			Value:   c.Project.ConfigFile,
			Message: "must not be empty",
		})
	}

	// Both paths are joined onto the project root, so absolute paths and
	// escapes out of the root are rejected.
	for field, value := range map[string]string{
		"project.config_file": c.Project.ConfigFile,
		"project.build_dir":   c.Project.BuildDir,
	} {
		if value == "" {
			continue
		}
		if filepath.IsAbs(value) {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   value,
				Message: "must be relative to the project root",
			})
			continue
		}
		if clean := filepath.Clean(value); clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   value,
				Message: "must not point outside the project root",
			})
		}
	}

	if c.Project.BuildDir == "" {
		errors = append(errors, ValidationError{
			Field:   "project.build_dir",
			Value:   c.Project.BuildDir,
			Message: "must not be empty",
		})
	}

	slices.SortStableFunc(errors, func(a, b ValidationError) int {
		return strings.Compare(a.Field, b.Field)
	})
	return errors
}
