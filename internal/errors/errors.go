// Package errors provides the error taxonomy for pypeline.
//
// Every failure the engine reports to a caller belongs to one of four kinds:
//
//   - ConfigError: malformed pipeline document, missing or conflicting fields,
//     invalid project inputs
//   - ResolutionError: a selected step's module, file or name cannot be resolved
//   - SelectionError: one or more requested step names match nothing
//   - ExecutionError: a step failed to construct, run, or publish its results
//
// All four implement [PypelineError] and are user facing: the CLI prints their
// message without a stack or usage text and exits with status 1. None of them
// is retried by the engine.
//
// # Usage
//
//	err := errors.NewSelectionError([]string{"Z"})
//	fmt.Println(err) // "selection error: steps not found in pipeline: Z"
//
//	var selErr *errors.SelectionError
//	if errors.As(err, &selErr) { ... }
//
//	if errors.Is(err, errors.ErrUnknownStep) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidConfig indicates that the pipeline document or project inputs are invalid.
	ErrInvalidConfig = New("invalid configuration")
	// ErrStepNotFound indicates that a step could not be resolved to an implementation.
	ErrStepNotFound = New("step implementation not found")
	// ErrUnknownStep indicates that a requested step name is not part of the pipeline.
	ErrUnknownStep = New("unknown step")
	// ErrStepFailed indicates that a step failed during execution.
	ErrStepFailed = New("step failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// PypelineError is the well-known fatal error kind surfaced to callers.
type PypelineError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Kind returns a short name for the error category.
	Kind() string

	// IsUserFacing returns true if the error message is safe to display
	// to end users without further context.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	kind    string
	message string
	cause   error
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s error: %s", e.kind, e.message)
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Kind returns the error category.
func (e *baseError) Kind() string {
	return e.kind
}

// IsUserFacing is always true for pypeline errors.
func (e *baseError) IsUserFacing() bool {
	return true
}

// -----------------------------------------------------------------------------
// Configuration Errors
// -----------------------------------------------------------------------------

// ConfigError represents a malformed pipeline document or invalid inputs.
//
// Example:
//
//	err := errors.NewConfigError("pipeline is empty", nil).WithFile("pypeline.yaml")
//	fmt.Println(err) // "configuration error [file=pypeline.yaml]: pipeline is empty"
type ConfigError struct {
	baseError
	File   string
	Issues []string
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{baseError: baseError{kind: "configuration", message: message, cause: cause}}
}

// WithFile adds the offending file path to the error context.
func (e *ConfigError) WithFile(path string) *ConfigError {
	e.File = path
	return e
}

// WithIssues attaches every structural issue found in the document.
func (e *ConfigError) WithIssues(issues []string) *ConfigError {
	e.Issues = issues
	return e
}

// Error returns the formatted error message.
func (e *ConfigError) Error() string {
	prefix := "configuration error"
	if e.File != "" {
		prefix = fmt.Sprintf("configuration error [file=%s]", e.File)
	}

	msg := fmt.Sprintf("%s: %s", prefix, e.message)
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	for _, issue := range e.Issues {
		msg += "\n  - " + issue
	}
	return msg
}

// Is checks if this error matches the target.
func (e *ConfigError) Is(target error) bool {
	if _, ok := target.(*ConfigError); ok {
		return true
	}
	if target == ErrInvalidConfig {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Resolution Errors
// -----------------------------------------------------------------------------

// ResolutionError represents a selected step that cannot be resolved.
//
// Example:
//
//	err := errors.NewResolutionError("MyStep", "module \"acme.steps\" is not registered", nil)
//	fmt.Println(err) // "resolution error [step=MyStep]: module \"acme.steps\" is not registered"
type ResolutionError struct {
	baseError
	Step string
}

// NewResolutionError creates a new ResolutionError for the named step.
func NewResolutionError(step, message string, cause error) *ResolutionError {
	return &ResolutionError{
		baseError: baseError{kind: "resolution", message: message, cause: cause},
		Step:      step,
	}
}

// Error returns the formatted error message.
func (e *ResolutionError) Error() string {
	prefix := fmt.Sprintf("resolution error [step=%s]", e.Step)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ResolutionError) Is(target error) bool {
	if _, ok := target.(*ResolutionError); ok {
		return true
	}
	if target == ErrStepNotFound {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Selection Errors
// -----------------------------------------------------------------------------

// SelectionError reports every requested step name that matched nothing.
//
// Example:
//
//	err := errors.NewSelectionError([]string{"X", "Z"})
//	fmt.Println(err) // "selection error: steps not found in pipeline: X, Z"
type SelectionError struct {
	baseError
	Unmatched []string
}

// NewSelectionError creates a new SelectionError for the unmatched names.
func NewSelectionError(unmatched []string) *SelectionError {
	names := append([]string(nil), unmatched...)
	noun := "steps"
	if len(names) == 1 {
		noun = "step"
	}
	return &SelectionError{
		baseError: baseError{
			kind:    "selection",
			message: fmt.Sprintf("%s not found in pipeline: %s", noun, strings.Join(names, ", ")),
		},
		Unmatched: names,
	}
}

// Is checks if this error matches the target.
func (e *SelectionError) Is(target error) bool {
	if _, ok := target.(*SelectionError); ok {
		return true
	}
	return target == ErrUnknownStep
}

// -----------------------------------------------------------------------------
// Execution Errors
// -----------------------------------------------------------------------------

// ExecutionError represents a step that failed while constructing, running
// or updating the execution context.
//
// Example:
//
//	err := errors.NewExecutionError("Echo", "run failed", cause).WithGroup("commands")
//	fmt.Println(err) // "execution error [group=commands, step=Echo]: run failed: exit status 1"
type ExecutionError struct {
	baseError
	Step  string
	Group string
}

// NewExecutionError creates a new ExecutionError for the named step.
func NewExecutionError(step, message string, cause error) *ExecutionError {
	return &ExecutionError{
		baseError: baseError{kind: "execution", message: message, cause: cause},
		Step:      step,
	}
}

// WithGroup adds the group name to the error context.
func (e *ExecutionError) WithGroup(group string) *ExecutionError {
	e.Group = group
	return e
}

// Error returns the formatted error message.
func (e *ExecutionError) Error() string {
	var parts []string
	if e.Group != "" {
		parts = append(parts, fmt.Sprintf("group=%s", e.Group))
	}
	if e.Step != "" {
		parts = append(parts, fmt.Sprintf("step=%s", e.Step))
	}

	prefix := "execution error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("execution error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ExecutionError) Is(target error) bool {
	if _, ok := target.(*ExecutionError); ok {
		return true
	}
	if target == ErrStepFailed {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error, or any error it wraps, is a
// [PypelineError] whose message is meant for end users.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    fmt.Fprintln(os.Stderr, err)
//	    os.Exit(1)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var pErr PypelineError
	if As(err, &pErr) {
		return pErr.IsUserFacing()
	}
	return false
}

// KindOf returns the category of a pypeline error, or "internal" for errors
// from outside the taxonomy.
func KindOf(err error) string {
	var pErr PypelineError
	if As(err, &pErr) {
		return pErr.Kind()
	}
	return "internal"
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike a bare fmt.Errorf with %w, nil stays nil.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to read record")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to hash %s", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
