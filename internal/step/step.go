// Package step defines the contract every pipeline step satisfies, the
// factories that construct steps, and the registry mapping
// (module, step name) pairs to factories.
//
// Built-in steps register themselves from init functions:
//
//	func init() {
//	    step.Register("pypeline.steps.load_env", "LoadEnv", New)
//	}
//
// A step type embeds [Base] for the defaults and implements Run:
//
//	type Hello struct{ step.Base }
//
//	func (h *Hello) Run(ctx context.Context) error { ... }
package step

import (
	"context"

	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/logging"
)

// Step is a named unit of work run by the executor.
type Step interface {
	// Name identifies the step; it names the dependency record.
	Name() string
	// Inputs are the files whose content decides whether the step is stale.
	Inputs() []string
	// Outputs are the artifacts the step produces.
	Outputs() []string
	// Config is extra cache key material beyond file hashes.
	Config() map[string]any
	// Run does the work. A non-nil error aborts the pipeline.
	Run(ctx context.Context) error
	// UpdateExecutionContext publishes the step's results. It is called once
	// after every successful Run, including runs skipped as up to date.
	UpdateExecutionContext() error
	// NeedsDependencyManagement is false for steps that always run.
	NeedsDependencyManagement() bool
}

// Factory constructs a step. outputDir is the step's artifact directory.
type Factory func(ec execctx.ExecutionContext, outputDir string, config map[string]any) (Step, error)

// Base carries the construction arguments and default behaviour. Embed it
// and implement Run.
type Base struct {
	name      string
	ec        execctx.ExecutionContext
	outputDir string
	raw       map[string]any
}

// NewBase returns a Base for the step called name.
func NewBase(name string, ec execctx.ExecutionContext, outputDir string, config map[string]any) Base {
	return Base{name: name, ec: ec, outputDir: outputDir, raw: config}
}

// Name returns the step name.
func (b *Base) Name() string { return b.name }

// ExecutionContext returns the run's execution context.
func (b *Base) ExecutionContext() execctx.ExecutionContext { return b.ec }

// ProjectRootDir returns the project root directory.
func (b *Base) ProjectRootDir() string { return b.ec.ProjectRootDir() }

// OutputDir returns the step's artifact directory.
func (b *Base) OutputDir() string { return b.outputDir }

// RawConfig returns the free-form configuration from the pipeline document.
func (b *Base) RawConfig() map[string]any { return b.raw }

// Logger returns the context logger tagged with the step name.
func (b *Base) Logger() *logging.Logger { return b.ec.Logger().WithStep(b.name) }

// Inputs returns no inputs.
func (b *Base) Inputs() []string { return nil }

// Outputs returns no outputs.
func (b *Base) Outputs() []string { return nil }

// Config returns no extra cache key material.
func (b *Base) Config() map[string]any { return nil }

// UpdateExecutionContext publishes nothing.
func (b *Base) UpdateExecutionContext() error { return nil }

// NeedsDependencyManagement enables dependency records.
func (b *Base) NeedsDependencyManagement() bool { return true }

// ContextOnly is a base for steps whose only effect is publishing into the
// execution context from UpdateExecutionContext.
type ContextOnly struct {
	Base
}

// NewContextOnly returns a ContextOnly base for the step called name.
func NewContextOnly(name string, ec execctx.ExecutionContext, outputDir string, config map[string]any) ContextOnly {
	return ContextOnly{Base: NewBase(name, ec, outputDir, config)}
}

// Run does nothing.
func (c *ContextOnly) Run(context.Context) error { return nil }

// NeedsDependencyManagement is false; there is nothing to cache.
func (c *ContextOnly) NeedsDependencyManagement() bool { return false }
