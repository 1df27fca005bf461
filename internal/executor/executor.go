// Package executor runs resolved pipeline steps in order against one
// execution context.
package executor

import (
	"context"
	"path/filepath"

	"github.com/sourcegraph/conc/panics"
	"github.com/spf13/afero"

	"github.com/cuinixam/pypeline/internal/deps"
	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/loader"
	"github.com/cuinixam/pypeline/internal/logging"
	"github.com/cuinixam/pypeline/internal/step"
)

// Option configures an Executor.
type Option func(*Executor)

// WithDryRun constructs every step without running it.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) { e.dryRun = dryRun }
}

// WithForceRun runs dependency managed steps even when they are up to date.
func WithForceRun(force bool) Option {
	return func(e *Executor) { e.forceRun = force }
}

// WithLogger sets the logger. Defaults to the execution context's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFs sets the filesystem dependency records are kept on.
func WithFs(fs afero.Fs) Option {
	return func(e *Executor) { e.fs = fs }
}

// Executor runs steps strictly one at a time in the order given. The first
// failure aborts the rest of the run.
type Executor struct {
	ec       execctx.ExecutionContext
	steps    []loader.StepReference
	dryRun   bool
	forceRun bool
	logger   *logging.Logger
	fs       afero.Fs
}

// New creates an Executor for steps.
func New(ec execctx.ExecutionContext, steps []loader.StepReference, opts ...Option) *Executor {
	e := &Executor{
		ec:     ec,
		steps:  steps,
		logger: ec.Logger(),
		fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NopLogger()
	}
	return e
}

// SetDryRun changes the dry-run flag for later calls to Run.
func (e *Executor) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

// DryRun reports whether Run only constructs steps.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Run executes every step. Each step is constructed with its artifact
// directory <build>/<group or step name>, then run directly or through its
// dependency record, and finally asked to update the execution context. In
// dry-run mode nothing past construction happens.
func (e *Executor) Run(ctx context.Context) error {
	buildDir := e.ec.CreateArtifactsLocator().BuildDir()

	for _, ref := range e.steps {
		if err := ctx.Err(); err != nil {
			return failure(ref, "pipeline interrupted", err)
		}

		logger := e.logger.WithGroup(ref.GroupName).WithStep(ref.Name)
		outputDir := filepath.Join(buildDir, ref.OutputName())

		var s step.Step
		err := capture(func() error {
			var err error
			s, err = ref.Factory(e.ec, outputDir, ref.Config)
			return err
		})
		if err != nil {
			return failure(ref, "failed to create step", err)
		}

		if e.dryRun {
			logger.Info("dry run, not running step")
			continue
		}

		if err := capture(func() error { return e.runStep(ctx, s, outputDir, logger) }); err != nil {
			return failure(ref, "step failed", err)
		}
		if err := capture(s.UpdateExecutionContext); err != nil {
			return failure(ref, "failed to update execution context", err)
		}
	}
	return nil
}

func (e *Executor) runStep(ctx context.Context, s step.Step, outputDir string, logger *logging.Logger) error {
	if !s.NeedsDependencyManagement() {
		logger.Info("running step")
		return s.Run(ctx)
	}

	outcome, err := deps.NewExecutor(outputDir,
		deps.WithFs(e.fs),
		deps.WithForce(e.forceRun),
		deps.WithLogger(logger),
	).Execute(ctx, s)
	if err != nil {
		return err
	}
	logger.Debug("step finished", "outcome", outcome.String())
	return nil
}

// capture runs fn and turns a panic into an error.
func capture(fn func() error) error {
	var (
		pc  panics.Catcher
		err error
	)
	pc.Try(func() { err = fn() })
	if r := pc.Recovered(); r != nil {
		return r.AsError()
	}
	return err
}

func failure(ref loader.StepReference, message string, cause error) error {
	return errors.NewExecutionError(ref.Name, message, cause).WithGroup(ref.GroupName)
}
