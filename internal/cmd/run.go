package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cuinixam/pypeline/internal/artifacts"
	"github.com/cuinixam/pypeline/internal/config"
	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/executor"
	"github.com/cuinixam/pypeline/internal/inputs"
	"github.com/cuinixam/pypeline/internal/loader"
	"github.com/cuinixam/pypeline/internal/logging"
	"github.com/cuinixam/pypeline/internal/pipeline"
	"github.com/cuinixam/pypeline/internal/scheduler"
	"github.com/cuinixam/pypeline/internal/step"
)

type runOptions struct {
	projectDir string
	configFile string
	steps      []string
	single     bool
	dryRun     bool
	forceRun   bool
	print      bool
	inputs     []string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline",
		Long: `Run the steps of the project pipeline.

Without --step every step runs. With --step the pipeline runs up to and
including the last named step; add --single to run only the named steps.

Examples:
  # Run everything
  pypeline run

  # Catch up to CreateVEnv
  pypeline run --step CreateVEnv

  # Run two steps and nothing else
  pypeline run --step Lint --step Test --single

  # Show what would run
  pypeline run --step Test --print`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts)
		},
	}

	opts.addFlags(cmd.Flags())
	return cmd
}

func (o *runOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.projectDir, "project-dir", ".", "The project directory")
	fs.StringVar(&o.configFile, "config-file", "", "Pipeline document relative to the project directory (default pypeline.yaml)")
	fs.StringArrayVarP(&o.steps, "step", "s", nil, "Name of a step to run (repeatable)")
	fs.BoolVar(&o.single, "single", false, "Run only the named steps")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Construct the selected steps without running them")
	fs.BoolVar(&o.forceRun, "force-run", false, "Run steps even when they are up to date")
	fs.BoolVar(&o.print, "print", false, "Print the selected steps and exit")
	fs.StringArrayVarP(&o.inputs, "input", "i", nil, "Project input as name=value (repeatable)")
}

func runPipeline(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.NewConfigError("invalid application configuration", err)
	}

	root, err := filepath.Abs(opts.projectDir)
	if err != nil {
		return errors.Wrap(err, "failed to resolve project directory")
	}
	configFile := opts.configFile
	if configFile == "" {
		configFile = cfg.Project.ConfigFile
	}
	locatorOpts := []artifacts.Option{
		artifacts.WithConfigFile(configFile),
		artifacts.WithBuildDir(cfg.Project.BuildDir),
	}
	locator := artifacts.NewLocator(root, locatorOpts...)

	project, err := pipeline.ReadProjectFile(locator.ConfigFile())
	if err != nil {
		return err
	}
	values, err := inputs.FromDefinitions(project.Inputs).Parse(opts.inputs)
	if err != nil {
		return err
	}

	sched := scheduler.New(project.Pipeline, loader.New(step.Default, root))
	if opts.print {
		selected, err := sched.Select(opts.steps, opts.single)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), renderPlan(selected))
		return err
	}

	refs, err := sched.StepsToRun(opts.steps, opts.single)
	if err != nil {
		return err
	}

	logCfg := cfg.Logging
	if opts.dryRun {
		// A dry run leaves the build directory untouched.
		logCfg.File = false
	}
	logger, err := newLogger(logCfg, locator.BuildDir(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	ec := execctx.New(root,
		execctx.WithInputs(values),
		execctx.WithLogger(logger),
		execctx.WithArtifacts(locatorOpts...),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger.Info("running pipeline", "project", root, "steps", len(refs), "dry_run", opts.dryRun)
	return executor.New(ec, refs,
		executor.WithDryRun(opts.dryRun),
		executor.WithForceRun(opts.forceRun),
	).Run(ctx)
}

func newLogger(cfg config.LoggingConfig, buildDir string, console io.Writer) (*logging.Logger, error) {
	opts := logging.Options{Level: cfg.Level, Console: console}
	if cfg.File {
		opts.Dir = buildDir
		opts.Rotation = logging.RotationConfig{
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
	}
	return logging.New(opts)
}
