// Package westinstall provides the WestInstall step, which initialises a
// west workspace from the project's manifest and fetches its projects.
package westinstall

import (
	"context"
	"path/filepath"

	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/process"
	"github.com/cuinixam/pypeline/internal/step"
)

// Module and Name identify the step in pipeline documents.
const (
	Module = "pypeline.steps.west_install"
	Name   = "WestInstall"
)

func init() {
	step.Register(Module, Name, New)
}

// Config is the step configuration.
type Config struct {
	// ManifestFile is the west manifest relative to the project root.
	ManifestFile string `mapstructure:"manifest_file"`
	// WorkspaceDir is where the manifest repository is initialised,
	// relative to the project root.
	WorkspaceDir string `mapstructure:"workspace_dir"`
}

// WestInstall runs `west init -l` and `west update`.
type WestInstall struct {
	step.Base
	cfg Config
}

// New constructs the step. Defaults are west.yaml and build/west.
func New(ec execctx.ExecutionContext, outputDir string, config map[string]any) (step.Step, error) {
	s := &WestInstall{
		Base: step.NewBase(Name, ec, outputDir, config),
		cfg:  Config{ManifestFile: "west.yaml", WorkspaceDir: filepath.Join("build", "west")},
	}
	if err := step.DecodeConfig(config, &s.cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *WestInstall) manifest() string {
	return filepath.Join(s.ProjectRootDir(), s.cfg.ManifestFile)
}

func (s *WestInstall) workspace() string {
	return filepath.Join(s.ProjectRootDir(), s.cfg.WorkspaceDir)
}

func (s *WestInstall) Inputs() []string {
	return []string{s.manifest()}
}

func (s *WestInstall) Outputs() []string {
	return []string{s.workspace()}
}

func (s *WestInstall) Config() map[string]any {
	return map[string]any{"manifest_file": s.cfg.ManifestFile, "workspace_dir": s.cfg.WorkspaceDir}
}

// Run initialises the workspace from the project root, then updates it from
// the workspace's parent directory.
func (s *WestInstall) Run(ctx context.Context) error {
	ec := s.ExecutionContext()
	initCmd := process.Argv("west", "init", "-l", "--mf", filepath.ToSlash(s.manifest()), filepath.ToSlash(s.workspace()))
	s.Logger().Info("initialising west workspace", "command", initCmd.String())
	if err := ec.CreateProcessExecutor(initCmd, s.ProjectRootDir()).Execute(ctx); err != nil {
		return err
	}

	update := process.Argv("west", "update")
	return ec.CreateProcessExecutor(update, filepath.Dir(s.workspace())).Execute(ctx)
}
