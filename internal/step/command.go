package step

import (
	"context"

	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/process"
)

// NewCommandFactory returns a factory for a step named name that runs cmd
// from the project root. Command steps have no inputs or outputs and always
// run.
func NewCommandFactory(name string, cmd process.Command) Factory {
	return func(ec execctx.ExecutionContext, outputDir string, config map[string]any) (Step, error) {
		return &commandStep{Base: NewBase(name, ec, outputDir, config), cmd: cmd}, nil
	}
}

type commandStep struct {
	Base
	cmd process.Command
}

func (s *commandStep) Run(ctx context.Context) error {
	s.Logger().Info("running command", "command", s.cmd.String())
	return s.ExecutionContext().CreateProcessExecutor(s.cmd, s.ProjectRootDir()).Execute(ctx)
}

func (s *commandStep) NeedsDependencyManagement() bool { return false }
