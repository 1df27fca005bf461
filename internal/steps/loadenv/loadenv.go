// Package loadenv provides the LoadEnv step, which publishes the project's
// .env file into the execution context's environment overlay.
package loadenv

import (
	"os"
	"path/filepath"

	"github.com/subosito/gotenv"

	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/step"
)

// Module and Name identify the step in pipeline documents.
const (
	Module = "pypeline.steps.load_env"
	Name   = "LoadEnv"
)

// FileName is the dotenv file read from the project root.
const FileName = ".env"

func init() {
	step.Register(Module, Name, New)
}

// LoadEnv reads <root>/.env when the execution context is updated. It never
// runs anything and is never cached.
type LoadEnv struct {
	step.ContextOnly
}

// New constructs a LoadEnv step.
func New(ec execctx.ExecutionContext, outputDir string, config map[string]any) (step.Step, error) {
	return &LoadEnv{ContextOnly: step.NewContextOnly(Name, ec, outputDir, config)}, nil
}

// UpdateExecutionContext adds the variables of .env to the environment
// overlay. A missing file is only a warning.
func (s *LoadEnv) UpdateExecutionContext() error {
	path := filepath.Join(s.ProjectRootDir(), FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.Logger().Warn("no .env file found", "path", path)
		return nil
	}

	vars, err := ReadFile(path)
	if err != nil {
		return err
	}
	s.Logger().Info("loading environment variables", "path", path, "count", len(vars))
	s.ExecutionContext().AddEnvVars(vars)
	return nil
}

// ReadFile parses a dotenv file. Blank lines and comments are ignored and
// quotes around values are removed.
func ReadFile(path string) (map[string]string, error) {
	env, err := gotenv.Read(path)
	if err != nil {
		return nil, errors.NewConfigError("cannot read dotenv file", err).WithFile(path)
	}
	return env, nil
}
