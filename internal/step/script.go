package step

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/process"
)

// Environment variables passed to script steps.
const (
	EnvStepConfig = "PYPELINE_STEP_CONFIG"
	EnvOutputDir  = "PYPELINE_OUTPUT_DIR"
)

// ScriptConfig is the part of a script step's config the engine reads.
// Everything else is passed to the script untouched.
type ScriptConfig struct {
	Inputs  []string       `mapstructure:"inputs"`
	Outputs []string       `mapstructure:"outputs"`
	Extra   map[string]any `mapstructure:",remain"`
}

// NewScriptFactory returns a factory for a step named name that executes
// the script at path. The step configuration is handed to the script as JSON
// in PYPELINE_STEP_CONFIG and the output directory in PYPELINE_OUTPUT_DIR.
func NewScriptFactory(name, path string) Factory {
	return func(ec execctx.ExecutionContext, outputDir string, config map[string]any) (Step, error) {
		s := &scriptStep{Base: NewBase(name, ec, outputDir, config), script: path}
		if err := DecodeConfig(config, &s.cfg); err != nil {
			return nil, err
		}
		return s, nil
	}
}

type scriptStep struct {
	Base
	script string
	cfg    ScriptConfig
}

// Inputs are the script itself plus the declared inputs.
func (s *scriptStep) Inputs() []string {
	return append([]string{s.script}, s.resolveAll(s.cfg.Inputs)...)
}

func (s *scriptStep) Outputs() []string {
	return s.resolveAll(s.cfg.Outputs)
}

func (s *scriptStep) Config() map[string]any {
	return s.RawConfig()
}

// NeedsDependencyManagement is true only when the script declares outputs;
// otherwise nothing tells the executor whether the work is done.
func (s *scriptStep) NeedsDependencyManagement() bool {
	return len(s.cfg.Outputs) > 0
}

func (s *scriptStep) Run(ctx context.Context) error {
	config := s.RawConfig()
	if config == nil {
		config = map[string]any{}
	}
	payload, err := json.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to encode step config")
	}
	if err := os.MkdirAll(s.OutputDir(), 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	cmd := ScriptCommand(s.script)
	s.Logger().Info("running script", "command", cmd.String())
	return s.ExecutionContext().CreateProcessExecutor(cmd, s.ProjectRootDir(),
		process.WithExtraEnv(map[string]string{
			EnvStepConfig: string(payload),
			EnvOutputDir:  s.OutputDir(),
		}),
	).Execute(ctx)
}

func (s *scriptStep) resolveAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.ProjectRootDir(), p)
		}
		out = append(out, p)
	}
	return out
}

// ScriptCommand returns the command that runs the script at path, picking an
// interpreter from the file extension.
func ScriptCommand(path string) process.Command {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return process.Argv(PythonExecutable(), path)
	case ".sh":
		return process.Argv("sh", path)
	case ".ps1":
		return process.Argv("pwsh", "-NoProfile", "-File", path)
	default:
		return process.Argv(path)
	}
}

// PythonExecutable is the interpreter name used for Python scripts.
func PythonExecutable() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}
