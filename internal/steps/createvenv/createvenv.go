// Package createvenv provides the CreateVEnv step, which bootstraps the
// project's Python virtual environment in <root>/.venv and publishes its
// executables directory as an install directory.
package createvenv

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/process"
	"github.com/cuinixam/pypeline/internal/step"
	"github.com/cuinixam/pypeline/internal/version"
)

// Module and Name identify the step in pipeline documents.
const (
	Module = "pypeline.steps.create_venv"
	Name   = "CreateVEnv"
)

// DefaultPackageManager is installed into the environment when the config
// names none.
const DefaultPackageManager = "uv>=0.6"

// VenvDir is the environment directory relative to the project root.
const VenvDir = ".venv"

func init() {
	step.Register(Module, Name, New)
}

// managers lists the files each supported package manager reads.
var managers = map[string][]string{
	"uv":     {"uv.lock", "pyproject.toml"},
	"pipenv": {"Pipfile", "Pipfile.lock"},
	"poetry": {"pyproject.toml", "poetry.lock"},
}

// installCommands are the manager invocations that install the project.
var installCommands = map[string][]string{
	"uv":     {"sync"},
	"pipenv": {"install", "--dev"},
	"poetry": {"install"},
}

var managerNameRe = regexp.MustCompile(`^([a-zA-Z0-9_-]+)`)

// Config is the step configuration.
type Config struct {
	// BootstrapScript replaces the built-in bootstrap with a project script
	// run by PythonExecutable.
	BootstrapScript  string `mapstructure:"bootstrap_script"`
	PythonExecutable string `mapstructure:"python_executable"`
	// PythonVersion picks the interpreter python<version> when
	// PythonExecutable is not set.
	PythonVersion string `mapstructure:"python_version"`
	// PackageManager is a pip requirement such as "poetry>=1.8".
	PackageManager     string   `mapstructure:"package_manager"`
	PackageManagerArgs []string `mapstructure:"package_manager_args"`
	BootstrapPackages  []string `mapstructure:"bootstrap_packages"`
	// VenvInstallCommand overrides the manager's install command.
	VenvInstallCommand string `mapstructure:"venv_install_command"`
	// BootstrapCacheDir is shared by pip and uv across environments.
	// Relative paths are resolved against the project root.
	BootstrapCacheDir string `mapstructure:"bootstrap_cache_dir"`
}

// CreateVEnv creates and populates the virtual environment.
type CreateVEnv struct {
	step.Base
	cfg     Config
	manager string
}

// New constructs the step. An unsupported package manager is a
// configuration error.
func New(ec execctx.ExecutionContext, outputDir string, config map[string]any) (step.Step, error) {
	s := &CreateVEnv{Base: step.NewBase(Name, ec, outputDir, config)}
	if err := step.DecodeConfig(config, &s.cfg); err != nil {
		return nil, err
	}
	switch {
	case s.cfg.PythonExecutable != "":
	case s.cfg.PythonVersion != "":
		s.cfg.PythonExecutable = "python" + s.cfg.PythonVersion
	default:
		s.cfg.PythonExecutable = step.PythonExecutable()
	}
	if s.cfg.PackageManager == "" {
		s.cfg.PackageManager = DefaultPackageManager
	}

	manager, err := ManagerName(s.cfg.PackageManager)
	if err != nil {
		return nil, err
	}
	s.manager = manager
	return s, nil
}

// ManagerName extracts the supported package manager from a requirement.
func ManagerName(requirement string) (string, error) {
	m := managerNameRe.FindStringSubmatch(requirement)
	if m == nil {
		return "", errors.NewConfigError("cannot extract the package manager name from "+requirement, nil)
	}
	if _, ok := managers[m[1]]; !ok {
		supported := make([]string, 0, len(managers))
		for name := range managers {
			supported = append(supported, name)
		}
		sort.Strings(supported)
		return "", errors.NewConfigError("package manager "+m[1]+" is not supported, use one of: "+strings.Join(supported, ", "), nil)
	}
	return m[1], nil
}

func (s *CreateVEnv) venvDir() string {
	return filepath.Join(s.ProjectRootDir(), VenvDir)
}

// bootstrapScript normalises Windows separators in the configured path.
func (s *CreateVEnv) bootstrapScript() string {
	return filepath.Join(s.ProjectRootDir(), filepath.FromSlash(strings.ReplaceAll(s.cfg.BootstrapScript, `\`, "/")))
}

func (s *CreateVEnv) Inputs() []string {
	var inputs []string
	for _, name := range managers[s.manager] {
		inputs = append(inputs, filepath.Join(s.ProjectRootDir(), name))
	}
	if s.cfg.BootstrapScript != "" {
		inputs = append(inputs, s.bootstrapScript())
	}
	return inputs
}

func (s *CreateVEnv) Outputs() []string {
	return []string{s.venvDir()}
}

func (s *CreateVEnv) Config() map[string]any {
	return map[string]any{
		"version":              version.Version,
		"python_executable":    s.cfg.PythonExecutable,
		"python_version":       s.cfg.PythonVersion,
		"bootstrap_cache_dir":  s.cfg.BootstrapCacheDir,
		"package_manager":      s.cfg.PackageManager,
		"package_manager_args": s.cfg.PackageManagerArgs,
		"bootstrap_packages":   s.cfg.BootstrapPackages,
		"venv_install_command": s.cfg.VenvInstallCommand,
	}
}

func (s *CreateVEnv) Run(ctx context.Context) error {
	if s.cfg.BootstrapScript != "" {
		return s.runBootstrapScript(ctx)
	}
	return s.bootstrap(ctx)
}

func (s *CreateVEnv) runBootstrapScript(ctx context.Context) error {
	script := s.bootstrapScript()
	if _, err := os.Stat(script); err != nil {
		return errors.NewConfigError("bootstrap script "+script+" does not exist", nil)
	}
	cmd := process.Argv(s.cfg.PythonExecutable, filepath.ToSlash(script))
	s.Logger().Info("running bootstrap script", "command", cmd.String())
	return s.ExecutionContext().CreateProcessExecutor(cmd, s.ProjectRootDir()).Execute(ctx)
}

// bootstrap creates the environment if needed, configures pip, installs the
// package manager and lets it install the project.
func (s *CreateVEnv) bootstrap(ctx context.Context) error {
	venv := s.venvDir()
	if _, err := os.Stat(filepath.Join(venv, "pyvenv.cfg")); err != nil {
		if err := s.execute(ctx, process.Argv(s.cfg.PythonExecutable, "-m", "venv", venv)); err != nil {
			return err
		}
	}
	if err := os.WriteFile(filepath.Join(venv, ".gitignore"), []byte("*\n"), 0644); err != nil {
		return errors.Wrap(err, "failed to write .gitignore")
	}

	source, err := FindPyPISource(s.ProjectRootDir())
	if err != nil {
		return err
	}
	if source != nil {
		s.Logger().Info("configuring pip index", "name", source.Name, "url", source.URL)
		if err := ConfigurePip(venv, source.URL, true); err != nil {
			return errors.Wrap(err, "failed to configure pip")
		}
	}

	python := VenvPython(venv)
	install := append([]string{python, "-m", "pip", "install", s.cfg.PackageManager}, s.cfg.BootstrapPackages...)
	if err := s.execute(ctx, process.Argv(install...)); err != nil {
		return err
	}

	var cmd process.Command
	if s.cfg.VenvInstallCommand != "" {
		cmd = process.Shell(s.cfg.VenvInstallCommand)
	} else {
		args := append([]string{python, "-m", s.manager}, installCommands[s.manager]...)
		cmd = process.Argv(append(args, s.cfg.PackageManagerArgs...)...)
	}
	return s.execute(ctx, cmd)
}

func (s *CreateVEnv) execute(ctx context.Context, cmd process.Command) error {
	env := map[string]string{"VIRTUAL_ENV": s.venvDir()}
	if dir := s.cacheDir(); dir != "" {
		env["PIP_CACHE_DIR"] = dir
		env["UV_CACHE_DIR"] = dir
	}
	s.Logger().Info("running", "command", cmd.String())
	return s.ExecutionContext().CreateProcessExecutor(cmd, s.ProjectRootDir(),
		process.WithExtraEnv(env),
	).Execute(ctx)
}

func (s *CreateVEnv) cacheDir() string {
	dir := s.cfg.BootstrapCacheDir
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(s.ProjectRootDir(), dir)
}

// UpdateExecutionContext publishes the environment's executables directory.
func (s *CreateVEnv) UpdateExecutionContext() error {
	for _, dir := range []string{"Scripts", "bin"} {
		path := filepath.Join(s.venvDir(), dir)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			s.ExecutionContext().AddInstallDirs(path)
		}
	}
	return nil
}

// VenvPython returns the interpreter inside the environment.
func VenvPython(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts", "python.exe")
	}
	return filepath.Join(venvDir, "bin", "python")
}
