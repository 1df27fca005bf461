// Package execctx holds the mutable state shared by all steps of one run.
//
// A run creates a single [Context] and passes it to every step factory. Steps
// publish their results through AddInstallDirs, AddEnvVars and the data
// registry; later steps observe them through the same accessors. Projects
// that need extra fields embed *Context in their own type and steps recover
// it with a type assertion.
package execctx

import (
	"maps"
	"os"
	"path/filepath"

	"github.com/cuinixam/pypeline/internal/artifacts"
	"github.com/cuinixam/pypeline/internal/dataregistry"
	"github.com/cuinixam/pypeline/internal/logging"
	"github.com/cuinixam/pypeline/internal/process"
)

// ExecutionContext is the capability set the scheduler, the executor and the
// steps rely on.
type ExecutionContext interface {
	ProjectRootDir() string
	InstallDirs() []string
	AddInstallDirs(dirs ...string)
	EnvVars() map[string]string
	AddEnvVars(vars map[string]string)
	DataRegistry() *dataregistry.Registry
	Inputs() map[string]any
	Logger() *logging.Logger
	CreateProcessExecutor(cmd process.Command, cwd string, opts ...process.Option) *process.Executor
	CreateArtifactsLocator() *artifacts.Locator
}

// Context is the default ExecutionContext. It is not safe for concurrent
// use; steps run one at a time.
type Context struct {
	projectRootDir string
	installDirs    []string
	envVars        map[string]string
	registry       *dataregistry.Registry
	inputs         map[string]any
	logger         *logging.Logger
	locatorOpts    []artifacts.Option
	environ        func() []string
}

// Option configures a Context.
type Option func(*Context)

// WithInputs sets the parsed project inputs.
func WithInputs(inputs map[string]any) Option {
	return func(c *Context) { c.inputs = inputs }
}

// WithLogger sets the logger handed to steps.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithArtifacts passes options to every artifacts locator the context creates.
func WithArtifacts(opts ...artifacts.Option) Option {
	return func(c *Context) { c.locatorOpts = append(c.locatorOpts, opts...) }
}

// WithEnviron replaces the source of the inherited environment (os.Environ).
func WithEnviron(environ func() []string) Option {
	return func(c *Context) { c.environ = environ }
}

// New creates a Context for the project rooted at projectRootDir.
func New(projectRootDir string, opts ...Option) *Context {
	c := &Context{
		projectRootDir: projectRootDir,
		envVars:        make(map[string]string),
		registry:       dataregistry.New(),
		inputs:         make(map[string]any),
		logger:         logging.NopLogger(),
		environ:        os.Environ,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProjectRootDir returns the project root directory.
func (c *Context) ProjectRootDir() string { return c.projectRootDir }

// InstallDirs returns a copy of the install directories in insertion order.
func (c *Context) InstallDirs() []string {
	return append([]string(nil), c.installDirs...)
}

// AddInstallDirs appends dirs. Duplicates are kept.
func (c *Context) AddInstallDirs(dirs ...string) {
	c.installDirs = append(c.installDirs, dirs...)
}

// EnvVars returns a copy of the environment overlay.
func (c *Context) EnvVars() map[string]string {
	return maps.Clone(c.envVars)
}

// AddEnvVars merges vars into the overlay; later values win.
func (c *Context) AddEnvVars(vars map[string]string) {
	maps.Copy(c.envVars, vars)
}

// DataRegistry returns the run's data registry.
func (c *Context) DataRegistry() *dataregistry.Registry { return c.registry }

// Inputs returns the parsed project inputs.
func (c *Context) Inputs() map[string]any { return c.inputs }

// Logger returns the run logger.
func (c *Context) Logger() *logging.Logger { return c.logger }

// CreateProcessExecutor returns an executor for cmd whose PATH starts with the
// install directories and whose environment carries the overlay. Relative
// install directories and an empty cwd resolve against the project root.
func (c *Context) CreateProcessExecutor(cmd process.Command, cwd string, opts ...process.Option) *process.Executor {
	dirs := make([]string, len(c.installDirs))
	for i, dir := range c.installDirs {
		dirs[i] = c.resolve(dir)
	}

	if cwd == "" {
		cwd = c.projectRootDir
	}
	base := []process.Option{
		process.WithDir(c.resolve(cwd)),
		process.WithEnv(process.BuildEnv(c.environ(), dirs, c.envVars)),
	}
	return process.NewExecutor(cmd, append(base, opts...)...)
}

// CreateArtifactsLocator returns a locator for the project.
func (c *Context) CreateArtifactsLocator() *artifacts.Locator {
	return artifacts.NewLocator(c.projectRootDir, c.locatorOpts...)
}

func (c *Context) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.projectRootDir, path)
}
