// Package process runs external commands on behalf of pipeline steps.
//
// Commands either carry a shell line, run through the platform shell, or an
// explicit argument vector, executed directly. The environment of a command
// is assembled with [BuildEnv]: install directories are prepended to PATH and
// the step environment overlay overrides inherited variables.
package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/cuinixam/pypeline/internal/errors"
)

// Command is either a shell line or an argument vector. When both are set
// the argument vector wins.
type Command struct {
	Line string
	Args []string
}

// Shell returns a Command run through the platform shell.
func Shell(line string) Command {
	return Command{Line: line}
}

// Argv returns a Command executed directly without a shell.
func Argv(args ...string) Command {
	return Command{Args: append([]string(nil), args...)}
}

// IsZero reports whether the command has nothing to run.
func (c Command) IsZero() bool {
	return len(c.Args) == 0 && strings.TrimSpace(c.Line) == ""
}

// String renders the command for logs and error messages.
func (c Command) String() string {
	if len(c.Args) > 0 {
		return strings.Join(c.Args, " ")
	}
	return c.Line
}

// argv returns the program and arguments to execute.
func (c Command) argv() []string {
	if len(c.Args) > 0 {
		return c.Args
	}
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C", c.Line}
	}
	return []string{"sh", "-c", c.Line}
}

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Command, e.Code)
}

// Option configures an Executor.
type Option func(*Executor)

// WithDir sets the working directory. Empty means the current directory.
func WithDir(dir string) Option {
	return func(e *Executor) { e.dir = dir }
}

// WithEnv sets the complete environment of the command.
func WithEnv(env []string) Option {
	return func(e *Executor) { e.env = env }
}

// WithExtraEnv sets variables for this command only, on top of the
// environment given by WithEnv (or the inherited one).
func WithExtraEnv(vars map[string]string) Option {
	return func(e *Executor) { e.extra = vars }
}

// WithStdout redirects the command's standard output.
func WithStdout(w io.Writer) Option {
	return func(e *Executor) { e.stdout = w }
}

// WithStderr redirects the command's standard error.
func WithStderr(w io.Writer) Option {
	return func(e *Executor) { e.stderr = w }
}

// Executor runs one command to completion.
type Executor struct {
	cmd    Command
	dir    string
	env    []string
	extra  map[string]string
	stdout io.Writer
	stderr io.Writer
}

// NewExecutor creates an Executor for cmd. Output goes to the parent's
// stdout and stderr unless redirected.
func NewExecutor(cmd Command, opts ...Option) *Executor {
	e := &Executor{
		cmd:    cmd,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Command returns the command the executor runs.
func (e *Executor) Command() Command { return e.cmd }

// Dir returns the working directory.
func (e *Executor) Dir() string { return e.dir }

// Env returns the environment passed to the command. Nil means inherited.
func (e *Executor) Env() []string {
	if len(e.extra) == 0 {
		return e.env
	}
	base := e.env
	if base == nil {
		base = os.Environ()
	}
	return BuildEnv(base, nil, e.extra)
}

// Execute runs the command and blocks until it exits. Cancelling ctx kills
// the child process.
func (e *Executor) Execute(ctx context.Context) error {
	if e.cmd.IsZero() {
		return errors.New("empty command")
	}

	argv := e.cmd.argv()
	env := e.Env()
	cmd := exec.CommandContext(ctx, lookPath(argv[0], env), argv[1:]...)
	cmd.Dir = e.dir
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrapf(ctxErr, "command %q interrupted", e.cmd.String())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: e.cmd.String(), Code: exitErr.ExitCode()}
		}
		return errors.Wrapf(err, "failed to start %q", e.cmd.String())
	}
	return nil
}

// lookPath searches the PATH of env for name. exec.Command only consults the
// parent's PATH, which lacks the install directories.
func lookPath(name string, env []string) string {
	if env == nil || strings.ContainsAny(name, `/\`) {
		return name
	}
	path, ok := LookupEnv(env, "PATH")
	if !ok {
		return name
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		if found, err := exec.LookPath(filepath.Join(dir, name)); err == nil {
			return found
		}
	}
	return name
}

// BuildEnv returns base with installDirs prepended to PATH (in the given
// order, made absolute) and every overlay variable set, overriding base.
func BuildEnv(base []string, installDirs []string, overlay map[string]string) []string {
	env := make([]string, 0, len(base)+len(overlay)+1)
	index := make(map[string]int, len(base))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if i, ok := index[envKey(key)]; ok {
			env[i] = kv
			continue
		}
		index[envKey(key)] = len(env)
		env = append(env, kv)
	}

	set := func(key, value string) {
		if i, ok := index[envKey(key)]; ok {
			existing, _, _ := strings.Cut(env[i], "=")
			env[i] = existing + "=" + value
			return
		}
		index[envKey(key)] = len(env)
		env = append(env, key+"="+value)
	}

	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set(k, overlay[k])
	}

	if len(installDirs) > 0 {
		parts := make([]string, 0, len(installDirs)+1)
		for _, dir := range installDirs {
			if abs, err := filepath.Abs(dir); err == nil {
				dir = abs
			}
			parts = append(parts, dir)
		}
		if i, ok := index[envKey("PATH")]; ok {
			if _, current, _ := strings.Cut(env[i], "="); current != "" {
				parts = append(parts, current)
			}
		}
		set("PATH", strings.Join(parts, string(os.PathListSeparator)))
	}

	return env
}

// LookupEnv returns the value of key in env.
func LookupEnv(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		k, v, _ := strings.Cut(env[i], "=")
		if envKey(k) == envKey(key) {
			return v, true
		}
	}
	return "", false
}

// envKey folds case on Windows where variable names are case insensitive.
func envKey(key string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(key)
	}
	return key
}
