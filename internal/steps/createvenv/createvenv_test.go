package createvenv

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/version"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// fakePython writes an interpreter stand-in that logs its arguments and
// creates a minimal environment for "-m venv DIR".
func fakePython(t *testing.T) (python, log string) {
	t.Helper()
	return fakePythonLogging(t, `$(basename "$0") $*`)
}

// fakePythonLogging is fakePython with a custom shell expression per call.
func fakePythonLogging(t *testing.T, line string) (python, log string) {
	t.Helper()
	dir := t.TempDir()
	python = filepath.Join(dir, "python")
	log = filepath.Join(dir, "calls.log")
	script := `#!/bin/sh
echo "` + line + `" >> ` + log + `
if [ "$1" = "-m" ] && [ "$2" = "venv" ]; then
  mkdir -p "$3/bin"
  cp "$0" "$3/bin/python"
  touch "$3/pyvenv.cfg"
fi
`
	if err := os.WriteFile(python, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return python, log
}

func readCalls(t *testing.T, log string) []string {
	t.Helper()
	content, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func TestManagerName(t *testing.T) {
	tests := []struct {
		requirement string
		want        string
		wantErr     bool
	}{
		{"uv>=0.6", "uv", false},
		{"poetry", "poetry", false},
		{"pipenv==2024.0", "pipenv", false},
		{"conda", "", true},
		{">=1.0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.requirement, func(t *testing.T) {
			got, err := ManagerName(tt.requirement)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ManagerName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrInvalidConfig) {
				t.Errorf("ManagerName() error = %v, want a configuration error", err)
			}
			if got != tt.want {
				t.Errorf("ManagerName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_UnsupportedManager(t *testing.T) {
	if _, err := New(execctx.New(t.TempDir()), "", map[string]any{"package_manager": "conda"}); err == nil {
		t.Error("expected an error for an unsupported package manager")
	}
}

func TestCreateVEnv_CacheMaterial(t *testing.T) {
	root := t.TempDir()
	s, err := New(execctx.New(root), "", map[string]any{"package_manager": "poetry>=1.8"})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{filepath.Join(root, "pyproject.toml"), filepath.Join(root, "poetry.lock")}
	if got := s.Inputs(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Inputs() = %v, want %v", got, want)
	}
	if got := s.Outputs(); len(got) != 1 || got[0] != filepath.Join(root, VenvDir) {
		t.Errorf("Outputs() = %v", got)
	}
	if got := s.Config()["package_manager"]; got != "poetry>=1.8" {
		t.Errorf("Config()[package_manager] = %v", got)
	}
}

func TestCreateVEnv_BootstrapScript(t *testing.T) {
	requireShell(t)

	for _, configured := range []string{`.bootstrap\bootstrap.sh`, ".bootstrap/bootstrap.sh"} {
		t.Run(configured, func(t *testing.T) {
			root := t.TempDir()
			if err := os.MkdirAll(filepath.Join(root, ".bootstrap"), 0755); err != nil {
				t.Fatal(err)
			}
			script := "touch \"$(pwd)/bootstrapped\"\n"
			if err := os.WriteFile(filepath.Join(root, ".bootstrap", "bootstrap.sh"), []byte(script), 0644); err != nil {
				t.Fatal(err)
			}

			s, err := New(execctx.New(root), "", map[string]any{"bootstrap_script": configured, "python_executable": "sh"})
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if _, err := os.Stat(filepath.Join(root, "bootstrapped")); err != nil {
				t.Errorf("bootstrap script did not run in the project root: %v", err)
			}
			if got := s.Inputs(); got[len(got)-1] != filepath.Join(root, ".bootstrap", "bootstrap.sh") {
				t.Errorf("Inputs() = %v, want the script last", got)
			}
		})
	}
}

func TestCreateVEnv_MissingBootstrapScript(t *testing.T) {
	s, err := New(execctx.New(t.TempDir()), "", map[string]any{"bootstrap_script": "missing.py"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); !errors.Is(err, errors.ErrInvalidConfig) {
		t.Errorf("Run() error = %v, want a configuration error", err)
	}
}

func TestCreateVEnv_InternalBootstrap(t *testing.T) {
	requireShell(t)

	root := t.TempDir()
	pyproject := "[[tool.uv.index]]\nname = \"corp\"\nurl = \"https://pypi.corp/simple\"\n"
	if err := os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte(pyproject), 0644); err != nil {
		t.Fatal(err)
	}
	python, log := fakePython(t)
	ec := execctx.New(root)

	s, err := New(ec, "", map[string]any{
		"python_executable":    python,
		"bootstrap_packages":   []any{"wheel"},
		"package_manager_args": "--frozen",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	venv := filepath.Join(root, VenvDir)
	want := []string{
		"python -m venv " + venv,
		"python -m pip install uv>=0.6 wheel",
		"python -m uv sync --frozen",
	}
	calls := readCalls(t, log)
	if strings.Join(calls, "\n") != strings.Join(want, "\n") {
		t.Errorf("calls = %q, want %q", calls, want)
	}

	if got, _ := os.ReadFile(filepath.Join(venv, ".gitignore")); string(got) != "*\n" {
		t.Errorf(".gitignore = %q", got)
	}
	if got, _ := os.ReadFile(pipConfigFile(venv)); !strings.Contains(string(got), "https://pypi.corp/simple") {
		t.Errorf("pip config = %q", got)
	}

	if err := s.UpdateExecutionContext(); err != nil {
		t.Fatal(err)
	}
	if dirs := ec.InstallDirs(); len(dirs) != 1 || dirs[0] != filepath.Join(venv, "bin") {
		t.Errorf("InstallDirs() = %v", dirs)
	}
}

func TestCreateVEnv_ExistingVenvIsReused(t *testing.T) {
	requireShell(t)

	root := t.TempDir()
	python, log := fakePython(t)
	venv := filepath.Join(root, VenvDir)
	if err := os.MkdirAll(filepath.Join(venv, "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(venv, "pyvenv.cfg"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	content, _ := os.ReadFile(python)
	if err := os.WriteFile(VenvPython(venv), content, 0755); err != nil {
		t.Fatal(err)
	}

	s, err := New(execctx.New(root), "", map[string]any{"python_executable": python, "venv_install_command": "true"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	calls := readCalls(t, log)
	if len(calls) != 1 || calls[0] != "python -m pip install uv>=0.6" {
		t.Errorf("calls = %q, want only the package manager install", calls)
	}
}

func TestNew_PythonVersion(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		want   string
	}{
		{"version only", map[string]any{"python_version": "3.11"}, "python3.11"},
		{"executable wins", map[string]any{"python_version": "3.11", "python_executable": "py"}, "py"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(execctx.New(t.TempDir()), "", tt.config)
			if err != nil {
				t.Fatal(err)
			}
			cfg := s.Config()
			if cfg["python_executable"] != tt.want {
				t.Errorf("python_executable = %v, want %s", cfg["python_executable"], tt.want)
			}
			if cfg["python_version"] != "3.11" {
				t.Errorf("python_version = %v", cfg["python_version"])
			}
			if cfg["version"] != version.Version {
				t.Errorf("version = %v, want %s", cfg["version"], version.Version)
			}
		})
	}
}

func TestCreateVEnv_BootstrapCacheDir(t *testing.T) {
	requireShell(t)

	root := t.TempDir()
	python, log := fakePythonLogging(t, `$1 $2 pip=$PIP_CACHE_DIR uv=$UV_CACHE_DIR`)

	s, err := New(execctx.New(root), "", map[string]any{
		"python_executable":   python,
		"bootstrap_cache_dir": ".cache/bootstrap",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	cache := filepath.Join(root, ".cache", "bootstrap")
	for _, call := range readCalls(t, log) {
		if !strings.HasSuffix(call, "pip="+cache+" uv="+cache) {
			t.Errorf("call %q does not use cache dir %s", call, cache)
		}
	}
	if got := s.Config()["bootstrap_cache_dir"]; got != ".cache/bootstrap" {
		t.Errorf("Config()[bootstrap_cache_dir] = %v", got)
	}
}
