package step

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/process"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell tests require a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

type greeter struct {
	Base
	ran bool
}

func (g *greeter) Run(context.Context) error {
	g.ran = true
	return nil
}

func TestBase_Defaults(t *testing.T) {
	ec := execctx.New("/project")
	g := &greeter{Base: NewBase("Greeter", ec, "/project/build/Greeter", map[string]any{"a": 1})}

	var s Step = g
	if s.Name() != "Greeter" {
		t.Errorf("Name() = %q", s.Name())
	}
	if s.Inputs() != nil || s.Outputs() != nil || s.Config() != nil {
		t.Error("Base should default to nil inputs, outputs and config")
	}
	if !s.NeedsDependencyManagement() {
		t.Error("Base should enable dependency management")
	}
	if err := s.UpdateExecutionContext(); err != nil {
		t.Errorf("UpdateExecutionContext() = %v", err)
	}
	if g.OutputDir() != "/project/build/Greeter" || g.ProjectRootDir() != "/project" {
		t.Errorf("OutputDir() = %q, ProjectRootDir() = %q", g.OutputDir(), g.ProjectRootDir())
	}
	if g.RawConfig()["a"] != 1 {
		t.Errorf("RawConfig() = %v", g.RawConfig())
	}
	if g.ExecutionContext() != ec {
		t.Error("ExecutionContext() should return the constructor argument")
	}
}

type publisher struct {
	ContextOnly
}

func (p *publisher) UpdateExecutionContext() error {
	p.ExecutionContext().AddInstallDirs("published")
	return nil
}

func TestContextOnly(t *testing.T) {
	ec := execctx.New("/project")
	var s Step = &publisher{ContextOnly: NewContextOnly("Publisher", ec, "", nil)}

	if s.NeedsDependencyManagement() {
		t.Error("ContextOnly should disable dependency management")
	}
	if err := s.Run(context.Background()); err != nil {
		t.Errorf("Run() = %v", err)
	}
	if err := s.UpdateExecutionContext(); err != nil {
		t.Fatal(err)
	}
	if got := ec.InstallDirs(); !reflect.DeepEqual(got, []string{"published"}) {
		t.Errorf("InstallDirs() = %v", got)
	}
}

func TestDecodeConfig(t *testing.T) {
	type target struct {
		Version  int      `mapstructure:"version"`
		Verbose  bool     `mapstructure:"verbose"`
		Packages []string `mapstructure:"packages"`
	}

	t.Run("weak typing", func(t *testing.T) {
		var got target
		err := DecodeConfig(map[string]any{"version": "3", "verbose": "true", "packages": "a,b"}, &got)
		if err != nil {
			t.Fatalf("DecodeConfig() error = %v", err)
		}
		want := target{Version: 3, Verbose: true, Packages: []string{"a", "b"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("DecodeConfig() = %+v, want %+v", got, want)
		}
	})

	t.Run("nil config", func(t *testing.T) {
		got := target{Version: 7}
		if err := DecodeConfig(nil, &got); err != nil {
			t.Fatalf("DecodeConfig() error = %v", err)
		}
		if got.Version != 7 {
			t.Errorf("nil config should leave target untouched, got %+v", got)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		var got target
		err := DecodeConfig(map[string]any{"verison": 3}, &got)
		if !errors.Is(err, errors.ErrInvalidConfig) {
			t.Errorf("DecodeConfig() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("remain collects the rest", func(t *testing.T) {
		var got ScriptConfig
		err := DecodeConfig(map[string]any{"outputs": []any{"out.txt"}, "flavor": "mint"}, &got)
		if err != nil {
			t.Fatalf("DecodeConfig() error = %v", err)
		}
		if !reflect.DeepEqual(got.Outputs, []string{"out.txt"}) || got.Extra["flavor"] != "mint" {
			t.Errorf("DecodeConfig() = %+v", got)
		}
	})
}

func TestCommandFactory(t *testing.T) {
	requireShell(t)

	root := t.TempDir()
	ec := execctx.New(root)
	ec.AddEnvVars(map[string]string{"GREETING": "hello"})

	s, err := NewCommandFactory("Echo", process.Shell(`echo "$GREETING" > out.txt`))(ec, filepath.Join(root, "build", "Echo"), nil)
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	if s.Name() != "Echo" || s.NeedsDependencyManagement() || len(s.Inputs()) != 0 || len(s.Outputs()) != 0 {
		t.Errorf("unexpected command step contract: name=%q deps=%v", s.Name(), s.NeedsDependencyManagement())
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "out.txt"))
	if err != nil {
		t.Fatalf("command did not run in the project root: %v", err)
	}
	if strings.TrimSpace(string(data)) != "hello" {
		t.Errorf("out.txt = %q, want hello", data)
	}
}

func TestCommandFactory_Failure(t *testing.T) {
	requireShell(t)

	s, _ := NewCommandFactory("Fail", process.Shell("exit 2"))(execctx.New(t.TempDir()), "", nil)
	err := s.Run(context.Background())
	var exitErr *process.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Errorf("Run() error = %v, want exit status 2", err)
	}
}

func TestScriptFactory(t *testing.T) {
	requireShell(t)

	root := t.TempDir()
	script := filepath.Join(root, "gen.sh")
	body := "#!/bin/sh\necho \"$PYPELINE_STEP_CONFIG\" > \"$PYPELINE_OUTPUT_DIR/config.json\"\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		t.Fatal(err)
	}

	outputDir := filepath.Join(root, "build", "Gen")
	config := map[string]any{"inputs": []any{"src/main.c"}, "outputs": []any{"build/Gen/config.json"}, "flavor": "mint"}
	s, err := NewScriptFactory("Gen", script)(execctx.New(root), outputDir, config)
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}

	wantInputs := []string{script, filepath.Join(root, "src", "main.c")}
	if !reflect.DeepEqual(s.Inputs(), wantInputs) {
		t.Errorf("Inputs() = %v, want %v", s.Inputs(), wantInputs)
	}
	if !reflect.DeepEqual(s.Outputs(), []string{filepath.Join(outputDir, "config.json")}) {
		t.Errorf("Outputs() = %v", s.Outputs())
	}
	if !s.NeedsDependencyManagement() {
		t.Error("script with outputs should use dependency management")
	}
	if s.Config()["flavor"] != "mint" {
		t.Errorf("Config() = %v", s.Config())
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outputDir, "config.json"))
	if err != nil {
		t.Fatalf("script output missing: %v", err)
	}
	if !strings.Contains(string(data), `"flavor":"mint"`) {
		t.Errorf("config.json = %q", data)
	}
}

func TestScriptFactory_NoOutputsAlwaysRuns(t *testing.T) {
	s, err := NewScriptFactory("Lint", "/project/lint.sh")(execctx.New("/project"), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.NeedsDependencyManagement() {
		t.Error("script without outputs should always run")
	}
	if !reflect.DeepEqual(s.Inputs(), []string{"/project/lint.sh"}) {
		t.Errorf("Inputs() = %v", s.Inputs())
	}
}

func TestScriptFactory_BadConfig(t *testing.T) {
	_, err := NewScriptFactory("Gen", "gen.sh")(execctx.New("/project"), "", map[string]any{"outputs": map[string]any{"a": 1}})
	if err == nil {
		t.Error("factory should reject outputs that are not a list")
	}
}

func TestScriptCommand(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"build.sh", []string{"sh", "build.sh"}},
		{"setup.ps1", []string{"pwsh", "-NoProfile", "-File", "setup.ps1"}},
		{"tool", []string{"tool"}},
		{"gen.PY", []string{PythonExecutable(), "gen.PY"}},
	}
	for _, tt := range tests {
		if got := ScriptCommand(tt.path).Args; !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ScriptCommand(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
