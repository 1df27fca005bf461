package execctx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cuinixam/pypeline/internal/artifacts"
	"github.com/cuinixam/pypeline/internal/dataregistry"
	"github.com/cuinixam/pypeline/internal/process"
)

// buildContext embeds Context the way project specific contexts do.
type buildContext struct {
	*Context
	Variant string
}

func TestContext_InstallDirs(t *testing.T) {
	c := New("/project")
	c.AddInstallDirs("dir1", "dir2")
	c.AddInstallDirs("dir1")

	got := c.InstallDirs()
	want := []string{"dir1", "dir2", "dir1"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("InstallDirs() = %v, want %v", got, want)
	}

	got[0] = "mutated"
	if c.InstallDirs()[0] != "dir1" {
		t.Error("InstallDirs() must return a copy")
	}
}

func TestContext_EnvVars(t *testing.T) {
	c := New("/project")
	c.AddEnvVars(map[string]string{"A": "1", "B": "2"})
	c.AddEnvVars(map[string]string{"B": "3"})

	env := c.EnvVars()
	if env["A"] != "1" || env["B"] != "3" {
		t.Errorf("EnvVars() = %v", env)
	}

	env["A"] = "mutated"
	if c.EnvVars()["A"] != "1" {
		t.Error("EnvVars() must return a copy")
	}
}

func TestContext_CreateProcessExecutor(t *testing.T) {
	root := t.TempDir()
	c := New(root, WithEnviron(func() []string {
		return []string{"PATH=/usr/bin", "MODE=base"}
	}))
	c.AddInstallDirs("dir1", filepath.Join(root, "abs"))
	c.AddEnvVars(map[string]string{"MODE": "ci"})

	exec := c.CreateProcessExecutor(process.Shell("some_command"), "")

	if exec.Dir() != root {
		t.Errorf("Dir() = %q, want %q", exec.Dir(), root)
	}
	path, _ := process.LookupEnv(exec.Env(), "PATH")
	wantPath := strings.Join([]string{
		filepath.Join(root, "dir1"),
		filepath.Join(root, "abs"),
		"/usr/bin",
	}, string(os.PathListSeparator))
	if path != wantPath {
		t.Errorf("PATH = %q, want %q", path, wantPath)
	}
	if mode, _ := process.LookupEnv(exec.Env(), "MODE"); mode != "ci" {
		t.Errorf("MODE = %q, want ci", mode)
	}

	sub := c.CreateProcessExecutor(process.Shell("x"), "sub")
	if sub.Dir() != filepath.Join(root, "sub") {
		t.Errorf("relative cwd = %q", sub.Dir())
	}
}

func TestContext_Embedding(t *testing.T) {
	var ec ExecutionContext = &buildContext{Context: New("/project"), Variant: "Debug"}

	ec.DataRegistry().Insert("value", "Producer")
	if got := dataregistry.FindData[string](ec.DataRegistry()); len(got) != 1 {
		t.Errorf("FindData = %v", got)
	}

	bc, ok := ec.(*buildContext)
	if !ok || bc.Variant != "Debug" {
		t.Fatalf("type assertion to custom context failed: %T", ec)
	}
}

func TestContext_CreateArtifactsLocator(t *testing.T) {
	c := New("/project", WithArtifacts(artifacts.WithBuildDir("out")))
	l := c.CreateArtifactsLocator()

	if l.ProjectRootDir() != "/project" {
		t.Errorf("ProjectRootDir() = %q", l.ProjectRootDir())
	}
	if l.BuildDir() != filepath.Join("/project", "out") {
		t.Errorf("BuildDir() = %q", l.BuildDir())
	}
}

func TestContext_Defaults(t *testing.T) {
	c := New("/project", WithInputs(map[string]any{"version": 3}), WithLogger(nil))
	if c.Logger() == nil {
		t.Error("Logger() should never be nil")
	}
	if c.Inputs()["version"] != 3 {
		t.Errorf("Inputs() = %v", c.Inputs())
	}
	if c.DataRegistry() == nil || c.DataRegistry().Len() != 0 {
		t.Error("DataRegistry() should start empty")
	}
}
