package westinstall

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cuinixam/pypeline/internal/execctx"
)

// fakeWest installs a west executable that appends "<cwd> <args>" to a log.
func fakeWest(t *testing.T, ec *execctx.Context) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake west requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	bin := t.TempDir()
	log := filepath.Join(t.TempDir(), "west.log")
	script := "#!/bin/sh\necho \"$(pwd) $*\" >> " + log + "\n"
	if err := os.WriteFile(filepath.Join(bin, "west"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	ec.AddInstallDirs(bin)
	return log
}

func TestWestInstall_Run(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "build"), 0755); err != nil {
		t.Fatal(err)
	}
	ec := execctx.New(root)
	log := fakeWest(t, ec)

	s, err := New(ec, filepath.Join(root, "build", "group_name"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	content, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	want := []string{
		root + " init -l --mf " + root + "/west.yaml " + root + "/build/west",
		root + "/build update",
	}
	if len(lines) != len(want) {
		t.Fatalf("west calls = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWestInstall_Config(t *testing.T) {
	root := t.TempDir()
	s, err := New(execctx.New(root), "", map[string]any{"manifest_file": "manifests/west.yml"})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Inputs(); got[0] != filepath.Join(root, "manifests", "west.yml") {
		t.Errorf("Inputs() = %v", got)
	}
	if got := s.Outputs(); got[0] != filepath.Join(root, "build", "west") {
		t.Errorf("Outputs() = %v", got)
	}

	if _, err := New(execctx.New(root), "", map[string]any{"unknown": true}); err == nil {
		t.Error("expected an error for an unknown config key")
	}
}
