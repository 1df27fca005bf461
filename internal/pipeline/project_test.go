package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cuinixam/pypeline/internal/errors"
)

func TestReadProjectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pypeline.yaml")
	content := `
inputs:
  version:
    type: integer
    default: 3
  verbose:
    type: boolean
    required: true
    description: Verbose output
pipeline:
  install:
    - step: CreateVEnv
      module: pypeline.steps.create_venv
  build:
    - step: Echo
      run: echo hi
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	project, err := ReadProjectFile(path)
	if err != nil {
		t.Fatalf("ReadProjectFile() error = %v", err)
	}

	if project.File != path {
		t.Errorf("File = %q, want %q", project.File, path)
	}
	if got := groupNames(project.Pipeline); strings.Join(got, ",") != "install,build" {
		t.Errorf("groups = %v", got)
	}
	if got := project.InputNames(); strings.Join(got, ",") != "verbose,version" {
		t.Errorf("InputNames() = %v", got)
	}
	if def := project.Inputs["version"]; def.Type != InputTypeInteger || def.Default != 3 {
		t.Errorf("version = %+v", def)
	}
	if def := project.Inputs["verbose"]; !def.Required || def.Description != "Verbose output" {
		t.Errorf("verbose = %+v", def)
	}
}

func TestReadProjectFile_Errors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantMessage string
	}{
		{"empty document", "", "project document is empty"},
		{"missing pipeline", "inputs: {}\n", "missing required key: pipeline"},
		{"malformed yaml", "pipeline: [\n", "cannot parse project document"},
		{"bad pipeline shape", "pipeline: 42\n", "invalid pipeline"},
		{"duplicate step", "pipeline:\n  - step: A\n    run: x\n  - step: A\n    run: y\n", "duplicate step name A"},
		{"bad input type", "inputs:\n  x:\n    type: float\npipeline:\n  - step: A\n", "input x: type must be one of"},
		{"unknown step key", "pipeline:\n  - step: A\n    modul: x\n", `unknown step key "modul"`},
		{"unknown grouped step key", "pipeline:\n  g:\n    - step: A\n      fil: a.sh\n", `unknown step key "fil"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pypeline.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := ReadProjectFile(path)
			if err == nil {
				t.Fatal("ReadProjectFile() succeeded, want error")
			}
			var cfgErr *errors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error type = %T, want *errors.ConfigError", err)
			}
			if cfgErr.File != path {
				t.Errorf("File = %q, want %q", cfgErr.File, path)
			}
			if !strings.Contains(err.Error(), tt.wantMessage) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.wantMessage)
			}
		})
	}
}

func TestParseProject_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		grouped bool
		steps   []string
	}{
		{"flat", "pipeline:\n  - step: A\n    run: echo a\n  - step: B\n", false, []string{"A", "B"}},
		{"grouped", "pipeline:\n  g1:\n    - step: A\n  g2:\n    - step: B\n      module: m\n", true, []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, err := ParseProject([]byte(tt.doc))
			if err != nil {
				t.Fatalf("ParseProject() error = %v", err)
			}
			if project.Pipeline.IsGrouped() != tt.grouped {
				t.Errorf("IsGrouped() = %v, want %v", project.Pipeline.IsGrouped(), tt.grouped)
			}
			if got := names(project.Pipeline.Steps()); strings.Join(got, ",") != strings.Join(tt.steps, ",") {
				t.Errorf("steps = %v, want %v", got, tt.steps)
			}
		})
	}
}

func TestReadProjectFile_Missing(t *testing.T) {
	_, err := ReadProjectFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, errors.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist in chain", err)
	}
}

func TestStepDescriptor_Source(t *testing.T) {
	tests := []struct {
		d    StepDescriptor
		want string
	}{
		{StepDescriptor{Step: "A", Run: &Command{Line: "x"}}, "run"},
		{StepDescriptor{Step: "A", Module: "m"}, "module m"},
		{StepDescriptor{Step: "A", File: "f.sh"}, "file f.sh"},
		{StepDescriptor{Step: "A"}, "registry"},
	}
	for _, tt := range tests {
		if got := tt.d.Source(); got != tt.want {
			t.Errorf("Source() = %q, want %q", got, tt.want)
		}
	}
}
