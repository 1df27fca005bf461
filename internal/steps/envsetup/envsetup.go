// Package envsetup provides the GenerateEnvSetupScript step. It writes shell
// scripts that reproduce the pipeline's environment (install directories on
// PATH plus the .env variables) for use outside pypeline.
package envsetup

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/step"
	"github.com/cuinixam/pypeline/internal/steps/loadenv"
)

// Module and Name identify the step in pipeline documents.
const (
	Module = "pypeline.steps.env_setup_script"
	Name   = "GenerateEnvSetupScript"
)

// Script file names written to the output directory.
const (
	ShellScript      = "env_setup.sh"
	BatchScript      = "env_setup.bat"
	PowerShellScript = "env_setup.ps1"
)

func init() {
	step.Register(Module, Name, New)
}

var scripts = map[string]*template.Template{
	ShellScript: template.Must(template.New(ShellScript).Funcs(funcs).Parse(`#!/bin/sh
{{range .Vars}}export {{.Key}}={{sq .Value}}
{{end}}{{if .Dirs}}export PATH="{{join .Dirs ":"}}:$PATH"
{{end}}`)),
	BatchScript: template.Must(template.New(BatchScript).Funcs(funcs).Parse(`@echo off
{{range .Vars}}set "{{.Key}}={{.Value}}"
{{end}}{{if .Dirs}}set "PATH={{join .Dirs ";"}};%PATH%"
{{end}}`)),
	PowerShellScript: template.Must(template.New(PowerShellScript).Funcs(funcs).Parse(`{{range .Vars}}$env:{{.Key}}={{ps .Value}}
{{end}}{{if .Dirs}}$env:PATH="{{join .Dirs ";"}};" + $env:PATH
{{end}}`)),
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"sq": func(s string) string {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	},
	"ps": func(s string) string {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	},
}

type variable struct {
	Key   string
	Value string
}

type scriptData struct {
	Vars []variable
	Dirs []string
}

// GenerateEnvSetupScript writes env_setup.sh, env_setup.bat and
// env_setup.ps1 into its output directory.
type GenerateEnvSetupScript struct {
	step.Base
}

// New constructs the step.
func New(ec execctx.ExecutionContext, outputDir string, config map[string]any) (step.Step, error) {
	return &GenerateEnvSetupScript{Base: step.NewBase(Name, ec, outputDir, config)}, nil
}

func (s *GenerateEnvSetupScript) Inputs() []string {
	return []string{filepath.Join(s.ProjectRootDir(), loadenv.FileName)}
}

func (s *GenerateEnvSetupScript) Outputs() []string {
	names := []string{ShellScript, BatchScript, PowerShellScript}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = filepath.Join(s.OutputDir(), name)
	}
	return out
}

// Config makes the install directories and context variables part of the
// cache key; they are not files.
func (s *GenerateEnvSetupScript) Config() map[string]any {
	return map[string]any{
		"install_dirs": s.installDirs(),
		"env_vars":     s.ExecutionContext().EnvVars(),
	}
}

func (s *GenerateEnvSetupScript) Run(context.Context) error {
	vars := s.ExecutionContext().EnvVars()
	dotenv := filepath.Join(s.ProjectRootDir(), loadenv.FileName)
	if _, err := os.Stat(dotenv); err == nil {
		fromFile, err := loadenv.ReadFile(dotenv)
		if err != nil {
			return err
		}
		for k, v := range fromFile {
			vars[k] = v
		}
	}

	data := scriptData{Dirs: s.installDirs()}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		data.Vars = append(data.Vars, variable{Key: k, Value: vars[k]})
	}

	if err := os.MkdirAll(s.OutputDir(), 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	for name, tmpl := range scripts {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return errors.Wrapf(err, "failed to render %s", name)
		}
		path := filepath.Join(s.OutputDir(), name)
		if err := os.WriteFile(path, buf.Bytes(), 0755); err != nil {
			return errors.Wrapf(err, "failed to write %s", name)
		}
		s.Logger().Info("wrote environment setup script", "path", path)
	}
	return nil
}

// installDirs returns the context's install directories made absolute.
func (s *GenerateEnvSetupScript) installDirs() []string {
	dirs := s.ExecutionContext().InstallDirs()
	for i, dir := range dirs {
		if !filepath.IsAbs(dir) {
			dirs[i] = filepath.Join(s.ProjectRootDir(), dir)
		}
	}
	return dirs
}
