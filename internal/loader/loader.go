// Package loader resolves the step descriptors of a pipeline into factories.
//
// Resolution only looks at the descriptors it is handed. Callers filter the
// pipeline first (see package scheduler), so a descriptor naming a module or
// file that does not exist fails only when that step is actually selected.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/pipeline"
	"github.com/cuinixam/pypeline/internal/process"
	"github.com/cuinixam/pypeline/internal/step"
)

// StepReference is the resolved, constructible form of a descriptor.
type StepReference struct {
	GroupName string
	Name      string
	Factory   step.Factory
	Config    map[string]any
}

// OutputName is the directory name under the build directory that holds
// the step's artifacts: the group name when set, else the step name.
func (r StepReference) OutputName() string {
	if r.GroupName != "" {
		return r.GroupName
	}
	return r.Name
}

// Loader resolves descriptors against a registry and a project root.
type Loader struct {
	registry    *step.Registry
	projectRoot string
}

// New creates a Loader. File steps resolve relative to projectRoot.
func New(registry *step.Registry, projectRoot string) *Loader {
	if registry == nil {
		registry = step.Default
	}
	return &Loader{registry: registry, projectRoot: projectRoot}
}

// Load resolves every descriptor of cfg in declaration order. The first
// failure is returned as a resolution error naming the step.
func (l *Loader) Load(cfg pipeline.Config) ([]StepReference, error) {
	var refs []StepReference
	for _, group := range cfg.Groups() {
		for _, d := range group.Steps {
			factory, err := l.resolve(d)
			if err != nil {
				return nil, err
			}
			refs = append(refs, StepReference{
				GroupName: group.Name,
				Name:      d.Step,
				Factory:   factory,
				Config:    d.Config,
			})
		}
	}
	return refs, nil
}

func (l *Loader) resolve(d pipeline.StepDescriptor) (step.Factory, error) {
	switch {
	case d.Run != nil:
		if d.Module != "" || d.File != "" {
			return nil, errors.NewResolutionError(d.Step, "run cannot be combined with module or file", nil)
		}
		return step.NewCommandFactory(d.Step, process.Command{Line: d.Run.Line, Args: d.Run.Args}), nil

	case d.Module != "":
		factory, err := l.registry.Lookup(d.Module, d.Step)
		if err != nil {
			return nil, errors.NewResolutionError(d.Step, "cannot load step from module", err)
		}
		return factory, nil

	case d.File != "":
		path := d.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.projectRoot, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.NewResolutionError(d.Step, fmt.Sprintf("cannot load step file %s", d.File), err)
		}
		if info.IsDir() {
			return nil, errors.NewResolutionError(d.Step, fmt.Sprintf("step file %s is a directory", d.File), nil)
		}
		return step.NewScriptFactory(d.Step, path), nil

	default:
		factory, _, err := l.registry.Find(d.Step)
		if err != nil {
			return nil, errors.NewResolutionError(d.Step, "cannot resolve step", err)
		}
		return factory, nil
	}
}
