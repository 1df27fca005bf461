// Package scheduler selects the part of a pipeline a run executes.
package scheduler

import (
	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/loader"
	"github.com/cuinixam/pypeline/internal/pipeline"
)

// Scheduler filters a pipeline by step selection and resolves what remains.
// It holds no state between calls.
type Scheduler struct {
	config pipeline.Config
	loader *loader.Loader
}

// New creates a Scheduler for cfg resolving selected steps with l.
func New(cfg pipeline.Config, l *loader.Loader) *Scheduler {
	return &Scheduler{config: cfg, loader: l}
}

// Select returns the pipeline restricted to the selection, in the shape it
// was declared in.
//
// With no names every step is selected. With single set only the named steps
// are kept. Otherwise the pipeline is cut after the last named step, so every
// step declared before a target runs too. Names matching no step are
// reported together in one selection error.
func (s *Scheduler) Select(names []string, single bool) (pipeline.Config, error) {
	if len(names) == 0 {
		return s.config, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	last := -1
	for i, d := range s.config.Steps() {
		if wanted[d.Step] {
			last = i
		}
	}
	if unmatched := s.unmatched(names); len(unmatched) > 0 {
		return pipeline.Config{}, errors.NewSelectionError(unmatched)
	}

	if single {
		return s.config.Filter(func(d pipeline.StepDescriptor) bool {
			return wanted[d.Step]
		}), nil
	}

	index := 0
	return s.config.Filter(func(pipeline.StepDescriptor) bool {
		keep := index <= last
		index++
		return keep
	}), nil
}

// StepsToRun selects and resolves the steps of a run. Only selected
// descriptors reach the loader.
func (s *Scheduler) StepsToRun(names []string, single bool) ([]loader.StepReference, error) {
	selected, err := s.Select(names, single)
	if err != nil {
		return nil, err
	}
	return s.loader.Load(selected)
}

// unmatched returns the names matching no step, in the order given and
// without repeats.
func (s *Scheduler) unmatched(names []string) []string {
	declared := make(map[string]bool, s.config.Len())
	for _, d := range s.config.Steps() {
		declared[d.Step] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, name := range names {
		if !declared[name] && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	return out
}
