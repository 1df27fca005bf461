package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Command is an inline command. A YAML scalar is a shell line; a YAML
// sequence is an argument vector executed without a shell.
type Command struct {
	Line string
	Args []string
}

// UnmarshalYAML accepts both the scalar and the sequence form.
func (c *Command) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		c.Line = value.Value
		c.Args = nil
		return nil
	case yaml.SequenceNode:
		var args []string
		if err := value.Decode(&args); err != nil {
			return fmt.Errorf("line %d: run: %w", value.Line, err)
		}
		c.Line = ""
		c.Args = args
		return nil
	default:
		return fmt.Errorf("line %d: run must be a string or a list of strings", value.Line)
	}
}

// IsZero reports whether the command is empty.
func (c Command) IsZero() bool {
	return c.Line == "" && len(c.Args) == 0
}

// StepDescriptor is one entry of the pipeline.
type StepDescriptor struct {
	// Step is the step name, unique across the whole pipeline.
	Step string `yaml:"step"`
	// Module names the registered module providing Step.
	Module string `yaml:"module,omitempty"`
	// File is a script, relative to the project root, run as Step.
	File string `yaml:"file,omitempty"`
	// Run is an inline command; it cannot be combined with Module or File.
	Run *Command `yaml:"run,omitempty"`
	// Description is shown when listing the pipeline.
	Description string `yaml:"description,omitempty"`
	// Config is free-form step configuration.
	Config map[string]any `yaml:"config,omitempty"`
}

// descriptorKeys are the keys a step entry may carry.
var descriptorKeys = []string{"step", "module", "file", "run", "description", "config"}

// UnmarshalYAML decodes a step entry. Keys other than descriptorKeys are an error.
func (d *StepDescriptor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: step entry must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i]
		if !slices.Contains(descriptorKeys, key.Value) {
			return fmt.Errorf("line %d: unknown step key %q (valid keys: %s)",
				key.Line, key.Value, strings.Join(descriptorKeys, ", "))
		}
	}
	type plain StepDescriptor
	return value.Decode((*plain)(d))
}

// Source returns a short description of where the step comes from.
func (d StepDescriptor) Source() string {
	switch {
	case d.Run != nil:
		return "run"
	case d.Module != "":
		return "module " + d.Module
	case d.File != "":
		return "file " + d.File
	default:
		return "registry"
	}
}

// issues returns the structural problems of a single descriptor.
func (d StepDescriptor) issues() []string {
	var out []string
	label := d.Step
	if label == "" {
		label = "<unnamed>"
	}

	if d.Step == "" {
		out = append(out, "step name is required")
	}
	if d.Run != nil && (d.Module != "" || d.File != "") {
		out = append(out, fmt.Sprintf("step %s: run cannot be combined with module or file", label))
	}
	if d.Module != "" && d.File != "" {
		out = append(out, fmt.Sprintf("step %s: module and file are mutually exclusive", label))
	}
	if d.Run != nil && d.Run.IsZero() {
		out = append(out, fmt.Sprintf("step %s: run command is empty", label))
	}
	return out
}
