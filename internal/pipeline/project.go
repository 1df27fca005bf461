package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cuinixam/pypeline/internal/errors"
)

// Input types accepted in project input definitions.
const (
	InputTypeString  = "string"
	InputTypeInteger = "integer"
	InputTypeBoolean = "boolean"
)

// ValidInputTypes returns the list of valid input types.
func ValidInputTypes() []string {
	return []string{InputTypeString, InputTypeInteger, InputTypeBoolean}
}

// InputDefinition declares a project input that callers pass as name=value.
type InputDefinition struct {
	Type        string `yaml:"type,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ProjectConfig is the project document.
type ProjectConfig struct {
	Pipeline Config                     `yaml:"pipeline"`
	Inputs   map[string]InputDefinition `yaml:"inputs,omitempty"`

	// File is the path the document was read from, if any.
	File string `yaml:"-"`
}

// InputNames returns the declared input names sorted.
func (p *ProjectConfig) InputNames() []string {
	names := make([]string, 0, len(p.Inputs))
	for name := range p.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate returns every problem of the document.
func (p *ProjectConfig) Validate() []string {
	issues := p.Pipeline.Validate()
	for _, name := range p.InputNames() {
		def := p.Inputs[name]
		if def.Type != "" && !slices.Contains(ValidInputTypes(), def.Type) {
			issues = append(issues, fmt.Sprintf("input %s: type must be one of: %s (got: %s)",
				name, strings.Join(ValidInputTypes(), ", "), def.Type))
		}
	}
	return issues
}

// ParseProject decodes and validates a project document.
func ParseProject(data []byte) (*ProjectConfig, error) {
	var doc struct {
		Pipeline yaml.Node                  `yaml:"pipeline"`
		Inputs   map[string]InputDefinition `yaml:"inputs"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.NewConfigError("project document is empty", nil)
		}
		return nil, errors.NewConfigError("cannot parse project document", err)
	}
	if doc.Pipeline.Kind == 0 {
		return nil, errors.NewConfigError("missing required key: pipeline", nil)
	}

	project := &ProjectConfig{Inputs: doc.Inputs}
	if err := doc.Pipeline.Decode(&project.Pipeline); err != nil {
		return nil, errors.NewConfigError("invalid pipeline", err)
	}
	if issues := project.Validate(); len(issues) > 0 {
		return nil, errors.NewConfigError("invalid project document", nil).WithIssues(issues)
	}
	return project, nil
}

// ReadProjectFile reads, decodes and validates the project document at path.
func ReadProjectFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("cannot read project document", err).WithFile(path)
	}

	project, err := ParseProject(data)
	if err != nil {
		var cfgErr *errors.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, cfgErr.WithFile(path)
		}
		return nil, err
	}
	project.File = path
	return project, nil
}
