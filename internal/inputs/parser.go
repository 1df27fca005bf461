// Package inputs turns name=value command line arguments into typed project
// inputs according to the project's input definitions.
package inputs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/pipeline"
)

// Parser validates and coerces inputs.
type Parser struct {
	defs map[string]pipeline.InputDefinition
}

// FromDefinitions creates a Parser for the given definitions.
func FromDefinitions(defs map[string]pipeline.InputDefinition) *Parser {
	return &Parser{defs: defs}
}

// Parse converts args of the form name=value into a map of typed values.
// Declared defaults fill in inputs that were not given. Every problem is
// collected into a single configuration error.
func (p *Parser) Parse(args []string) (map[string]any, error) {
	result := make(map[string]any)
	var issues []string

	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			issues = append(issues, fmt.Sprintf("invalid input %q: expected name=value", arg))
			continue
		}
		def, known := p.defs[name]
		if !known {
			issues = append(issues, fmt.Sprintf("unknown input %s", name))
			continue
		}
		value, err := coerce(def.Type, raw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("input %s: %v", name, err))
			continue
		}
		result[name] = value
	}

	names := make([]string, 0, len(p.defs))
	for name := range p.defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, given := result[name]; given {
			continue
		}
		def := p.defs[name]
		if def.Default != nil {
			value, err := coerce(def.Type, def.Default)
			if err != nil {
				issues = append(issues, fmt.Sprintf("input %s: invalid default: %v", name, err))
				continue
			}
			result[name] = value
			continue
		}
		if def.Required {
			issues = append(issues, fmt.Sprintf("missing required input %s", name))
		}
	}

	if len(issues) > 0 {
		return nil, errors.NewConfigError("invalid inputs", nil).WithIssues(issues)
	}
	return result, nil
}

// coerce converts value to the declared input type.
func coerce(typ string, value any) (any, error) {
	switch typ {
	case pipeline.InputTypeInteger:
		v, err := cast.ToIntE(value)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %v", value)
		}
		return v, nil
	case pipeline.InputTypeBoolean:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean, got %v", value)
		}
		return v, nil
	case "", pipeline.InputTypeString:
		return cast.ToStringE(value)
	default:
		return nil, fmt.Errorf("unsupported input type %s", typ)
	}
}
