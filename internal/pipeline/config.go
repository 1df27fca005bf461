package pipeline

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Group is a named partition of the pipeline. The flat shape has a single
// group with an empty Name.
type Group struct {
	Name  string
	Steps []StepDescriptor
}

// Config is the pipeline in either its flat or its grouped shape.
type Config struct {
	grouped bool
	groups  []Group
}

// NewFlat returns a flat pipeline.
func NewFlat(steps ...StepDescriptor) Config {
	return Config{groups: []Group{{Steps: append([]StepDescriptor(nil), steps...)}}}
}

// NewGrouped returns a grouped pipeline with groups in the given order.
func NewGrouped(groups ...Group) Config {
	cfg := Config{grouped: true, groups: make([]Group, len(groups))}
	for i, g := range groups {
		cfg.groups[i] = Group{Name: g.Name, Steps: append([]StepDescriptor(nil), g.Steps...)}
	}
	return cfg
}

// IsGrouped reports whether the pipeline uses named groups.
func (c Config) IsGrouped() bool {
	return c.grouped
}

// Groups returns the (group, steps) pairs in declaration order.
func (c Config) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		out[i] = Group{Name: g.Name, Steps: append([]StepDescriptor(nil), g.Steps...)}
	}
	return out
}

// Steps returns every descriptor in declaration order across groups.
func (c Config) Steps() []StepDescriptor {
	var out []StepDescriptor
	for _, g := range c.groups {
		out = append(out, g.Steps...)
	}
	return out
}

// Len returns the number of descriptors.
func (c Config) Len() int {
	n := 0
	for _, g := range c.groups {
		n += len(g.Steps)
	}
	return n
}

// Filter returns the pipeline restricted to the descriptors keep accepts,
// in the same shape. A grouped pipeline drops groups left without members;
// a flat pipeline stays flat even when nothing survives.
func (c Config) Filter(keep func(StepDescriptor) bool) Config {
	out := Config{grouped: c.grouped}
	for _, g := range c.groups {
		var steps []StepDescriptor
		for _, d := range g.Steps {
			if keep(d) {
				steps = append(steps, d)
			}
		}
		if c.grouped && len(steps) == 0 {
			continue
		}
		out.groups = append(out.groups, Group{Name: g.Name, Steps: steps})
	}
	if !c.grouped && len(out.groups) == 0 {
		out.groups = []Group{{}}
	}
	return out
}

// Validate returns every structural problem of the pipeline.
func (c Config) Validate() []string {
	var issues []string
	if c.Len() == 0 {
		issues = append(issues, "pipeline has no steps")
	}

	seen := make(map[string]string)
	for _, g := range c.groups {
		if c.grouped && g.Name == "" {
			issues = append(issues, "group name must not be empty")
		}
		if c.grouped && len(g.Steps) == 0 {
			issues = append(issues, fmt.Sprintf("group %s has no steps", g.Name))
		}
		for _, d := range g.Steps {
			issues = append(issues, d.issues()...)
			if d.Step == "" {
				continue
			}
			if where, dup := seen[d.Step]; dup {
				issues = append(issues, fmt.Sprintf("duplicate step name %s (first declared in %s)", d.Step, where))
				continue
			}
			seen[d.Step] = groupLabel(g.Name)
		}
	}
	return issues
}

func groupLabel(name string) string {
	if name == "" {
		return "pipeline"
	}
	return "group " + name
}

// UnmarshalYAML decodes either a sequence of descriptors or a mapping from
// group name to sequence, keeping the mapping's order.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var steps []StepDescriptor
		if err := value.Decode(&steps); err != nil {
			return err
		}
		*c = NewFlat(steps...)
		return nil

	case yaml.MappingNode:
		cfg := Config{grouped: true}
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, val := value.Content[i], value.Content[i+1]
			if val.Kind != yaml.SequenceNode && !isNull(val) {
				return fmt.Errorf("line %d: group %s must be a list of steps", val.Line, key.Value)
			}
			var steps []StepDescriptor
			if err := val.Decode(&steps); err != nil {
				return err
			}
			cfg.groups = append(cfg.groups, Group{Name: key.Value, Steps: steps})
		}
		*c = cfg
		return nil

	default:
		if isNull(value) {
			*c = Config{}
			return nil
		}
		return fmt.Errorf("line %d: pipeline must be a list of steps or a mapping of groups", value.Line)
	}
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

// MarshalYAML writes the pipeline back in its original shape.
func (c Config) MarshalYAML() (any, error) {
	if !c.grouped {
		return c.Steps(), nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, g := range c.groups {
		steps := &yaml.Node{}
		if err := steps.Encode(g.Steps); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: g.Name},
			steps,
		)
	}
	return node, nil
}

// MarshalYAML writes the command as a scalar or a sequence.
func (c Command) MarshalYAML() (any, error) {
	if len(c.Args) > 0 {
		return c.Args, nil
	}
	return c.Line, nil
}
