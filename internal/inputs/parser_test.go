package inputs

import (
	"reflect"
	"strings"
	"testing"

	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/pipeline"
)

func basicDefinitions() map[string]pipeline.InputDefinition {
	return map[string]pipeline.InputDefinition{
		"username": {Type: "string", Required: true, Description: "User name"},
		"retry":    {Type: "integer", Default: 3, Description: "Retry count"},
		"verbose":  {Type: "boolean", Default: false, Description: "Enable verbose mode"},
	}
}

func TestParser_Valid(t *testing.T) {
	tests := []struct {
		args []string
		want map[string]any
	}{
		{[]string{"username=john"}, map[string]any{"username": "john", "retry": 3, "verbose": false}},
		{[]string{"username=alice", "retry=5"}, map[string]any{"username": "alice", "retry": 5, "verbose": false}},
		{[]string{"username=bob", "verbose=true"}, map[string]any{"username": "bob", "retry": 3, "verbose": true}},
		{[]string{"username=eve", "verbose=0"}, map[string]any{"username": "eve", "retry": 3, "verbose": false}},
		{[]string{"username=a=b"}, map[string]any{"username": "a=b", "retry": 3, "verbose": false}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := FromDefinitions(basicDefinitions()).Parse(tt.args)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParser_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantText string
	}{
		{"missing required", nil, "missing required input username"},
		{"missing value", []string{"--username"}, `invalid input "--username"`},
		{"invalid integer", []string{"username=x", "retry=invalid"}, "input retry: expected an integer"},
		{"invalid boolean", []string{"username=x", "verbose=notabool"}, "input verbose: expected a boolean"},
		{"unknown input", []string{"username=x", "color=red"}, "unknown input color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDefinitions(basicDefinitions()).Parse(tt.args)
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if !errors.Is(err, errors.ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.wantText)
			}
		})
	}
}

func TestParser_ReportsEveryIssue(t *testing.T) {
	_, err := FromDefinitions(basicDefinitions()).Parse([]string{"retry=x", "verbose=maybe"})

	var cfgErr *errors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *errors.ConfigError", err)
	}
	if len(cfgErr.Issues) != 3 {
		t.Errorf("Issues = %q, want 3 entries", cfgErr.Issues)
	}
}

func TestParser_NoDefinitions(t *testing.T) {
	got, err := FromDefinitions(nil).Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Parse() = %v, want empty", got)
	}
}

func TestParser_DefaultCoercion(t *testing.T) {
	defs := map[string]pipeline.InputDefinition{
		"jobs":  {Type: "integer", Default: "4"},
		"label": {Default: 7},
		"bad":   {Type: "boolean", Default: "sometimes"},
	}
	_, err := FromDefinitions(defs).Parse(nil)
	if err == nil || !strings.Contains(err.Error(), "input bad: invalid default") {
		t.Fatalf("Parse() error = %v, want invalid default for bad", err)
	}

	delete(defs, "bad")
	got, err := FromDefinitions(defs).Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got["jobs"] != 4 || got["label"] != "7" {
		t.Errorf("Parse() = %v", got)
	}
}
