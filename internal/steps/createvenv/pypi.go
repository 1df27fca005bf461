package createvenv

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/cuinixam/pypeline/internal/errors"
)

// PyPISource is a package index declared in a project file.
type PyPISource struct {
	Name string
	URL  string
}

// sourceFiles are searched in order for a package index.
var sourceFiles = []string{"pyproject.toml", "Pipfile"}

// FindPyPISource returns the first package index declared in the project's
// pyproject.toml or Pipfile.
func FindPyPISource(projectDir string) (*PyPISource, error) {
	for _, name := range sourceFiles {
		data, err := os.ReadFile(filepath.Join(projectDir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", name)
		}
		source, err := ParsePyPISource(data)
		if err != nil {
			return nil, errors.NewConfigError("cannot parse TOML", err).WithFile(name)
		}
		if source != nil {
			return source, nil
		}
	}
	return nil, nil
}

// ParsePyPISource finds a table with string name and url keys anywhere in
// the document. Poetry ([tool.poetry.source]), Pipfile ([[source]]) and uv
// ([[tool.uv.index]]) layouts all match.
func ParsePyPISource(data []byte) (*PyPISource, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if s, ok := findSource(doc); ok {
		return &s, nil
	}
	return nil, nil
}

func findSource(v any) (PyPISource, bool) {
	switch node := v.(type) {
	case map[string]any:
		name, _ := node["name"].(string)
		url, _ := node["url"].(string)
		if name != "" && url != "" {
			return PyPISource{Name: name, URL: url}, true
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := findSource(node[k]); ok {
				return s, true
			}
		}
	case []any:
		for _, item := range node {
			if s, ok := findSource(item); ok {
				return s, true
			}
		}
	case []map[string]any:
		for _, item := range node {
			if s, ok := findSource(item); ok {
				return s, true
			}
		}
	}
	return PyPISource{}, false
}

// pipConfigFile is pip's per-environment configuration file.
func pipConfigFile(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "pip.ini")
	}
	return filepath.Join(venvDir, "pip.conf")
}

// ConfigurePip points the environment's pip at indexURL.
func ConfigurePip(venvDir, indexURL string, verifySSL bool) error {
	content := "[global]\nindex-url = " + indexURL + "\n"
	if !verifySSL {
		content += "cert = false\n"
	}
	return os.WriteFile(pipConfigFile(venvDir), []byte(content), 0644)
}
