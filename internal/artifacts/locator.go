// Package artifacts locates well-known files of a pypeline project.
package artifacts

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// DefaultConfigFile is the pipeline document looked up in the project root.
	DefaultConfigFile = "pypeline.yaml"
	// DefaultBuildDir is the build output directory inside the project root.
	DefaultBuildDir = "build"
)

// Locator resolves artifact paths relative to a project root.
type Locator struct {
	root       string
	configFile string
	buildDir   string
	fs         afero.Fs
}

// Option configures a Locator.
type Option func(*Locator)

// WithConfigFile overrides the pipeline document name.
func WithConfigFile(name string) Option {
	return func(l *Locator) {
		if name != "" {
			l.configFile = name
		}
	}
}

// WithBuildDir overrides the build directory name.
func WithBuildDir(name string) Option {
	return func(l *Locator) {
		if name != "" {
			l.buildDir = name
		}
	}
}

// WithFs sets the filesystem used when searching for artifacts.
func WithFs(fs afero.Fs) Option {
	return func(l *Locator) { l.fs = fs }
}

// NewLocator creates a Locator for the project rooted at root.
func NewLocator(root string, opts ...Option) *Locator {
	l := &Locator{
		root:       root,
		configFile: DefaultConfigFile,
		buildDir:   DefaultBuildDir,
		fs:         afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ProjectRootDir returns the project root.
func (l *Locator) ProjectRootDir() string { return l.root }

// ConfigFile returns the absolute path of the pipeline document.
func (l *Locator) ConfigFile() string { return l.resolve(l.configFile) }

// BuildDir returns the absolute path of the build directory.
func (l *Locator) BuildDir() string { return l.resolve(l.buildDir) }

func (l *Locator) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.root, name)
}

// LocateArtifact looks for name next to each of firstSearchPaths, walking up
// from each path's directory until the project root, and finally in the
// project root itself. The first existing match is returned.
func (l *Locator) LocateArtifact(name string, firstSearchPaths []string) (string, error) {
	for _, start := range firstSearchPaths {
		dir := start
		if info, err := l.fs.Stat(start); err != nil || !info.IsDir() {
			dir = filepath.Dir(start)
		}
		for l.within(dir) {
			if candidate := filepath.Join(dir, name); l.exists(candidate) {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if candidate := filepath.Join(l.root, name); l.exists(candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf("artifact %q not found in %s", name, l.root)
}

// within reports whether dir is the project root or below it.
func (l *Locator) within(dir string) bool {
	rel, err := filepath.Rel(l.root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (l *Locator) exists(path string) bool {
	_, err := l.fs.Stat(path)
	return err == nil
}
