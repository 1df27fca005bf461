// Package deps decides whether a step must run by comparing its declared
// inputs, outputs and config against the dependency record persisted by the
// previous successful run.
//
// A record lives next to the step's artifacts as <name>.deps.json:
//
//	{
//	  "name": "CreateVEnv",
//	  "inputs": {"/project/pyproject.toml": "9f2c..."},
//	  "outputs": ["/project/.venv"],
//	  "config": {"package_manager": "uv>=0.6"}
//	}
//
// Input files are hashed with BLAKE3; directories are hashed recursively and
// a missing input hashes to the empty string.
package deps

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"github.com/cuinixam/pypeline/internal/errors"
)

// RecordSuffix is appended to the step name to form the record file name.
const RecordSuffix = ".deps.json"

// Record is the persisted state of a step's last successful run.
type Record struct {
	Name    string            `json:"name"`
	Inputs  map[string]string `json:"inputs"`
	Outputs []string          `json:"outputs"`
	Config  map[string]any    `json:"config,omitempty"`
}

// RecordFileName returns the record file name for the step called name.
func RecordFileName(name string) string {
	return name + RecordSuffix
}

// ReadRecord loads the record at path. A missing file returns (nil, nil).
func ReadRecord(fs afero.Fs, path string) (*Record, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read dependency record %s", path)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record only forces a rerun.
		return nil, nil
	}
	return &rec, nil
}

// WriteRecord stores rec at path, creating parent directories.
func WriteRecord(fs afero.Fs, path string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode dependency record")
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create dependency record directory")
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "failed to write dependency record %s", path)
	}
	return nil
}

// HashPath returns the hex BLAKE3 digest of a file, or of every file below a
// directory together with its relative path. A missing path hashes to "".
func HashPath(fs afero.Fs, path string) (string, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", errors.Wrapf(err, "failed to stat %s", path)
	}

	hasher := blake3.New()
	if !info.IsDir() {
		if err := hashFile(fs, path, hasher); err != nil {
			return "", err
		}
		return hex.EncodeToString(hasher.Sum(nil)), nil
	}

	var files []string
	err = afero.Walk(fs, path, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !fi.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to walk %s", path)
	}
	sort.Strings(files)

	for _, f := range files {
		rel, err := filepath.Rel(path, f)
		if err != nil {
			return "", err
		}
		_, _ = hasher.Write([]byte(filepath.ToSlash(rel)))
		_, _ = hasher.Write([]byte{0})
		if err := hashFile(fs, f, hasher); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func hashFile(fs afero.Fs, path string, w io.Writer) error {
	f, err := fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrapf(err, "failed to hash %s", path)
	}
	return nil
}
