package deps

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"
	"sort"

	"github.com/spf13/afero"

	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/logging"
)

// Runnable is what the executor needs from a step.
type Runnable interface {
	Name() string
	Inputs() []string
	Outputs() []string
	Config() map[string]any
	Run(ctx context.Context) error
}

// Outcome is the result of Execute.
type Outcome int

const (
	// Ran means the runnable was stale and ran successfully.
	Ran Outcome = iota
	// Skipped means the runnable was up to date and did not run.
	Skipped
)

func (o Outcome) String() string {
	if o == Skipped {
		return "skipped"
	}
	return "ran"
}

// Decision explains why a runnable is stale. Reason is empty when it is up
// to date.
type Decision struct {
	Stale  bool
	Reason string
}

// Option configures an Executor.
type Option func(*Executor)

// WithFs sets the filesystem for records, hashing and output checks.
func WithFs(fs afero.Fs) Option {
	return func(e *Executor) { e.fs = fs }
}

// WithForce makes every runnable stale.
func WithForce(force bool) Option {
	return func(e *Executor) { e.force = force }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Executor runs a runnable when its dependency record says it is stale and
// rewrites the record after each successful run.
type Executor struct {
	recordDir string
	fs        afero.Fs
	force     bool
	logger    *logging.Logger
}

// NewExecutor creates an Executor storing records in recordDir.
func NewExecutor(recordDir string, opts ...Option) *Executor {
	e := &Executor{
		recordDir: recordDir,
		fs:        afero.NewOsFs(),
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecordPath returns the record file of the runnable called name.
func (e *Executor) RecordPath(name string) string {
	return filepath.Join(e.recordDir, RecordFileName(name))
}

// Execute runs r if it is stale and records the successful run.
func (e *Executor) Execute(ctx context.Context, r Runnable) (Outcome, error) {
	decision, err := e.Check(r)
	if err != nil {
		return Ran, err
	}
	if !decision.Stale {
		e.logger.Info("step is up to date, skipping", "step", r.Name())
		return Skipped, nil
	}

	e.logger.Info("running step", "step", r.Name(), "reason", decision.Reason)
	if err := r.Run(ctx); err != nil {
		return Ran, err
	}

	rec, err := e.snapshot(r)
	if err != nil {
		return Ran, err
	}
	if err := WriteRecord(e.fs, e.RecordPath(r.Name()), rec); err != nil {
		return Ran, err
	}
	return Ran, nil
}

// Check compares r against its previous record.
func (e *Executor) Check(r Runnable) (Decision, error) {
	if e.force {
		return Decision{Stale: true, Reason: "forced"}, nil
	}

	prev, err := ReadRecord(e.fs, e.RecordPath(r.Name()))
	if err != nil {
		return Decision{}, err
	}
	if prev == nil {
		return Decision{Stale: true, Reason: "no previous record"}, nil
	}

	config, err := normalizeConfig(r.Config())
	if err != nil {
		return Decision{}, err
	}
	if !reflect.DeepEqual(config, normalizeEmpty(prev.Config)) {
		return Decision{Stale: true, Reason: "config changed"}, nil
	}

	inputs := sortedUnique(r.Inputs())
	if !slices.Equal(inputs, sortedKeys(prev.Inputs)) {
		return Decision{Stale: true, Reason: "inputs changed"}, nil
	}
	for _, path := range inputs {
		hash, err := HashPath(e.fs, path)
		if err != nil {
			return Decision{}, err
		}
		if hash != prev.Inputs[path] {
			return Decision{Stale: true, Reason: fmt.Sprintf("input %s changed", path)}, nil
		}
	}

	for _, path := range r.Outputs() {
		if _, err := e.fs.Stat(path); err != nil {
			return Decision{Stale: true, Reason: fmt.Sprintf("output %s is missing", path)}, nil
		}
	}

	return Decision{}, nil
}

// snapshot builds the record for r's current state.
func (e *Executor) snapshot(r Runnable) (*Record, error) {
	rec := &Record{
		Name:    r.Name(),
		Inputs:  make(map[string]string),
		Outputs: append([]string{}, r.Outputs()...),
	}
	for _, path := range sortedUnique(r.Inputs()) {
		hash, err := HashPath(e.fs, path)
		if err != nil {
			return nil, err
		}
		rec.Inputs[path] = hash
	}

	config, err := normalizeConfig(r.Config())
	if err != nil {
		return nil, err
	}
	rec.Config = config
	return rec, nil
}

// normalizeConfig gives config the shape it has after a JSON round trip so
// it compares equal to a record read from disk.
func normalizeConfig(config map[string]any) (map[string]any, error) {
	if len(config) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(config)
	if err != nil {
		return nil, errors.Wrap(err, "step config is not serializable")
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "step config is not serializable")
	}
	return out, nil
}

func normalizeEmpty(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}

func sortedUnique(paths []string) []string {
	out := append([]string{}, paths...)
	sort.Strings(out)
	return slices.Compact(out)
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
