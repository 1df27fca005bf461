// Package buildtrigger provides the DetermineBuildTrigger step. It inspects
// the CI environment and publishes a BuildTrigger into the data registry so
// later steps can tell pull request builds from branch and local builds.
package buildtrigger

import (
	"fmt"
	"os"
	"strings"

	"github.com/cuinixam/pypeline/internal/dataregistry"
	"github.com/cuinixam/pypeline/internal/errors"
	"github.com/cuinixam/pypeline/internal/execctx"
	"github.com/cuinixam/pypeline/internal/step"
)

// Module and Name identify the step in pipeline documents.
const (
	Module = "pypeline.steps.determine_build_trigger"
	Name   = "DetermineBuildTrigger"
)

func init() {
	step.Register(Module, Name, New)
}

// Type is what started a build.
type Type int

const (
	// Local is a build started by a developer.
	Local Type = iota
	// PullRequest is a CI build of a change request.
	PullRequest
	// BranchUpdate is a CI build of a pushed branch.
	BranchUpdate
)

func (t Type) String() string {
	switch t {
	case PullRequest:
		return "pull_request"
	case BranchUpdate:
		return "branch_update"
	default:
		return "local"
	}
}

// BuildTrigger describes what started the build.
type BuildTrigger struct {
	Type Type
	// PullRequestID, TargetBranch and SourceBranch are set for pull requests.
	PullRequestID string
	TargetBranch  string
	SourceBranch  string
	// BranchName is set for branch updates.
	BranchName string
}

// IsPullRequest reports whether the build checks a change request.
func (b BuildTrigger) IsPullRequest() bool {
	return b.Type == PullRequest
}

// Validate checks that the fields required by the trigger type are set.
func (b BuildTrigger) Validate() error {
	var missing []string
	switch b.Type {
	case PullRequest:
		if b.PullRequestID == "" {
			missing = append(missing, "pull request ID")
		}
		if b.TargetBranch == "" {
			missing = append(missing, "target branch name")
		}
		if b.SourceBranch == "" {
			missing = append(missing, "source branch name")
		}
	case BranchUpdate:
		if b.BranchName == "" {
			missing = append(missing, "branch name")
		}
	}
	if len(missing) > 0 {
		issues := make([]string, len(missing))
		for i, m := range missing {
			issues[i] = fmt.Sprintf("%s is required for a %s build trigger", m, b.Type)
		}
		return errors.NewConfigError("invalid build trigger", nil).WithIssues(issues)
	}
	return nil
}

// Determine derives the trigger from CI variables read through getenv.
// Jenkins (JENKINS_URL) and GitHub Actions (GITHUB_ACTIONS) are recognised;
// anything else is a local build.
func Determine(getenv func(string) string) (BuildTrigger, error) {
	var trigger BuildTrigger
	switch {
	case getenv("JENKINS_URL") != "":
		if id := getenv("CHANGE_ID"); id != "" {
			trigger = BuildTrigger{
				Type:          PullRequest,
				PullRequestID: id,
				TargetBranch:  getenv("CHANGE_TARGET"),
				SourceBranch:  getenv("CHANGE_BRANCH"),
			}
		} else {
			trigger = BuildTrigger{Type: BranchUpdate, BranchName: getenv("BRANCH_NAME")}
		}
	case getenv("GITHUB_ACTIONS") == "true":
		if getenv("GITHUB_EVENT_NAME") == "pull_request" {
			trigger = BuildTrigger{
				Type:          PullRequest,
				PullRequestID: pullRequestNumber(getenv("GITHUB_REF")),
				TargetBranch:  getenv("GITHUB_BASE_REF"),
				SourceBranch:  getenv("GITHUB_HEAD_REF"),
			}
		} else {
			trigger = BuildTrigger{Type: BranchUpdate, BranchName: getenv("GITHUB_REF_NAME")}
		}
	default:
		trigger = BuildTrigger{Type: Local}
	}
	return trigger, trigger.Validate()
}

// pullRequestNumber extracts N from refs/pull/N/merge.
func pullRequestNumber(ref string) string {
	rest, ok := strings.CutPrefix(ref, "refs/pull/")
	if !ok {
		return ""
	}
	n, _, _ := strings.Cut(rest, "/")
	return n
}

// DetermineBuildTrigger publishes the BuildTrigger of the current build.
type DetermineBuildTrigger struct {
	step.ContextOnly
	getenv func(string) string
}

// New constructs the step reading the process environment.
func New(ec execctx.ExecutionContext, outputDir string, config map[string]any) (step.Step, error) {
	return &DetermineBuildTrigger{
		ContextOnly: step.NewContextOnly(Name, ec, outputDir, config),
		getenv:      os.Getenv,
	}, nil
}

// UpdateExecutionContext inserts the trigger into the data registry.
func (s *DetermineBuildTrigger) UpdateExecutionContext() error {
	trigger, err := Determine(s.getenv)
	if err != nil {
		return err
	}
	s.Logger().Info("determined build trigger", "type", trigger.Type.String())
	s.ExecutionContext().DataRegistry().Insert(trigger, Name)
	return nil
}

// FromRegistry returns the last published BuildTrigger.
func FromRegistry(r *dataregistry.Registry) (BuildTrigger, bool) {
	return dataregistry.FindLast[BuildTrigger](r)
}
