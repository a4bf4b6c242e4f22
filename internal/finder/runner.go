package finder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	xerrors "ProfileFinder/internal/errors"
	"ProfileFinder/internal/profile"
)

// Workflow selects how a lookup is performed.
type Workflow string

const (
	WorkflowProbe    Workflow = "probe"
	WorkflowAuto     Workflow = "auto"
	WorkflowSearch   Workflow = "search"
	WorkflowURL      Workflow = "url"
	WorkflowPatterns Workflow = "patterns"
	WorkflowCheck    Workflow = "check"
)

// Lookups lists the workflows that produce a lookup result for a (name, employer) pair.
var Lookups = []Workflow{WorkflowProbe, WorkflowAuto, WorkflowSearch, WorkflowURL}

// ParseWorkflow validates a workflow name. Empty selects probe.
func ParseWorkflow(raw string) (Workflow, error) {
	w := Workflow(strings.ToLower(strings.TrimSpace(raw)))
	switch w {
	case "":
		return WorkflowProbe, nil
	case WorkflowProbe, WorkflowAuto, WorkflowSearch, WorkflowURL, WorkflowPatterns, WorkflowCheck:
		return w, nil
	}
	return "", xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("unknown workflow %q", raw))
}

// IsLookup reports whether w returns a lookup result.
func (w Workflow) IsLookup() bool {
	for _, candidate := range Lookups {
		if w == candidate {
			return true
		}
	}
	return false
}

// Runner dispatches lookup workflows.
type Runner struct {
	finder   *Finder
	searcher Searcher
	auto     *Auto
}

// NewRunner wires the workflows. searcher may be nil, in which case the
// search workflow is unavailable and auto degrades to probing.
func NewRunner(finder *Finder, searcher Searcher) *Runner {
	return &Runner{finder: finder, searcher: searcher, auto: NewAuto(finder, searcher)}
}

// Run executes a lookup workflow. Only invalid input and cancellation are
// reported as errors; "not found" is a normal result.
func (r *Runner) Run(ctx context.Context, workflow Workflow, name, employer string) (profile.Result, error) {
	name = strings.TrimSpace(name)
	employer = strings.TrimSpace(employer)
	if name == "" {
		return profile.Result{}, xerrors.New(xerrors.CodeInvalidArgument, "name is required")
	}

	var result profile.Result
	switch workflow {
	case WorkflowProbe, "":
		result = r.finder.Find(ctx, name, employer)
	case WorkflowAuto:
		result = r.auto.Find(ctx, name, employer)
	case WorkflowSearch:
		if r.searcher == nil {
			return profile.Result{}, xerrors.New(xerrors.CodeInitializationFailure, "search workflow is not configured", xerrors.WithRetryable(false))
		}
		result = r.searcher.Search(ctx, name, employer)
	case WorkflowURL:
		return profile.NotFound(name, employer, "Manual search URL generated; no lookup performed."), nil
	default:
		return profile.Result{}, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("workflow %q does not produce a lookup result", workflow))
	}

	if err := ctx.Err(); err != nil && !result.Found {
		if errors.Is(err, context.DeadlineExceeded) {
			return result, xerrors.Wrap(xerrors.CodeTimeout, err, "lookup timed out")
		}
		return result, xerrors.Wrap(xerrors.CodeCanceled, err, "lookup canceled")
	}
	return result, nil
}
