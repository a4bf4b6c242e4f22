package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"ProfileFinder/internal/bootstrap"
	"ProfileFinder/internal/config"
	"ProfileFinder/internal/finder"
	"ProfileFinder/internal/profile"
	"ProfileFinder/pkg/logger"
)

// Exit codes. Found and not-found both exit with ExitOK.
const (
	ExitOK    = 0
	ExitUsage = 1
)

// Run parses args, executes the selected workflow and writes the result to
// stdout. It returns the process exit code.
func Run(ctx context.Context, cmd Command, args []string, stdout, stderr io.Writer) int {
	opts, err := Parse(cmd, args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}
	if os.Getenv("FINDER_LOG_LEVEL") == "" {
		cfg.Logging.Level = "warn"
	}
	if len(cfg.Logging.OutputPaths) == 0 {
		cfg.Logging.OutputPaths = []string{"stderr"}
	}
	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}
	defer logger.Sync()

	components, err := bootstrap.Build(ctx, cfg, bootstrap.Overrides{
		ProbeTimeout:  opts.Timeout,
		SearchTimeout: opts.Timeout,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}
	defer components.Close()

	if err := Execute(ctx, components, opts, stdout); err != nil {
		logger.L().Error("lookup failed", slog.Any("error", err))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}
	return ExitOK
}

// Execute runs one workflow against already-built components.
func Execute(ctx context.Context, c *bootstrap.Components, opts Options, stdout io.Writer) error {
	switch opts.Workflow {
	case finder.WorkflowCheck:
		result := c.Checker.Check(ctx, opts.Username, opts.Timeout)
		out := CheckOutput{Username: opts.Username, URL: result.URL, Exists: result.Exists}
		if opts.JSON {
			return writeJSON(stdout, out)
		}
		renderCheck(stdout, out)
		return nil

	case finder.WorkflowPatterns:
		patterns := c.Finder.Candidates(opts.Name)
		out := PatternsOutput{Name: opts.Name, Employer: opts.Employer, Patterns: patterns, URLs: make([]string, 0, len(patterns))}
		for _, pattern := range patterns {
			out.URLs = append(out.URLs, profile.BuildURL(c.BaseURL, pattern))
		}
		if opts.JSON {
			return writeJSON(stdout, out)
		}
		renderPatterns(stdout, out)
		return nil

	case finder.WorkflowURL:
		out := SearchURLOutput{SearchURL: profile.SearchURL(opts.Name, opts.Employer), Name: opts.Name, Employer: opts.Employer}
		if opts.JSON {
			return writeJSON(stdout, out)
		}
		renderSearchURL(stdout, out)
		return nil
	}

	result, err := c.Runner.Run(ctx, opts.Workflow, opts.Name, opts.Employer)
	if err != nil {
		return err
	}
	if opts.JSON {
		return writeJSON(stdout, result)
	}
	switch opts.Workflow {
	case finder.WorkflowSearch:
		renderSearch(stdout, result)
	case finder.WorkflowAuto:
		renderAuto(stdout, result)
	default:
		renderPatternMatch(stdout, result)
	}
	return nil
}
