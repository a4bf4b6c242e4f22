// Package cli holds the argument parsing, workflow dispatch and output
// rendering shared by the linkedin-finder and linkedin-search commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"ProfileFinder/internal/finder"
)

// ErrUsage reports missing or invalid command-line arguments.
var ErrUsage = errors.New("usage")

// Command describes one executable.
type Command struct {
	Name        string
	Description string
	Examples    string
	// DefaultTimeout is the --timeout default, in seconds.
	DefaultTimeout  int
	DefaultWorkflow finder.Workflow
	// Workflows exposes --workflow and --username.
	Workflows bool
}

// Options is the parsed command line.
type Options struct {
	Name     string
	Employer string
	JSON     bool
	Timeout  time.Duration
	Workflow finder.Workflow
	Username string
}

// Parse reads args (without the program name). Positional name and employer
// win over -n/--name and -e/--employer. It returns pflag.ErrHelp for -h and
// an error wrapping ErrUsage when required arguments are missing.
func Parse(cmd Command, args []string, stderr io.Writer) (Options, error) {
	fs := pflag.NewFlagSet(cmd.Name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	var (
		opts     Options
		name     string
		employer string
		timeout  int
		workflow string
	)
	fs.StringVarP(&name, "name", "n", "", "Full name (alternative syntax)")
	fs.StringVarP(&employer, "employer", "e", "", "Employer (alternative syntax)")
	fs.BoolVar(&opts.JSON, "json", false, "Output as JSON")
	fs.IntVar(&timeout, "timeout", cmd.DefaultTimeout, "Request timeout in seconds")
	if cmd.Workflows {
		fs.StringVar(&workflow, "workflow", string(cmd.DefaultWorkflow), "Workflow: probe, auto, patterns, search, url, check")
		fs.StringVar(&opts.Username, "username", "", "Username to check (check workflow)")
	}
	fs.Usage = func() { printUsage(cmd, fs, stderr) }

	// pflag prints its own parse errors and the usage text.
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Options{}, err
		}
		return Options{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	fail := func(format string, a ...any) error {
		msg := fmt.Sprintf(format, a...)
		fmt.Fprintf(stderr, "error: %s\n", msg)
		fs.Usage()
		return fmt.Errorf("%w: %s", ErrUsage, msg)
	}

	positional := fs.Args()
	if len(positional) > 2 {
		return Options{}, fail("unexpected arguments: %s", strings.Join(positional[2:], " "))
	}
	opts.Name = strings.TrimSpace(firstNonEmpty(at(positional, 0), name))
	opts.Employer = strings.TrimSpace(firstNonEmpty(at(positional, 1), employer))
	if timeout <= 0 {
		return Options{}, fail("--timeout must be positive")
	}
	opts.Timeout = time.Duration(timeout) * time.Second

	opts.Workflow = cmd.DefaultWorkflow
	if cmd.Workflows {
		parsed, err := finder.ParseWorkflow(workflow)
		if err != nil {
			return Options{}, fail("%v", err)
		}
		opts.Workflow = parsed
	}

	if opts.Workflow == finder.WorkflowCheck {
		opts.Username = strings.TrimSpace(opts.Username)
		if opts.Username == "" {
			return Options{}, fail("--username required for 'check' workflow")
		}
		return opts, nil
	}
	if opts.Name == "" || opts.Employer == "" {
		return Options{}, fail("name and employer are required")
	}
	return opts, nil
}

func printUsage(cmd Command, fs *pflag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "usage: %s [flags] [name] [employer]\n\n", cmd.Name)
	if cmd.Description != "" {
		fmt.Fprintf(w, "%s\n\n", cmd.Description)
	}
	fmt.Fprintln(w, "flags:")
	fmt.Fprint(w, fs.FlagUsages())
	if cmd.Examples != "" {
		fmt.Fprintf(w, "\nexamples:\n%s\n", cmd.Examples)
	}
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
