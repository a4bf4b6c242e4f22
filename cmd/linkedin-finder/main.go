package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ProfileFinder/internal/cli"
	"ProfileFinder/internal/finder"
)

const examples = `  linkedin-finder "John Smith" "Acme Corp"
  linkedin-finder --name "Jane Doe" --employer "Globex" --json
  linkedin-finder --workflow auto "Jane Doe" "Globex"
  linkedin-finder --workflow patterns "John Q Public" "Acme"
  linkedin-finder --workflow check --username johnsmith`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, cli.Command{
		Name:            "linkedin-finder",
		Description:     "Find a LinkedIn profile by probing username patterns derived from the name.",
		Examples:        examples,
		DefaultTimeout:  5,
		DefaultWorkflow: finder.WorkflowProbe,
		Workflows:       true,
	}, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
