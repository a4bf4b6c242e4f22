package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ProfileFinder/internal/cli"
	"ProfileFinder/internal/finder"
)

const examples = `  linkedin-search "John Smith" "Acme Corp"
  linkedin-search -n "Jane Doe" -e "Globex" --json --timeout 15`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, cli.Command{
		Name:            "linkedin-search",
		Description:     "Find a LinkedIn profile URL by scraping public search engine results.",
		Examples:        examples,
		DefaultTimeout:  10,
		DefaultWorkflow: finder.WorkflowSearch,
	}, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
