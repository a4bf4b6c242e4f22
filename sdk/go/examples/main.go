package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"ProfileFinder/sdk/go/finder"
)

// Submits one lookup to a running finderd and prints the outcome.
//
//	go run ./sdk/go/examples -addr http://localhost:8080 "John Doe" "Acme"
func main() {
	addr := flag.String("addr", "http://localhost:8080", "finderd base URL")
	workflow := flag.String("workflow", "auto", "lookup workflow")
	wait := flag.Duration("wait", 30*time.Second, "how long the server may block")
	flag.Parse()
	if flag.NArg() != 2 {
		log.Fatalf("usage: examples [flags] <name> <employer>")
	}

	client, err := finder.NewClient(*addr, nil)
	if err != nil {
		log.Fatal(err)
	}
	client.SetToken(os.Getenv("FINDER_API_TOKEN"))

	ctx, cancel := context.WithTimeout(context.Background(), *wait+10*time.Second)
	defer cancel()

	lookup, err := client.SubmitLookup(ctx, finder.LookupRequest{
		Name:     flag.Arg(0),
		Employer: flag.Arg(1),
		Workflow: *workflow,
	}, *wait)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("lookup %s status=%s\n", lookup.ID, lookup.Status)
	if !lookup.Done() || lookup.Result == nil {
		return
	}
	if url := lookup.Result.ProfileURL(); url != "" {
		fmt.Printf("found: %s\n", url)
		return
	}
	fmt.Printf("not found, tried %v\n", lookup.Result.TriedPatterns)
	fmt.Printf("manual search: %s\n", lookup.Result.SearchURL)
}
