package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"ProfileFinder/internal/bootstrap"
	"ProfileFinder/internal/config"
	"ProfileFinder/internal/finder"
	"ProfileFinder/internal/search"
)

var finderCmd = Command{Name: "linkedin-finder", DefaultTimeout: 5, DefaultWorkflow: finder.WorkflowProbe, Workflows: true}

var searchCmd = Command{Name: "linkedin-search", DefaultTimeout: 10, DefaultWorkflow: finder.WorkflowSearch}

func TestParsePositionalAndFlags(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := Parse(finderCmd, []string{"John Doe", "Acme"}, &stderr)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Name != "John Doe" || opts.Employer != "Acme" || opts.Timeout != 5*time.Second || opts.Workflow != finder.WorkflowProbe {
		t.Fatalf("unexpected options: %+v", opts)
	}

	opts, err = Parse(searchCmd, []string{"-n", "Jane Smith", "--employer", "Globex", "--json", "--timeout", "3"}, &stderr)
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if opts.Name != "Jane Smith" || opts.Employer != "Globex" || !opts.JSON || opts.Timeout != 3*time.Second {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.Workflow != finder.WorkflowSearch {
		t.Fatalf("expected search workflow, got %q", opts.Workflow)
	}
}

func TestParsePositionalWinsOverFlags(t *testing.T) {
	opts, err := Parse(finderCmd, []string{"--name", "Flag Name", "Positional Name", "Acme"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Name != "Positional Name" {
		t.Fatalf("expected positional name, got %q", opts.Name)
	}
}

func TestParseMissingArguments(t *testing.T) {
	cases := [][]string{
		{},
		{"John Doe"},
		{"--employer", "Acme"},
		{"John Doe", "Acme", "extra"},
		{"John Doe", "Acme", "--timeout", "0"},
	}
	for _, args := range cases {
		var stderr bytes.Buffer
		if _, err := Parse(finderCmd, args, &stderr); !errors.Is(err, ErrUsage) {
			t.Fatalf("args %q: expected usage error, got %v", args, err)
		}
		if !strings.Contains(stderr.String(), "usage: linkedin-finder") {
			t.Fatalf("args %q: usage not printed: %q", args, stderr.String())
		}
	}
}

func TestParseWorkflowFlags(t *testing.T) {
	opts, err := Parse(finderCmd, []string{"--workflow", "check", "--username", "johndoe"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse check: %v", err)
	}
	if opts.Workflow != finder.WorkflowCheck || opts.Username != "johndoe" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	if _, err := Parse(finderCmd, []string{"--workflow", "check"}, &bytes.Buffer{}); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error without --username, got %v", err)
	}
	if _, err := Parse(finderCmd, []string{"--workflow", "teleport", "A B", "C"}, &bytes.Buffer{}); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error for unknown workflow, got %v", err)
	}
	if _, err := Parse(searchCmd, []string{"--workflow", "auto", "A B", "C"}, &bytes.Buffer{}); !errors.Is(err, ErrUsage) {
		t.Fatalf("linkedin-search must not accept --workflow, got %v", err)
	}
}

func TestParseHelp(t *testing.T) {
	if _, err := Parse(finderCmd, []string{"--help"}, &bytes.Buffer{}); !errors.Is(err, pflag.ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
}

func TestRunExitCodes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := Run(context.Background(), finderCmd, nil, &stdout, &stderr); code != ExitUsage {
		t.Fatalf("expected exit 1 on missing args, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("nothing should be printed to stdout: %q", stdout.String())
	}
	if code := Run(context.Background(), finderCmd, []string{"-h"}, &stdout, &stderr); code != ExitOK {
		t.Fatalf("expected exit 0 on help, got %d", code)
	}
}

// newComponents builds components whose probe and search traffic goes to
// local test servers.
func newComponents(t *testing.T, existing string, searchBody string) *bootstrap.Components {
	t.Helper()
	profiles := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/in/"+existing {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(profiles.Close)
	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchBody)
	}))
	t.Cleanup(engine.Close)

	cfg := config.Default()
	cfg.Probe.BaseURL = profiles.URL + "/in/"
	cfg.Probe.Cache.Driver = "none"
	cfg.Search.RateLimit = 0
	cfg.Search.Endpoints = []search.Endpoint{{Name: "test", URL: engine.URL + "/lite/", Query: "{name} {employer} linkedin"}}

	components, err := bootstrap.Build(context.Background(), cfg, bootstrap.Overrides{ProbeTimeout: 2 * time.Second, SearchTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { components.Close() })
	return components
}

func TestExecuteProbeText(t *testing.T) {
	components := newComponents(t, "johnd", "")
	var out bytes.Buffer
	opts := Options{Name: "John Doe", Employer: "Acme", Workflow: finder.WorkflowProbe, Timeout: time.Second}
	if err := Execute(context.Background(), components, opts, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	text := out.String()
	for _, want := range []string{"🔍 Searching for: John Doe at Acme", "✅ Found: " + components.BaseURL + "johnd", "Username: johnd"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestExecuteProbeNotFoundJSON(t *testing.T) {
	components := newComponents(t, "nobody", "")
	var out bytes.Buffer
	opts := Options{Name: "John Doe", Employer: "Acme", Workflow: finder.WorkflowProbe, JSON: true, Timeout: time.Second}
	if err := Execute(context.Background(), components, opts, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if decoded["found"] != false || decoded["url"] != nil {
		t.Fatalf("unexpected not-found payload: %v", decoded)
	}
	tried, ok := decoded["tried_patterns"].([]any)
	if !ok || len(tried) != 4 || tried[0] != "johndoe" {
		t.Fatalf("unexpected tried patterns: %v", decoded["tried_patterns"])
	}
	if !strings.HasPrefix(out.String(), "{\n  \"found\"") {
		t.Fatalf("expected two-space indented JSON, got %q", out.String())
	}
}

func TestExecuteProbeNotFoundText(t *testing.T) {
	components := newComponents(t, "nobody", "")
	var out bytes.Buffer
	opts := Options{Name: "John Doe", Employer: "Acme", Workflow: finder.WorkflowProbe, Timeout: time.Second}
	if err := Execute(context.Background(), components, opts, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	text := out.String()
	for _, want := range []string{"❌ Not found via pattern matching", "Tried patterns: johndoe, john-doe, johnd, jdoe", "Manual search: https://www.google.com/search?q=", "💡 Tip"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestExecuteSearchText(t *testing.T) {
	body := `<a href="https://www.linkedin.com/in/jane-smith/">Jane</a>
<a href="https://linkedin.com/in/jsmith?trk=1">J</a>`
	components := newComponents(t, "nobody", body)
	var out bytes.Buffer
	opts := Options{Name: "Jane Smith", Employer: "Globex", Workflow: finder.WorkflowSearch, Timeout: time.Second}
	if err := Execute(context.Background(), components, opts, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	text := out.String()
	for _, want := range []string{"✅ Found: https://www.linkedin.com/in/jane-smith", "Other matches:", "   • https://linkedin.com/in/jsmith"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestExecuteAutoFallsBackToSearch(t *testing.T) {
	components := newComponents(t, "nobody", `https://www.linkedin.com/in/jane-s-123`)
	var out bytes.Buffer
	opts := Options{Name: "Jane Smith", Employer: "Globex", Workflow: finder.WorkflowAuto, Timeout: time.Second}
	if err := Execute(context.Background(), components, opts, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "✅ Found via search: https://www.linkedin.com/in/jane-s-123") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestExecutePatternsAndURL(t *testing.T) {
	components := newComponents(t, "nobody", "")

	var out bytes.Buffer
	opts := Options{Name: "John Q Public", Employer: "Acme", Workflow: finder.WorkflowPatterns, JSON: true}
	if err := Execute(context.Background(), components, opts, &out); err != nil {
		t.Fatalf("execute patterns: %v", err)
	}
	var patterns PatternsOutput
	if err := json.Unmarshal(out.Bytes(), &patterns); err != nil {
		t.Fatalf("decode patterns: %v", err)
	}
	want := []string{"johnpublic", "john-public", "johnp", "jpublic", "john-q-public"}
	if strings.Join(patterns.Patterns, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected patterns: %v", patterns.Patterns)
	}
	if len(patterns.URLs) != len(want) || patterns.URLs[0] != components.BaseURL+"johnpublic" {
		t.Fatalf("unexpected urls: %v", patterns.URLs)
	}

	out.Reset()
	opts = Options{Name: "John Doe", Employer: "Acme & Co", Workflow: finder.WorkflowURL}
	if err := Execute(context.Background(), components, opts, &out); err != nil {
		t.Fatalf("execute url: %v", err)
	}
	if !strings.Contains(out.String(), "https://www.google.com/search?q=John+Doe+Acme+%26+Co+linkedin") {
		t.Fatalf("unexpected url output:\n%s", out.String())
	}
}

func TestExecuteCheck(t *testing.T) {
	components := newComponents(t, "johndoe", "")
	var out bytes.Buffer
	if err := Execute(context.Background(), components, Options{Workflow: finder.WorkflowCheck, Username: "johndoe", Timeout: time.Second}, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "✅ EXISTS: "+components.BaseURL+"johndoe") {
		t.Fatalf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := Execute(context.Background(), components, Options{Workflow: finder.WorkflowCheck, Username: "ghost", Timeout: time.Second}, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "❌ NOT FOUND: ") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}
