package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ProfileFinder/internal/profile"
)

const rule = "------------------------------------------------------------"

// PatternsOutput is the JSON shape of the patterns workflow.
type PatternsOutput struct {
	Name     string   `json:"name"`
	Employer string   `json:"employer"`
	Patterns []string `json:"patterns"`
	URLs     []string `json:"urls"`
}

// CheckOutput is the JSON shape of the check workflow.
type CheckOutput struct {
	Username string `json:"username"`
	URL      string `json:"url"`
	Exists   bool   `json:"exists"`
}

// SearchURLOutput is the JSON shape of the url workflow.
type SearchURLOutput struct {
	SearchURL string `json:"search_url"`
	Name      string `json:"name"`
	Employer  string `json:"employer"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func header(w io.Writer, name, employer string) {
	fmt.Fprintf(w, "\n🔍 Searching for: %s at %s\n", name, employer)
	fmt.Fprintln(w, rule)
}

// renderPatternMatch prints a probe-workflow result.
func renderPatternMatch(w io.Writer, r profile.Result) {
	header(w, r.Name, r.Employer)
	if r.Found {
		fmt.Fprintf(w, "✅ Found: %s\n", r.URL)
		fmt.Fprintf(w, "   Username: %s\n", r.Username)
	} else {
		fmt.Fprintln(w, "❌ Not found via pattern matching")
		fmt.Fprintf(w, "\n   Tried patterns: %s\n", strings.Join(r.TriedPatterns, ", "))
		fmt.Fprintf(w, "\n   Manual search: %s\n", r.SearchURL)
		fmt.Fprintln(w, "\n   💡 Tip: Check the tried patterns - one might be correct with slight variation")
	}
	fmt.Fprintln(w, rule)
}

// renderSearch prints a search-workflow result.
func renderSearch(w io.Writer, r profile.Result) {
	header(w, r.Name, r.Employer)
	if r.Found {
		fmt.Fprintf(w, "✅ Found: %s\n", r.URL)
		if len(r.AllURLs) > 1 {
			fmt.Fprintln(w, "\nOther matches:")
			for _, url := range r.AllURLs[1:] {
				fmt.Fprintf(w, "   • %s\n", url)
			}
		}
	} else {
		fmt.Fprintln(w, "❌ Not found")
		if r.Message != "" {
			fmt.Fprintf(w, "   %s\n", r.Message)
		}
		if r.SearchURL != "" {
			fmt.Fprintf(w, "\n   Manual search: %s\n", r.SearchURL)
		}
	}
	fmt.Fprintln(w, rule)
}

// renderAuto prints an auto-workflow result.
func renderAuto(w io.Writer, r profile.Result) {
	header(w, r.Name, r.Employer)
	if r.Found {
		fmt.Fprintf(w, "✅ Found via %s: %s\n", r.Method, r.URL)
		if len(r.AllURLs) > 1 {
			fmt.Fprintln(w, "\nOther matches:")
			for _, url := range r.AllURLs[1:] {
				fmt.Fprintf(w, "  • %s\n", url)
			}
		}
	} else {
		fmt.Fprintln(w, "❌ Not found automatically")
		fmt.Fprintf(w, "\nTried patterns: %s\n", strings.Join(r.TriedPatterns, ", "))
		fmt.Fprintf(w, "\nManual search: %s\n", r.SearchURL)
	}
	fmt.Fprintln(w, rule)
}

func renderPatterns(w io.Writer, out PatternsOutput) {
	fmt.Fprintf(w, "\n🔍 Username patterns for: %s\n", out.Name)
	fmt.Fprintln(w, rule)
	for i, pattern := range out.Patterns {
		fmt.Fprintf(w, "  • %-20s → %s\n", pattern, out.URLs[i])
	}
	fmt.Fprintln(w, rule)
}

func renderCheck(w io.Writer, out CheckOutput) {
	status := "❌ NOT FOUND"
	if out.Exists {
		status = "✅ EXISTS"
	}
	fmt.Fprintf(w, "%s: %s\n", status, out.URL)
}

func renderSearchURL(w io.Writer, out SearchURLOutput) {
	fmt.Fprintln(w, "\n🔗 Search URL:")
	fmt.Fprintln(w, out.SearchURL)
}
