package profile

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Method names the strategy that produced a match.
type Method string

const (
	MethodPatternMatch Method = "pattern_match"
	MethodSearch       Method = "search"
)

// DefaultBaseURL is the canonical profile location; usernames are appended to it.
const DefaultBaseURL = "https://www.linkedin.com/in/"

// fallbackSearchBase is used to build the manual search link returned with
// not-found results.
const fallbackSearchBase = "https://www.google.com/search"

// Result is the outcome of a single lookup. It is never persisted by the CLIs;
// the daemon stores it as part of a lookup job.
type Result struct {
	Found         bool     `json:"found"`
	URL           string   `json:"url"`
	Name          string   `json:"name"`
	Employer      string   `json:"employer"`
	Method        Method   `json:"method,omitempty"`
	Username      string   `json:"username,omitempty"`
	AllURLs       []string `json:"all_urls,omitempty"`
	TriedPatterns []string `json:"tried_patterns,omitempty"`
	SearchURL     string   `json:"search_url,omitempty"`
	Message       string   `json:"message,omitempty"`
}

type resultJSON Result

// MarshalJSON renders an empty URL as null.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		resultJSON
		URL *string `json:"url"`
	}{resultJSON: resultJSON(r)}
	if r.URL != "" {
		u := r.URL
		out.URL = &u
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts null for the URL field.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in struct {
		resultJSON
		URL *string `json:"url"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Result(in.resultJSON)
	if in.URL != nil {
		r.URL = *in.URL
	} else {
		r.URL = ""
	}
	return nil
}

// BuildURL joins base and username. An empty base uses DefaultBaseURL.
func BuildURL(base, username string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + username
}

// SearchURL returns the manual search fallback for a (name, employer) pair.
func SearchURL(name, employer string) string {
	return SearchURLFor(name + " " + employer + " linkedin")
}

// SearchURLFor returns the manual search fallback for a raw query.
func SearchURLFor(query string) string {
	return fallbackSearchBase + "?q=" + url.QueryEscape(query)
}

// NotFound builds a well-formed not-found result carrying the manual search URL.
func NotFound(name, employer, message string) Result {
	return Result{
		Name:      name,
		Employer:  employer,
		SearchURL: SearchURL(name, employer),
		Message:   message,
	}
}
