package search

import (
	"net/url"
	"strings"
)

// Endpoint is one search engine queried by the scraper. Query is a template in
// which {name} and {employer} are substituted.
type Endpoint struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Query string `yaml:"query"`
}

// DefaultEndpoints lists the engines in the order they are tried.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{Name: "duckduckgo", URL: "https://lite.duckduckgo.com/lite/", Query: "{name} {employer} linkedin"},
		{Name: "google", URL: "https://www.google.com/search", Query: "{name} {employer} site:linkedin.com/in"},
	}
}

// RequestURL renders the GET URL for a lookup.
func (e Endpoint) RequestURL(name, employer string) string {
	query := strings.NewReplacer("{name}", name, "{employer}", employer).Replace(e.Query)
	sep := "?"
	if strings.Contains(e.URL, "?") {
		sep = "&"
	}
	return e.URL + sep + "q=" + url.QueryEscape(query)
}
