package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ProfileFinder/internal/profile"
)

func newScraper(client *http.Client, endpoints ...Endpoint) *Scraper {
	return New(client, WithEndpoints(endpoints), WithRateLimit(0, 0), WithTimeout(time.Second))
}

func TestSearchFallsThroughToNextEndpoint(t *testing.T) {
	var firstHits, secondHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ddg":
			firstHits.Add(1)
			if q := r.URL.Query().Get("q"); q != "Jane Doe Acme linkedin" {
				t.Errorf("unexpected ddg query %q", q)
			}
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/google":
			secondHits.Add(1)
			if q := r.URL.Query().Get("q"); q != "Jane Doe Acme site:linkedin.com/in" {
				t.Errorf("unexpected google query %q", q)
			}
			fmt.Fprint(w, `<a href="https://www.linkedin.com/in/jane-doe/">Jane</a>`)
		}
	}))
	defer srv.Close()

	s := newScraper(srv.Client(),
		Endpoint{Name: "duckduckgo", URL: srv.URL + "/ddg", Query: "{name} {employer} linkedin"},
		Endpoint{Name: "google", URL: srv.URL + "/google", Query: "{name} {employer} site:linkedin.com/in"},
	)
	got := s.Search(context.Background(), "Jane Doe", "Acme")
	if !got.Found || got.URL != "https://www.linkedin.com/in/jane-doe" || got.Method != profile.MethodSearch {
		t.Fatalf("unexpected result %+v", got)
	}
	if len(got.AllURLs) != 1 || got.AllURLs[0] != got.URL {
		t.Fatalf("unexpected all_urls %v", got.AllURLs)
	}
	if firstHits.Load() != 1 || secondHits.Load() != 1 {
		t.Fatalf("expected one hit per endpoint, got %d and %d", firstHits.Load(), secondHits.Load())
	}
}

func TestSearchStopsAtFirstMatchingEndpoint(t *testing.T) {
	var secondHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/second" {
			secondHits.Add(1)
		}
		fmt.Fprint(w, "https://linkedin.com/in/first-hit")
	}))
	defer srv.Close()

	s := newScraper(srv.Client(),
		Endpoint{Name: "a", URL: srv.URL + "/first", Query: "{name}"},
		Endpoint{Name: "b", URL: srv.URL + "/second", Query: "{name}"},
	)
	if urls := s.Find(context.Background(), "x", "y"); len(urls) != 1 {
		t.Fatalf("unexpected urls %v", urls)
	}
	if secondHits.Load() != 0 {
		t.Fatalf("second endpoint should not be queried")
	}
}

func TestSearchCapsAllURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for i := 0; i < 8; i++ {
			fmt.Fprintf(w, "https://www.linkedin.com/in/person-%d\n", i)
		}
	}))
	defer srv.Close()

	got := newScraper(srv.Client(), Endpoint{Name: "a", URL: srv.URL, Query: "{name}"}).Search(context.Background(), "p", "q")
	if len(got.AllURLs) != MaxResults {
		t.Fatalf("expected %d urls, got %d", MaxResults, len(got.AllURLs))
	}
	if got.URL != "https://www.linkedin.com/in/person-0" {
		t.Fatalf("unexpected first url %s", got.URL)
	}
}

func TestSearchNotFoundCarriesManualSearchURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "no profiles here")
	}))
	deadURL := httptest.NewServer(http.NotFoundHandler())
	dead := deadURL.URL
	deadURL.Close()
	defer srv.Close()

	s := newScraper(nil,
		Endpoint{Name: "down", URL: dead, Query: "{name}"},
		Endpoint{Name: "empty", URL: srv.URL, Query: "{name}"},
	)
	got := s.Search(context.Background(), "Jane Doe", "Acme Corp")
	if got.Found || got.URL != "" {
		t.Fatalf("expected not found, got %+v", got)
	}
	if !strings.Contains(got.SearchURL, "Jane+Doe+Acme+Corp+linkedin") {
		t.Fatalf("unexpected search url %s", got.SearchURL)
	}
	if got.Message == "" || got.Name != "Jane Doe" || got.Employer != "Acme Corp" {
		t.Fatalf("incomplete not-found result %+v", got)
	}
}

func TestSearchSendsBrowserUserAgent(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	newScraper(srv.Client(), Endpoint{Name: "a", URL: srv.URL, Query: "{name}"}).Find(context.Background(), "n", "e")
	if got, _ := ua.Load().(string); !strings.HasPrefix(got, "Mozilla/5.0") {
		t.Fatalf("unexpected user agent %q", got)
	}
}

func TestEndpointRequestURL(t *testing.T) {
	e := DefaultEndpoints()[0]
	got := e.RequestURL("Jane Doe", "R&D")
	if got != "https://lite.duckduckgo.com/lite/?q=Jane+Doe+R%26D+linkedin" {
		t.Fatalf("unexpected request url %s", got)
	}
	withQuery := Endpoint{URL: "http://x/search?hl=en", Query: "{name}"}
	if got := withQuery.RequestURL("a", "b"); got != "http://x/search?hl=en&q=a" {
		t.Fatalf("unexpected request url %s", got)
	}
}
