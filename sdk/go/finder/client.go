// Package finder is a small Go client for the finderd REST API.
package finder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client. Keep it above the server's maximum wait.
const DefaultHTTPTimeout = 45 * time.Second

// Client wraps the HTTP interactions with the finderd API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
}

// LookupRequest is the payload used to submit a lookup.
type LookupRequest struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Employer string `json:"employer"`
	Workflow string `json:"workflow,omitempty"`
}

// Result mirrors the lookup result returned by the server. URL is empty when
// no profile was found.
type Result struct {
	Found         bool     `json:"found"`
	URL           *string  `json:"url"`
	Name          string   `json:"name"`
	Employer      string   `json:"employer"`
	Method        string   `json:"method,omitempty"`
	Username      string   `json:"username,omitempty"`
	AllURLs       []string `json:"all_urls,omitempty"`
	TriedPatterns []string `json:"tried_patterns,omitempty"`
	SearchURL     string   `json:"search_url,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// ProfileURL returns the matched URL or an empty string.
func (r Result) ProfileURL() string {
	if r.URL == nil {
		return ""
	}
	return *r.URL
}

// Lookup contains the state of a submitted lookup.
type Lookup struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Employer   string  `json:"employer"`
	Workflow   string  `json:"workflow"`
	Status     string  `json:"status"`
	Attempts   int     `json:"attempts"`
	MaxRetries int     `json:"max_retries"`
	LastError  string  `json:"last_error,omitempty"`
	ErrorCode  string  `json:"error_code,omitempty"`
	Result     *Result `json:"result,omitempty"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

// Done reports whether the lookup reached a terminal state.
func (l Lookup) Done() bool {
	return l.Status == "succeeded" || l.Status == "failed"
}

// LookupList is returned by ListLookups.
type LookupList struct {
	Lookups []Lookup `json:"lookups"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// ListFilter narrows ListLookups. Zero values are omitted.
type ListFilter struct {
	Limit    int
	Offset   int
	Statuses []string
	Workflow string
	Found    *bool
	Query    string
	Order    string
	Since    time.Time
	Until    time.Time
}

// Stats aggregates lookups by status.
type Stats struct {
	Total           int   `json:"total"`
	Pending         int   `json:"pending"`
	Running         int   `json:"running"`
	Succeeded       int   `json:"succeeded"`
	Failed          int   `json:"failed"`
	Found           int   `json:"found"`
	OldestUpdatedAt int64 `json:"oldest_updated_at,omitempty"`
	NewestUpdatedAt int64 `json:"newest_updated_at,omitempty"`
}

// Usernames is the candidate list generated for a name.
type Usernames struct {
	Name      string   `json:"name"`
	Usernames []string `json:"usernames"`
	URLs      []string `json:"urls"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("finder api error (%d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("finder api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client for the finderd API. When httpClient is nil,
// a default client with DefaultHTTPTimeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q", rawURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// SetToken sets the API token sent as a bearer credential. An empty token
// sends no Authorization header.
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

// SubmitLookup creates a lookup. A positive wait asks the server to block
// until the lookup finishes or the wait elapses.
func (c *Client) SubmitLookup(ctx context.Context, req LookupRequest, wait time.Duration) (Lookup, error) {
	query := url.Values{}
	if wait > 0 {
		query.Set("wait", strconv.FormatFloat(wait.Seconds(), 'f', -1, 64))
	}
	var out Lookup
	if err := c.post(ctx, "/api/v1/lookups", query, req, &out); err != nil {
		return Lookup{}, err
	}
	return out, nil
}

// GetLookup fetches a lookup by identifier.
func (c *Client) GetLookup(ctx context.Context, id string) (Lookup, error) {
	var out Lookup
	if err := c.get(ctx, "/api/v1/lookups/"+url.PathEscape(id), nil, &out); err != nil {
		return Lookup{}, err
	}
	return out, nil
}

// ListLookups lists lookups matching filter.
func (c *Client) ListLookups(ctx context.Context, filter ListFilter) (LookupList, error) {
	var out LookupList
	if err := c.get(ctx, "/api/v1/lookups", filter.values(), &out); err != nil {
		return LookupList{}, err
	}
	return out, nil
}

// LookupStats returns aggregated counters for lookups matching filter.
func (c *Client) LookupStats(ctx context.Context, filter ListFilter) (Stats, error) {
	var out Stats
	if err := c.get(ctx, "/api/v1/lookups/stats", filter.values(), &out); err != nil {
		return Stats{}, err
	}
	return out, nil
}

// Usernames returns the username candidates the server generates for name.
func (c *Client) Usernames(ctx context.Context, name string) (Usernames, error) {
	var out Usernames
	if err := c.get(ctx, "/api/v1/usernames", url.Values{"name": {name}}, &out); err != nil {
		return Usernames{}, err
	}
	return out, nil
}

func (f ListFilter) values() url.Values {
	v := url.Values{}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		v.Set("offset", strconv.Itoa(f.Offset))
	}
	if len(f.Statuses) > 0 {
		v.Set("status", strings.Join(f.Statuses, ","))
	}
	if f.Workflow != "" {
		v.Set("workflow", f.Workflow)
	}
	if f.Found != nil {
		v.Set("found", strconv.FormatBool(*f.Found))
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Order != "" {
		v.Set("order", f.Order)
	}
	if !f.Since.IsZero() {
		v.Set("since", strconv.FormatInt(f.Since.Unix(), 10))
	}
	if !f.Until.IsZero() {
		v.Set("until", strconv.FormatInt(f.Until.Unix(), 10))
	}
	return v
}

func (c *Client) post(ctx context.Context, endpoint string, query url.Values, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, query, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = path.Join(c.baseURL.Path, endpoint)
	u.RawPath = ""
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr APIError
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		if len(data) > 0 {
			err := json.Unmarshal(data, &struct {
				Error *APIError `json:"error"`
			}{Error: &apiErr})
			if err != nil || (apiErr.Code == "" && apiErr.Message == "") {
				_ = json.Unmarshal(data, &apiErr)
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
