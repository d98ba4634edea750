// Package client fetches serialized author lists from a pathwiki server.
//
// Author fetches are never cached and never retried: a failure surfaces
// once, as a *StatusError for non-2xx responses or an error wrapping
// ErrIncomplete when the body cannot be read in full.
package client

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/pathwiki/pkg/authors"
	"github.com/matzehuels/pathwiki/pkg/buildinfo"
	"github.com/matzehuels/pathwiki/pkg/observability"
)

// DefaultTimeout bounds one author fetch.
const DefaultTimeout = 10 * time.Second

// LegacyFunction is the rs= value of the legacy ajax endpoint.
const LegacyFunction = `WikiPathways\GPML\AuthorInfoList::jsGetAuthors`

var (
	// ErrIncomplete is returned when the response body is cut short.
	ErrIncomplete = stderrors.New("incomplete response")

	// ErrNetwork is returned when the request cannot be sent or times out.
	ErrNetwork = stderrors.New("network error")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code       int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.StatusText)
}

// Client fetches author lists over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	headers map[string]string
	legacy  bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHeader adds a default request header.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithLegacyEndpoint makes the client call /index.php?action=ajax instead of /api/authors.
func WithLegacyEndpoint() Option {
	return func(c *Client) { c.legacy = true }
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{
			"User-Agent": buildinfo.UserAgent(),
			"Accept":     "text/xml, application/xml",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorsURL returns the fetch endpoint URL for the given arguments.
func (c *Client) AuthorsURL(pageID int64, limit int, includeBots bool) string {
	id := strconv.FormatInt(pageID, 10)
	if c.legacy {
		q := url.Values{}
		q.Set("action", "ajax")
		q.Set("rs", LegacyFunction)
		q.Add("rsargs[]", id)
		q.Add("rsargs[]", strconv.Itoa(limit))
		q.Add("rsargs[]", strconv.FormatBool(includeBots))
		return c.baseURL + "/index.php?" + q.Encode()
	}
	q := url.Values{}
	q.Set("pageId", id)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("includeBots", strconv.FormatBool(includeBots))
	q.Set("format", authors.FormatXML)
	return c.baseURL + "/api/authors?" + q.Encode()
}

// FetchAuthors requests the author list of pageID. limit is passed through
// unchanged (<= 0 asks for all authors).
func (c *Client) FetchAuthors(ctx context.Context, pageID int64, limit int, includeBots bool) ([]authors.Entry, error) {
	raw := c.AuthorsURL(pageID, limit, includeBots)
	body, err := c.get(ctx, raw)
	if err != nil {
		return nil, err
	}
	entries, err := authors.DecodeXML(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	return entries, nil
}

func (c *Client) get(ctx context.Context, raw string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	return body, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	text := http.StatusText(resp.StatusCode)
	// resp.Status is "500 Internal Server Error"; prefer the server's own phrase.
	if _, phrase, ok := strings.Cut(resp.Status, " "); ok && phrase != "" {
		text = phrase
	}
	return &StatusError{Code: resp.StatusCode, StatusText: text}
}
