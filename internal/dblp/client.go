package dblp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/bibsync/internal/reference"
)

const (
	// BaseURL is the DBLP site root.
	BaseURL = "https://dblp.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxHits is the number of search hits requested. Only the
	// top-ranked hit is ever used, so one is enough.
	DefaultMaxHits = 1

	// DefaultUserAgent identifies the client to DBLP.
	DefaultUserAgent = "bibsync (+https://github.com/matsen/bibsync)"

	searchPath = "/search/publ/api"
	recordPath = "/rec"

	// maxRecordBytes bounds record bodies; a single BibTeX record is a few KB.
	maxRecordBytes = 1 << 20
)

// recordUnescaper undoes the underscore escaping DBLP applies in BibTeX records.
var recordUnescaper = strings.NewReplacer(`\_`, "_")

// Client is an HTTP client for the DBLP search and record endpoints.
// It performs no throttling of its own; callers pace requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxHits    int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (mirrors, testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxHits sets the number of hits requested per search.
func WithMaxHits(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxHits = n
		}
	}
}

// NewClient creates a new DBLP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
		userAgent:  DefaultUserAgent,
		maxHits:    DefaultMaxHits,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doGet performs a GET request and checks the status.
// The caller is responsible for closing the response body.
func (c *Client) doGet(ctx context.Context, u, key string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	if err := checkHTTPErrors(resp, key); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// SearchURL returns the search URL for a free-text query.
func (c *Client) SearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("h", strconv.Itoa(c.maxHits))
	return c.baseURL + searchPath + "?" + params.Encode()
}

// RecordURL returns the BibTeX record URL for a database key such as
// "conf/nips/VaswaniSPUJGKP17".
func (c *Client) RecordURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.baseURL + recordPath + "/" + strings.Join(segments, "/") + ".bib?param=1"
}

// Search queries the publication search API with a title and returns the
// ranked hits. A response with zero hits is not an error.
func (c *Client) Search(ctx context.Context, title string) (reference.Hits, error) {
	resp, err := c.doGet(ctx, c.SearchURL(title), "")
	if err != nil {
		return reference.Hits{}, err
	}
	defer resp.Body.Close()

	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return reference.Hits{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("parsing search results: %v", err),
			Err:        ErrInvalidResponse,
		}
	}

	return sr.ToHits(), nil
}

// Record fetches the BibTeX text of one publication by database key.
func (c *Client) Record(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty record key", ErrNotFound)
	}

	resp, err := c.doGet(ctx, c.RecordURL(key), key)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading record %s: %v", ErrNetworkError, key, err)
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    "empty record body",
			Key:        key,
			Err:        ErrInvalidResponse,
		}
	}

	return recordUnescaper.Replace(text), nil
}
