package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vertextoedge/hub-mirror/internal/domain"
	"github.com/vertextoedge/hub-mirror/internal/domain/vo"
	"github.com/vertextoedge/hub-mirror/internal/port"
)

// DefaultEndpoint is the public Hugging Face hub
const DefaultEndpoint = "https://huggingface.co"

// Client is a hub API client
type Client struct {
	endpoint       string
	userAgent      string
	apiClient      *http.Client
	downloadClient *http.Client
}

// Ensure Client implements port.HubClient
var _ port.HubClient = (*Client)(nil)

// ClientConfig contains optional client configuration
type ClientConfig struct {
	// Timeout bounds API requests and the wait for download response headers.
	// Download bodies are not bounded. Default: 30s
	Timeout time.Duration

	// UserAgent is sent with every request
	UserAgent string
}

// NewClient creates a new hub client
func NewClient(endpoint string) *Client {
	return NewClientWithConfig(endpoint, nil)
}

// NewClientWithConfig creates a new hub client with custom configuration
func NewClientWithConfig(endpoint string, cfg *ClientConfig) *Client {
	timeout := 30 * time.Second
	userAgent := "hub-mirror"
	if cfg != nil {
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.UserAgent != "" {
			userAgent = cfg.UserAgent
		}
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	downloadTransport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     120 * time.Second,
		ForceAttemptHTTP2:   true,

		// Raw bytes: Content-Length and Range offsets must refer to the stored file
		DisableCompression: true,

		// Response header timeout (not total download timeout)
		ResponseHeaderTimeout: timeout,
	}

	return &Client{
		endpoint:  strings.TrimSuffix(endpoint, "/"),
		userAgent: userAgent,
		apiClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		downloadClient: &http.Client{
			Transport: downloadTransport,
			Timeout:   0, // No timeout for downloads
		},
	}
}

// Endpoint returns the hub base URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ResolveURL builds the content URL of a file
func (c *Client) ResolveURL(repo port.RepoRef, path vo.RemotePath) (string, error) {
	prefix, ok := resolvePrefixes[repo.RepoType]
	if !ok {
		return "", fmt.Errorf("%w: unknown repo type %q", domain.ErrInvalidInput, repo.RepoType)
	}

	segments := path.Segments()
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	return fmt.Sprintf("%s/%s%s/resolve/%s/%s",
		c.endpoint, prefix, repo.RepoID, url.PathEscape(revisionOrDefault(repo.Revision)), strings.Join(escaped, "/")), nil
}

// treeURL builds the recursive tree listing URL of a repository
func (c *Client) treeURL(repo port.RepoRef) (string, error) {
	prefix, ok := apiPrefixes[repo.RepoType]
	if !ok {
		return "", fmt.Errorf("%w: unknown repo type %q", domain.ErrInvalidInput, repo.RepoType)
	}

	params := url.Values{
		"recursive": {"true"},
		"expand":    {"false"},
	}
	return fmt.Sprintf("%s/api/%s/%s/tree/%s?%s",
		c.endpoint, prefix, repo.RepoID, url.PathEscape(revisionOrDefault(repo.Revision)), params.Encode()), nil
}

// newRequest creates a request with the common headers
func (c *Client) newRequest(ctx context.Context, method, urlStr string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// doRequest performs an API request
func (c *Client) doRequest(ctx context.Context, method, urlStr string) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, urlStr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.apiClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// doDownloadRequestWithRange performs a content request with optional Range header
func (c *Client) doDownloadRequestWithRange(ctx context.Context, method, urlStr string, rangeStart int64) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, urlStr)
	if err != nil {
		return nil, err
	}

	if rangeStart > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", rangeStart))
	}

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// drainAndClose discards what is left of a body so the connection can be reused
func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	body.Close()
}

func revisionOrDefault(revision string) string {
	if revision == "" {
		return "main"
	}
	return revision
}
