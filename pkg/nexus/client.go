// Package nexus provides the HTTP client for the Nexus 3 REST API. The
// resource specific clients (repositories, assets, scripts, tasks, blob
// stores, cleanup policies and realms) live in sub-packages and share a
// single *Client.
package nexus

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/lgulliver/nexus3-cli/pkg/config"
	"github.com/lgulliver/nexus3-cli/pkg/types"
	"github.com/lgulliver/nexus3-cli/pkg/utils"
)

// RequestIDHeader carries the correlation id of each request
const RequestIDHeader = "X-Request-ID"

// Client talks to a single Nexus server
type Client struct {
	config     *config.Config
	httpClient *retryablehttp.Client
	baseURL    *url.URL
	restURL    *url.URL

	versionMu      sync.Mutex
	versionFetched bool
	serverVersion  *semver.Version
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = hc
	}
}

// WithRetries overrides the number of retries on connection errors and 5xx
func WithRetries(n int) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = n
	}
}

// NewClient creates a client for the server described by cfg
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(cfg.BaseURL() + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	restURL, err := url.Parse(cfg.RESTURL())
	if err != nil {
		return nil, fmt.Errorf("invalid rest url: %w", err)
	}

	// timeout bounds connection setup and response headers, never the body
	timeout := cfg.Timeout.Duration()
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !cfg.X509Verify, // #nosec G402 -- user opted out with x509_verify=false
	}

	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient = &http.Client{Transport: transport}
	httpClient.RetryMax = cfg.Retries
	httpClient.RetryWaitMin = 1 * time.Second
	httpClient.RetryWaitMax = 10 * time.Second
	httpClient.Logger = newLeveledLogger()
	// hand the final response back so CheckResponse can map its status
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		config:     cfg,
		httpClient: httpClient,
		baseURL:    baseURL,
		restURL:    restURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	log.Debug().
		Str("url", cfg.BaseURL()).
		Str("api_version", cfg.APIVersion).
		Bool("x509_verify", cfg.X509Verify).
		Int("retries", c.httpClient.RetryMax).
		Msg("nexus client initialized")

	return c, nil
}

// Config returns the configuration the client was built from
func (c *Client) Config() *config.Config {
	return c.config
}

// EndpointURL resolves endpoint (which may carry a query) against the REST base
func (c *Client) EndpointURL(endpoint string, params url.Values) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	u := c.restURL.ResolveReference(ref)
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// RepositoryURL returns the content URL of a path inside a repository,
// e.g. http://host:8081/repository/yum-local/el8/pkg.rpm
func (c *Client) RepositoryURL(repository string, remotePath ...string) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "repository/" + JoinRemotePath(append([]string{repository}, remotePath...)...)
	return u.String()
}

// Do sends req with authentication and a fresh correlation id
func (c *Client) Do(req *retryablehttp.Request) (*http.Response, error) {
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.SetBasicAuth(c.config.Username, c.config.Password)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("url", req.URL.Redacted()).
			Msg("nexus request failed")
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("nexus request")

	return resp, nil
}

// DoURL sends a request to an absolute URL, used for repository content
// outside the REST API. body may be nil or any body retryablehttp accepts.
// An io.ReadSeeker is rewound and a retryablehttp.ReaderFunc called again
// on each attempt, so neither is held in memory; a plain io.Reader is
// buffered.
func (c *Client) DoURL(ctx context.Context, method, rawURL string, body any, contentType string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.Do(req)
}

// Request sends a request to a REST endpoint
func (c *Client) Request(ctx context.Context, method, endpoint string, params url.Values, body any, contentType string) (*http.Response, error) {
	target, err := c.EndpointURL(endpoint, params)
	if err != nil {
		return nil, err
	}
	return c.DoURL(ctx, method, target, body, contentType)
}

// Get issues a GET against a REST endpoint
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, endpoint, params, nil, "")
}

// Post issues a POST against a REST endpoint
func (c *Client) Post(ctx context.Context, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	return c.Request(ctx, http.MethodPost, endpoint, nil, body, contentType)
}

// Put issues a PUT against a REST endpoint
func (c *Client) Put(ctx context.Context, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	return c.Request(ctx, http.MethodPut, endpoint, nil, body, contentType)
}

// Delete issues a DELETE against a REST endpoint
func (c *Client) Delete(ctx context.Context, endpoint string) (*http.Response, error) {
	return c.Request(ctx, http.MethodDelete, endpoint, nil, nil, "")
}

// GetJSON fetches endpoint and decodes a 200 response into out
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	resp, err := c.Get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp, http.StatusOK); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

// SendJSON encodes in as the request body and, when out is non-nil, decodes
// the response into it. With no expected codes any 2xx status is accepted.
func (c *Client) SendJSON(ctx context.Context, method, endpoint string, in, out any, expected ...int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.Request(ctx, method, endpoint, nil, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp, expected...); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

// Paginate walks a collection endpoint that returns {items, continuationToken},
// calling fn with the raw items of every page
func (c *Client) Paginate(ctx context.Context, endpoint string, params url.Values, fn func(items json.RawMessage) error) error {
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}

	for {
		var page types.Page
		if err := c.GetJSON(ctx, endpoint, query, &page); err != nil {
			return err
		}
		if len(page.Items) > 0 {
			if err := fn(page.Items); err != nil {
				return err
			}
		}
		if page.ContinuationToken == nil || *page.ContinuationToken == "" {
			return nil
		}
		query.Set("continuationToken", *page.ContinuationToken)
	}
}

// ServerVersion returns the version reported in the server's Server header.
// The result is cached; a nil version means the server did not say.
func (c *Client) ServerVersion(ctx context.Context) (*semver.Version, error) {
	c.versionMu.Lock()
	defer c.versionMu.Unlock()

	if c.versionFetched {
		return c.serverVersion, nil
	}

	resp, err := c.DoURL(ctx, http.MethodHead, c.baseURL.String(), nil, "")
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, CheckResponse(resp, http.StatusOK)
	}

	header := resp.Header.Get("Server")
	version, err := utils.ParseServerHeader(header)
	if err != nil {
		log.Debug().Str("server", header).Msg("server version unknown")
		version = nil
	}

	c.serverVersion = version
	c.versionFetched = true
	return version, nil
}

// RequireVersion fails with ErrVersionMismatch when the server is known to be
// older than minimum. Servers that do not report a version are allowed.
func (c *Client) RequireVersion(ctx context.Context, minimum string) error {
	required, err := semver.NewVersion(minimum)
	if err != nil {
		return fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}

	version, err := c.ServerVersion(ctx)
	if err != nil {
		return err
	}
	if !utils.AtLeast(version, required) {
		return fmt.Errorf("%w: requires Nexus %s or later, server is %s", ErrVersionMismatch, required, version)
	}
	return nil
}
