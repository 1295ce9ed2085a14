// Package greeter is the HTTP client for the greeting service.
package greeter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// RequestIDHeader carries a per-request UUID so client and server logs line up.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// ErrBodyTooLarge is the cause of a FetchError for a body over 1 MiB.
var ErrBodyTooLarge = errors.New("response body too large")

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the greeting service (e.g. "http://localhost:8080").
	BaseURL string

	// HTTPClient is an optional custom HTTP client. If nil, a default client
	// with Timeout is used.
	HTTPClient *http.Client

	// Timeout applies to individual requests. Defaults to 10 seconds.
	Timeout time.Duration

	Logger zerolog.Logger
}

// Client fetches greetings. All methods are safe for concurrent use.
type Client struct {
	base   *url.URL
	client *http.Client
	group  singleflight.Group
	logger zerolog.Logger
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("greeter: BaseURL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("greeter: parse BaseURL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("greeter: BaseURL must be http or https, got %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		base:   base,
		client: httpClient,
		logger: cfg.Logger.With().Str("component", "greeter").Logger(),
	}, nil
}

// URL returns the request URL for name. The name parameter is left out
// entirely when name is empty.
func (c *Client) URL(name string) string {
	u := c.base.JoinPath("hello")
	if name != "" {
		// Spaces as %20, the way browsers encode a URI component.
		u.RawQuery = "name=" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	}
	return u.String()
}

// Greet fetches the greeting for name and returns the response body verbatim.
// Every failure is a *FetchError, including a body too large to return whole.
//
// Concurrent calls for the same name share one request, and that request
// runs on the first caller's ctx: if it is canceled, every caller waiting on
// the shared call gets the cancellation error.
func (c *Client) Greet(ctx context.Context, name string) (string, error) {
	v, err, shared := c.group.Do(name, func() (any, error) {
		return c.fetch(ctx, name)
	})
	if shared {
		c.logger.Debug().Str("name", name).Msg("shared in-flight greeting request")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) fetch(ctx context.Context, name string) (string, error) {
	target := c.URL(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &FetchError{URL: target, Err: fmt.Errorf("create request: %w", err)}
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "text/plain")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("request_id", requestID).Str("url", target).Msg("greeting request failed")
		return "", &FetchError{URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return "", &FetchError{StatusCode: resp.StatusCode, Status: resp.Status, URL: target, Err: fmt.Errorf("read response body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		c.logger.Warn().Str("request_id", requestID).Str("url", target).Msg("greeting response body too large")
		return "", &FetchError{StatusCode: resp.StatusCode, Status: resp.Status, URL: target, Err: ErrBodyTooLarge}
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("greeting response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{StatusCode: resp.StatusCode, Status: resp.Status, URL: target}
	}
	return string(body), nil
}
