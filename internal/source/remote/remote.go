// Package remote fetches the published statistics over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cardstats/internal/core"
	"cardstats/internal/source"
)

// Client performs a single GET per resource. No retries.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ source.Fetcher = (*Client)(nil)

// New creates a client for the site rooted at baseURL. A zero timeout leaves
// requests bounded only by their context.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("missing base URL")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}
	return NewWithHTTPClient(u, newHTTPClientWithPooling(timeout)), nil
}

// NewWithHTTPClient is used by tests to inject a client.
func NewWithHTTPClient(base *url.URL, hc *http.Client) *Client {
	return &Client{base: base, http: hc}
}

// NewSource returns a decoding Source over a remote client.
func NewSource(baseURL string, timeout time.Duration) (*source.Reader, error) {
	c, err := New(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return source.NewReader(c), nil
}

// Fetch GETs the resource at path relative to the base URL. A status outside
// 200-299 yields *core.FetchError.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, error) {
	target := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		slog.WarnContext(ctx, "Resource fetch failed", "path", path, "status_code", resp.StatusCode)
		return nil, &core.FetchError{Path: path, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	slog.DebugContext(ctx, "Resource fetched", "path", path, "bytes", len(body), "duration_ms", time.Since(start).Milliseconds())
	return body, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling
// and transport-level timeouts. The overall timeout is optional.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16, // one load fetches a year of months at once
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
