package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client sends JSON requests to one provider. Post and Ping are bounded by
// the configured timeout; streams opened with Open end with the caller's
// context instead, since a long answer can outlive any fixed timeout.
type Client struct {
	provider string
	baseURL  string
	header   http.Header
	timed    *http.Client
	stream   *http.Client
}

// NewClient creates a client for provider rooted at baseURL.
func NewClient(provider, baseURL string, timeout time.Duration) *Client {
	return &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		header:   make(http.Header),
		timed:    &http.Client{Timeout: timeout},
		stream:   &http.Client{},
	}
}

// WithHeader sets a header sent on every request, such as the API key.
func (c *Client) WithHeader(key, value string) *Client {
	c.header.Set(key, value)
	return c
}

func (c *Client) BaseURL() string        { return c.baseURL }
func (c *Client) Timeout() time.Duration { return c.timed.Timeout }

// Post sends body to path and decodes the 200 reply into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	resp, err := c.do(ctx, c.timed, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Open sends body to path and returns the reply body for streaming. The
// caller closes it.
func (c *Client) Open(ctx context.Context, path string, body any) (io.ReadCloser, error) {
	resp, err := c.do(ctx, c.stream, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Ping GETs path, which should be a cheap endpoint that still checks auth.
func (c *Client) Ping(ctx context.Context, path string) error {
	resp, err := c.do(ctx, c.timed, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", c.provider, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body any) (*http.Response, error) {
	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range c.header {
		req.Header[key] = values
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if hc == c.stream {
		req.Header.Set("Accept", "text/event-stream, application/x-ndjson")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: send request: %w", c.provider, err)
	}
	if err := CheckResponse(c.provider, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
