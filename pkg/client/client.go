// Package client talks to a running respawn daemon over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is an HTTP client for the respawn daemon API.
type Client struct {
	baseURL string
	client  *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string // e.g. "http://localhost:8080/api"
	Timeout time.Duration
}

// DefaultConfig returns the configuration matching the daemon defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080/api",
		Timeout: 10 * time.Second,
	}
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// IsReachable reports whether the daemon answers on the configured URL.
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Status returns all process records known to the daemon.
func (c *Client) Status(ctx context.Context) ([]ProcessStatus, error) {
	var out []ProcessStatus
	if err := c.do(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusOf returns the record for one process.
func (c *Client) StatusOf(ctx context.Context, name string) (ProcessStatus, error) {
	var out ProcessStatus
	err := c.do(ctx, http.MethodGet, "/status?name="+url.QueryEscape(name), nil, &out)
	return out, err
}

// Start launches a process from the given spec.
func (c *Client) Start(ctx context.Context, spec Spec) error {
	return c.do(ctx, http.MethodPost, "/start", spec, nil)
}

// Stop removes a process from supervision and signals it to terminate.
func (c *Client) Stop(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/stop?name="+url.QueryEscape(name), nil, nil)
}

// Restart stops and re-launches a process with its captured spec.
func (c *Client) Restart(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/restart?name="+url.QueryEscape(name), nil, nil)
}

// Cleanup asks the daemon to drop records whose process is dead, returning
// the removed names.
func (c *Client) Cleanup(ctx context.Context) ([]string, error) {
	var out struct {
		Removed []string `json:"removed"`
	}
	if err := c.do(ctx, http.MethodPost, "/cleanup", nil, &out); err != nil {
		return nil, err
	}
	return out.Removed, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("client: %s %s: %s (status %d)", method, path, e.Error, resp.StatusCode)
		}
		return fmt.Errorf("client: %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
	}
	return nil
}
