// Package client reads the SmartBin backend collections.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"smartbin-dashboard/internal/modules/dashboard/types"
)

// Limits caps how many items the backend returns per collection; 0 leaves
// the backend default in place.
type Limits struct {
	Readings int
	Reports  int
	Alerts   int
}

type Client struct {
	base   string
	h      *http.Client
	limits Limits
}

func New(base string, timeout time.Duration, limits Limits) *Client {
	return &Client{
		base:   base,
		h:      &http.Client{Timeout: timeout},
		limits: limits,
	}
}

// NewWithHTTPClient lets tests and callers supply their own transport.
func NewWithHTTPClient(base string, h *http.Client, limits Limits) *Client {
	return &Client{base: base, h: h, limits: limits}
}

// FetchReadings calls GET /api/readings.
func (c *Client) FetchReadings(ctx context.Context) ([]types.Reading, error) {
	return getJSON[types.Reading](ctx, c, types.ResourceReadings, c.limits.Readings)
}

// FetchReports calls GET /api/reports.
func (c *Client) FetchReports(ctx context.Context) ([]types.Report, error) {
	return getJSON[types.Report](ctx, c, types.ResourceReports, c.limits.Reports)
}

// FetchAlerts calls GET /api/alerts.
func (c *Client) FetchAlerts(ctx context.Context) ([]types.Alert, error) {
	return getJSON[types.Alert](ctx, c, types.ResourceAlerts, c.limits.Alerts)
}

func (c *Client) endpoint(resource types.Resource, limit int) (string, error) {
	u, err := url.Parse(c.base + "/api/" + string(resource))
	if err != nil {
		return "", err
	}
	if limit > 0 {
		q := u.Query()
		q.Set("limit", strconv.Itoa(limit))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func getJSON[T any](ctx context.Context, c *Client, resource types.Resource, limit int) ([]T, error) {
	endpoint, err := c.endpoint(resource, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: build url: %w", resource, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("%s: unexpected status %d: %s", resource, resp.StatusCode, snippet)
	}

	var out []T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", resource, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
