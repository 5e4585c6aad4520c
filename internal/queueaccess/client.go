package queueaccess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"castos/internal/api"
)

// Client talks to a running castosd over its HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the API bound at bind ("host:port").
// Wildcard hosts are dialed on loopback.
func NewClient(bind string) (*Client, error) {
	host, port, err := splitBind(bind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    "http://" + host + ":" + port,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func splitBind(bind string) (string, string, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return "", "", errors.New("api bind address not configured")
	}
	bind = strings.TrimPrefix(strings.TrimPrefix(bind, "http://"), "https://")
	idx := strings.LastIndex(bind, ":")
	if idx < 0 {
		return "", "", fmt.Errorf("api bind %q has no port", bind)
	}
	host, port := bind[:idx], bind[idx+1:]
	if host == "" || host == "0.0.0.0" || host == "[::]" {
		host = "127.0.0.1"
	}
	return host, port, nil
}

// Health fetches /api/health; it doubles as the reachability probe.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &out, http.StatusOK, http.StatusServiceUnavailable)
	return out, err
}

// Submit posts a new job.
func (c *Client) Submit(ctx context.Context, req api.SubmitRequest) (api.SubmitResponse, error) {
	var out api.SubmitResponse
	err := c.do(ctx, http.MethodPost, "/api/jobs", req, &out, http.StatusAccepted)
	return out, err
}

// List returns jobs, optionally filtered by status.
func (c *Client) List(ctx context.Context, statuses []string) ([]api.Job, error) {
	path := "/api/jobs"
	if len(statuses) > 0 {
		path += "?status=" + url.QueryEscape(strings.Join(statuses, ","))
	}
	var out api.JobListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Describe fetches one job; nil when the daemon reports 404.
func (c *Client) Describe(ctx context.Context, id int64) (*api.Job, error) {
	var out api.Job
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+strconv.FormatInt(id, 10), nil, &out, http.StatusOK)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Remove deletes a job and reports whether it existed.
func (c *Client) Remove(ctx context.Context, id int64) (bool, error) {
	err := c.do(ctx, http.MethodDelete, "/api/jobs/"+strconv.FormatInt(id, 10), nil, nil, http.StatusOK)
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	return err == nil, err
}

var errNotFound = errors.New("not found")

func (c *Client) do(ctx context.Context, method, path string, body, out any, accept ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	for _, code := range accept {
		if resp.StatusCode == code {
			if out == nil || len(data) == 0 {
				return nil
			}
			return json.Unmarshal(data, out)
		}
	}
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	var apiErr api.ErrorResponse
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		if len(apiErr.Fields) > 0 {
			parts := make([]string, 0, len(apiErr.Fields))
			for field, msg := range apiErr.Fields {
				parts = append(parts, field+" "+msg)
			}
			return fmt.Errorf("%s: %s", apiErr.Error, strings.Join(parts, "; "))
		}
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("daemon returned %d", resp.StatusCode)
}
