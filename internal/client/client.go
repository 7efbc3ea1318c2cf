// Package client is an HTTP client for the experiments API, used by the
// expctl CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/openlearnhq/experiments/internal/experiments"
	"github.com/openlearnhq/experiments/internal/flags"
)

// Client talks to an experiments API server.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BucketAssignment is the server's answer for a bucket query.
type BucketAssignment struct {
	Experiment string `json:"experiment"`
	Username   string `json:"username"`
	GroupCount int    `json:"group_count"`
	Bucket     int    `json:"bucket"`
}

// UpsertFlagParams is the body for flag upserts.
type UpsertFlagParams struct {
	Description string  `json:"description"`
	Enabled     bool    `json:"enabled"`
	Rollout     int32   `json:"rollout"`
	Audience    *string `json:"audience,omitempty"`
	Env         string  `json:"env,omitempty"`
}

// AssignBucket asks the server for a stable bucket assignment.
func (c *Client) AssignBucket(ctx context.Context, experiment, username string, count int) (*BucketAssignment, error) {
	u, err := url.Parse(c.BaseURL + "/v1/bucket")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("experiment", experiment)
	q.Set("username", username)
	q.Set("count", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	var assignment BucketAssignment
	if err := c.getJSON(ctx, u.String(), &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UserMetadata fetches the experiment metadata context for a user and course.
func (c *Client) UserMetadata(ctx context.Context, username, courseKey string) (*experiments.UserMetadata, error) {
	path := fmt.Sprintf("%s/v1/users/%s/courses/%s/metadata",
		c.BaseURL, url.PathEscape(username), url.PathEscape(courseKey))

	var meta experiments.UserMetadata
	if err := c.getJSON(ctx, path, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Dashboard fetches the course id to display price map for a user.
func (c *Client) Dashboard(ctx context.Context, username string) (map[string]string, error) {
	path := fmt.Sprintf("%s/v1/users/%s/dashboard", c.BaseURL, url.PathEscape(username))

	var prices map[string]string
	if err := c.getJSON(ctx, path, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// ListFlags retrieves all flags for an environment. An empty env uses the
// server's default.
func (c *Client) ListFlags(ctx context.Context, env string) ([]flags.Flag, error) {
	u, err := url.Parse(c.BaseURL + "/v1/flags")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if env != "" {
		q := u.Query()
		q.Set("env", env)
		u.RawQuery = q.Encode()
	}

	var list []flags.Flag
	if err := c.getJSON(ctx, u.String(), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetFlag retrieves a single flag by name.
func (c *Client) GetFlag(ctx context.Context, name, env string) (*flags.Flag, error) {
	list, err := c.ListFlags(ctx, env)
	if err != nil {
		return nil, err
	}
	for _, flag := range list {
		if flag.Name == name {
			return &flag, nil
		}
	}
	return nil, fmt.Errorf("flag not found: %s", name)
}

// UpsertFlag creates or updates a flag and returns the stored version.
func (c *Client) UpsertFlag(ctx context.Context, name string, params UpsertFlagParams) (*flags.Flag, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	path := c.BaseURL + "/v1/flags/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var flag flags.Flag
	if err := json.NewDecoder(resp.Body).Decode(&flag); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &flag, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
}
