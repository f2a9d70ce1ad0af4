// Package directory provides the HTTP client for the user directory
// service that owns roles, groups and their members.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client resolves role and group memberships over the directory service's
// REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

type roleMembersResponse struct {
	Role    string   `json:"role"`
	Members []string `json:"members"`
}

// RoleMembers fetches the user ids holding the given role or group. A
// non-2xx response or decode failure is returned as an error; callers
// decide whether to degrade.
func (c *Client) RoleMembers(ctx context.Context, role string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/roles/%s/members", c.baseURL, url.PathEscape(role))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			c.logger.Warn("failed to close directory response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return nil, fmt.Errorf("directory returned status %d for role %q: %s", resp.StatusCode, role, string(body))
	}

	var parsed roleMembersResponse

	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}

	return parsed.Members, nil
}
