// Package apiclient is a small REST client for the management API, used by
// the CLI commands that talk to a running server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quarryhq/quarry/pkg/web"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Client talks to one server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Session token after Login, otherwise alias/secret Basic credentials.
	sessionToken  string
	alias, secret string
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetCredentials configures Basic access-token credentials.
func (c *Client) SetCredentials(alias, secret string) {
	c.alias, c.secret = alias, secret
	c.sessionToken = ""
}

// Login exchanges the configured credentials for a session token, which is
// used for subsequent calls.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"alias": c.alias, "secret": c.secret})
	if err != nil {
		return err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &resp); err != nil {
		return err
	}

	c.sessionToken = resp.Token
	return nil
}

// Status fetches the server status.
func (c *Client) Status(ctx context.Context) (*web.StatusResponse, error) {
	var resp web.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Failures fetches the recorded failures.
func (c *Client) Failures(ctx context.Context) (*web.FailuresResponse, error) {
	var resp web.FailuresResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/failures", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats fetches the most-resolved artifact paths.
func (c *Client) Stats(ctx context.Context, limit int) (*web.StatsResponse, error) {
	path := "/api/v1/stats"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp web.StatsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTokens fetches all access tokens.
func (c *Client) ListTokens(ctx context.Context) ([]web.TokenInfo, error) {
	var resp web.TokensResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tokens/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

// CreateToken creates a new access token and returns it with its one-time
// secret.
func (c *Client) CreateToken(ctx context.Context, req web.CreateTokenRequest) (*web.CreateTokenResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var resp web.CreateTokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/tokens/", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteToken removes the access token stored under alias.
func (c *Client) DeleteToken(ctx context.Context, alias string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tokens/"+url.PathEscape(alias), nil, nil)
}

// ExecuteCommand schedules a console command on the server.
func (c *Client) ExecuteCommand(ctx context.Context, command string) error {
	body, err := json.Marshal(map[string]string{"command": command})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/v1/console", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	switch {
	case c.sessionToken != "":
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	case c.alias != "":
		req.SetBasicAuth(c.alias, c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, &apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
