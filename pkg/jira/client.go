package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiRoot is the REST API version root every request path is relative to.
const apiRoot = "/rest/api/3"

// Config carries the credentials for one Jira Cloud instance.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
}

// Client issues authenticated requests against the Jira REST API. It holds
// no state beyond the derived auth header; responses are never retained.
type Client struct {
	baseURL string
	auth    string
	client  *http.Client
}

// NewClient creates a Client from instance credentials.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		auth:    base64.StdEncoding.EncodeToString([]byte(cfg.Email + ":" + cfg.APIToken)),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from Jira, carrying the status code and the
// raw response body.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira api error (%d): %s", e.StatusCode, e.Body)
}

// Request sends one API call and decodes the JSON response into out when out
// is non-nil. Empty and 204 responses leave out untouched. Non-2xx responses
// return an *APIError; transport failures propagate unchanged. There are no
// retries.
func (c *Client) Request(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiRoot+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Basic "+c.auth)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Request(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, payload, out interface{}) error {
	return c.Request(ctx, http.MethodPost, path, payload, out)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, payload, out interface{}) error {
	return c.Request(ctx, http.MethodPut, path, payload, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

// User is the identity shape returned by /myself and the user lookups.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
	AccountType  string `json:"accountType"`
}

// Myself validates the configured credentials and returns the authenticated
// user's identity. Used as the adapter's sync/health check.
func (c *Client) Myself(ctx context.Context) (User, error) {
	var user User
	if err := c.Get(ctx, "/myself", &user); err != nil {
		return User{}, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}
