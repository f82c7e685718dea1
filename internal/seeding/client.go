package seeding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrStatus reports a non-2xx response.
var ErrStatus = errors.New("unexpected status")

// Client is a minimal JSON client for the evaluation API. A zero token means
// anonymous requests.
type Client struct {
	base  string
	http  *http.Client
	token string
}

// NewClient creates an anonymous client for base.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Login returns a client bound to the session of role/userID.
func (c *Client) Login(ctx context.Context, role, userID, password string) (*Client, error) {
	var sess sessionResponse
	body := map[string]string{"role": role, "user_id": userID, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, "", &sess); err != nil {
		return nil, fmt.Errorf("login %s %s: %w", role, userID, err)
	}
	return &Client{base: c.base, http: c.http, token: sess.AccessToken}, nil
}

// Get decodes the JSON response of GET path into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

// Post sends body as JSON with an optional idempotency key.
func (c *Client) Post(ctx context.Context, path string, body any, idemKey string, out any) error {
	return c.do(ctx, http.MethodPost, path, body, idemKey, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any, idemKey string, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		var e errorResponse
		_ = json.Unmarshal(data, &e)
		return fmt.Errorf("%w: %s %s: %d %s", ErrStatus, method, path, resp.StatusCode, e.Code)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
