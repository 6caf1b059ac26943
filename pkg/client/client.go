// Package client is a Go SDK for the forum HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"resty.dev/v3"
)

// APIError is a non-2xx reply from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("forum api: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	client *resty.Client
	logger *slog.Logger
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.SetTimeout(d) }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		client: resty.New().SetBaseURL(baseURL),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Close() error {
	return c.client.Close()
}

// r starts a request, authenticated when token is set.
func (c *Client) r(ctx context.Context, token string) *resty.Request {
	req := c.client.R().WithContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func check(res *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !res.IsError() {
		return nil
	}

	apiErr := &APIError{StatusCode: res.StatusCode(), Message: http.StatusText(res.StatusCode())}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(res.String()), &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}
