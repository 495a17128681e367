// Package client talks to the console's own HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voucher-console/internal/domain"
)

// APIError is a non-2xx answer from the console API.
type APIError struct {
	Status  int
	Message string
	Details json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("console responded %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	bearer  string
}

type Option func(*Client)

// WithBearer sends token as a Bearer Authorization header on every call.
func WithBearer(token string) Option {
	return func(c *Client) { c.bearer = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type issueResponse struct {
	Message     string `json:"message"`
	IssuanceKey string `json:"issuanceKey"`
}

// RequestCode asks the server to mail a deletion code and returns the issuance key.
func (c *Client) RequestCode(ctx context.Context, req domain.IssueRequest) (string, error) {
	var out issueResponse
	if err := c.post(ctx, "/otp/issue", req, &out); err != nil {
		return "", err
	}
	return out.IssuanceKey, nil
}

// ConfirmDelete submits the code; on success the item is gone from the backend.
func (c *Client) ConfirmDelete(ctx context.Context, req domain.DeletionRequest) error {
	return c.post(ctx, "/otp/verify-and-delete", req, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var env struct {
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		}
		if json.Unmarshal(b, &env) == nil && env.Message != "" {
			apiErr.Message = env.Message
			apiErr.Details = env.Details
		}
		return apiErr
	}
	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
