package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/voucher-console/internal/config"
	"github.com/voucher-console/internal/domain"
)

// maxBody caps how much of a backend response is read.
const maxBody = 4 << 20

// Result is a 2xx backend response. Body is nil when the backend did not answer with JSON.
type Result struct {
	Status int
	Body   json.RawMessage
}

// Client talks to the accounting backend's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.BackendAPIURL,
		http:    &http.Client{Timeout: cfg.BackendTimeout},
	}
}

func (c *Client) Get(ctx context.Context, resource, id string) (*Result, error) {
	return c.do(ctx, http.MethodGet, itemPath(resource, id), nil, nil)
}

func (c *Client) List(ctx context.Context, resource string, query url.Values) (*Result, error) {
	return c.do(ctx, http.MethodGet, "/"+resource, query, nil)
}

func (c *Client) Update(ctx context.Context, resource, id string, body json.RawMessage) (*Result, error) {
	return c.do(ctx, http.MethodPut, itemPath(resource, id), nil, body)
}

// Delete issues exactly one DELETE; it is never retried.
func (c *Client) Delete(ctx context.Context, resource, id string) (*Result, error) {
	return c.do(ctx, http.MethodDelete, itemPath(resource, id), nil, nil)
}

// Fetch performs a GET on an arbitrary backend path such as "/vouchers/counts".
func (c *Client) Fetch(ctx context.Context, path string, query url.Values) (*Result, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func itemPath(resource, id string) string {
	return "/" + resource + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body json.RawMessage) (*Result, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("backend API URL is not configured: %w", domain.ErrConfiguration)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("backend request failed", "method", method, "path", path, "err", err)
		return nil, &domain.BackendError{
			Status:  http.StatusBadGateway,
			Message: "Backend is unreachable. Please try again later.",
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &domain.BackendError{
			Status:  http.StatusBadGateway,
			Message: "Failed to read backend response.",
		}
	}
	isJSON := hasJSONContentType(resp.Header.Get("Content-Type")) && json.Valid(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, normalizeError(method, path, resp, raw, isJSON)
	}
	res := &Result{Status: resp.StatusCode}
	if isJSON {
		res.Body = raw
	}
	return res, nil
}

// normalizeError turns a non-2xx response into a BackendError whose message is
// taken from a JSON body when there is one. Non-JSON bodies are only logged.
func normalizeError(method, path string, resp *http.Response, raw []byte, isJSON bool) *domain.BackendError {
	be := &domain.BackendError{
		Status: resp.StatusCode,
		Message: fmt.Sprintf("Backend request failed. Server responded with: %d %s.",
			resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
	if !isJSON {
		slog.Error("backend returned non-JSON error",
			"method", method, "path", path, "status", resp.StatusCode, "body", truncate(string(raw), 2048))
		return be
	}
	var payload struct {
		Message string `json:"message"`
		Errors  any    `json:"errors"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			be.Message = payload.Message
		}
		be.Details = payload.Errors
	}
	slog.Warn("backend returned error", "method", method, "path", path, "status", resp.StatusCode, "message", be.Message)
	return be
}

func hasJSONContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
