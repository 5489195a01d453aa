package metadata

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultUserAgent is a browser-like agent; several providers reject bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
)

// Requester performs provider HTTP calls and maps status codes onto the
// shared sentinel errors.
type Requester struct {
	HTTP      *http.Client
	UserAgent string
	Logger    *slog.Logger
}

// NewRequester creates a requester with a bounded client timeout.
func NewRequester(userAgent string, logger *slog.Logger) *Requester {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Requester{
		HTTP:      &http.Client{Timeout: defaultTimeout},
		UserAgent: userAgent,
		Logger:    logger,
	}
}

// Get fetches rawURL with query appended and returns the body on 200.
func (r *Requester) Get(ctx context.Context, rawURL string, query url.Values, header http.Header) ([]byte, error) {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return r.do(req, header)
}

// PostJSON marshals body and posts it to rawURL.
func (r *Requester) PostJSON(ctx context.Context, rawURL string, body any, header http.Header) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req, header)
}

// GetJSON fetches and decodes a JSON document into v.
func (r *Requester) GetJSON(ctx context.Context, rawURL string, query url.Values, v any) error {
	body, err := r.Get(ctx, rawURL, query, http.Header{"Accept": []string{"application/json"}})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (r *Requester) do(req *http.Request, header http.Header) ([]byte, error) {
	req.Header.Set("User-Agent", r.UserAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if r.Logger != nil {
		r.Logger.Debug("provider request",
			"method", req.Method,
			"host", req.URL.Host,
			"path", req.URL.Path,
		)
	}

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
