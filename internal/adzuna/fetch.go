package adzuna

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// emptyData is what a failed fetch carries in Result.Data.
var emptyData = json.RawMessage(`[]`)

// ErrInvalidJSON is returned inside a Result when the body is not JSON.
var ErrInvalidJSON = errors.New("response body is not valid JSON")

// ErrBodyTooLarge is returned for responses over maxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// A 30-listing search page is well under 1 MiB.
var maxBodyBytes int64 = 8 << 20

// Result is the uniform outcome of a fetch. Err is nil on success and
// Data holds the raw JSON body; on any failure Err is set and Data is [].
type Result struct {
	Err  error
	Data json.RawMessage
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Fetcher issues a single GET and never returns a Go error.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) Result
}

// Client is the net/http Fetcher.
type Client struct {
	client *http.Client
}

// NewClient constructs a Client with a shared HTTP client.
func NewClient(timeout time.Duration) *Client {
	return &Client{client: &http.Client{Timeout: timeout}}
}

// Fetch performs the GET. A non-2xx response with a JSON body still counts
// as success; only transport, read and parse failures produce Err.
func (c *Client) Fetch(ctx context.Context, rawURL string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = failed(rawURL, fmt.Errorf("panic during fetch: %v", p))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return failed(rawURL, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// *url.Error embeds the request URL, credentials included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redact(uerr.URL)
		}
		return failed(rawURL, fmt.Errorf("http GET: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return failed(rawURL, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > maxBodyBytes {
		return failed(rawURL, fmt.Errorf("%w (limit %d bytes)", ErrBodyTooLarge, maxBodyBytes))
	}

	if !json.Valid(body) {
		return failed(rawURL, fmt.Errorf("status %d: %w", resp.StatusCode, ErrInvalidJSON))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("upstream returned non-2xx JSON", "url", redact(rawURL), "status", resp.StatusCode)
	}

	return Result{Data: json.RawMessage(body)}
}

func failed(rawURL string, err error) Result {
	slog.Error("fetch failed", "url", redact(rawURL), "err", err)
	return Result{Err: err, Data: emptyData}
}

// redact masks the app_key query parameter so URLs can be logged.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("app_key") {
		q.Set("app_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
