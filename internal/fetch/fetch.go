// Package fetch provides URL fetching and HTML-to-text processing for policy documents.
package fetch

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 20 * time.Second

// DefaultUserAgent identifies the checker to remote servers.
const DefaultUserAgent = "anupalankarta/1.0"

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 5 << 20

// Result holds the raw and processed content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	Text        string
	ContentType string
	StatusCode  int
	// Truncated is set when the body was longer than MaxBodyBytes and HTML holds only its prefix.
	Truncated bool
}

// Error is a network failure: invalid URL, connection error, timeout or non-2xx status.
// StatusCode is 0 when no response was received.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns the defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// URL retrieves HTML content from a URL. Any status outside 2xx is an error;
// the partial Result is still returned so callers can inspect the status code.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	fail := func(status int, cause error, format string, args ...any) *Error {
		return &Error{URL: urlStr, Message: fmt.Sprintf(format, args...), StatusCode: status, Cause: cause}
	}

	parsed, err := url.Parse(urlStr)
	switch {
	case err != nil || parsed.Host == "":
		return nil, fail(0, err, "invalid URL")
	case parsed.Scheme != "http" && parsed.Scheme != "https":
		return nil, fail(0, nil, "unsupported scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fail(0, err, "failed to create request")
	}
	req.Header.Set("User-Agent", cmp.Or(opts.UserAgent, DefaultUserAgent))
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: cmp.Or(opts.Timeout, DefaultTimeout)}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fail(0, err, "HTTP request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fail(resp.StatusCode, err, "failed to read response body")
	}
	truncated := len(body) > MaxBodyBytes
	if truncated {
		body = body[:MaxBodyBytes]
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Truncated:   truncated,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fail(resp.StatusCode, nil, "HTTP status %d", resp.StatusCode)
	}
	return result, nil
}
