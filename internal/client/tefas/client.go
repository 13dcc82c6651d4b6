package tefas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound means the source has no rows for the requested fund/date.
// It is an expected outcome, not a failure.
var ErrNotFound = errors.New("tefas: no data for fund")

// APIError is a non-retryable HTTP-level rejection from the source.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tefas API error (%d): %s", e.Status, e.Body)
}

// SourceError means the source stayed unreachable through the whole retry
// budget. It is transient from the caller's point of view.
type SourceError struct {
	Attempts int
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("tefas unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ParseError means the source answered but the document did not match the
// expected shape. Not retried: it signals a format change, not an outage.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tefas parse error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("tefas parse error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RetryPolicy bounds the retry loop for transport failures and 5xx answers.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Ceil        time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Base <= 0 {
		p.Base = 500 * time.Millisecond
	}
	if p.Ceil <= 0 {
		p.Ceil = 8 * time.Second
	}
	return p
}

type Client struct {
	host       string
	httpClient *http.Client
	retry      RetryPolicy

	// sleep is swapped for a fake in tests.
	sleep func(time.Duration)
}

func NewClient(httpClient *http.Client, host string, retry RetryPolicy) *Client {
	if host == "" {
		host = "https://www.tefas.gov.tr"
	}
	host = strings.TrimRight(host, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
		retry:      retry.normalized(),
		sleep:      time.Sleep,
	}
}

// doRequest posts a form to the source and returns the body. Transport
// failures and 5xx answers are retried with exponential backoff up to the
// policy's attempt budget; 4xx answers are not.
func (c *Client) doRequest(ctx context.Context, path string, form url.Values) ([]byte, error) {
	fullURL := c.host + path
	backoff := c.retry.Base

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			c.sleep(backoff)
			backoff *= 2
			if backoff > c.retry.Ceil {
				backoff = c.retry.Ceil
			}
		}

		body, retryable, err := c.doOnce(ctx, fullURL, form)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, &SourceError{Attempts: c.retry.MaxAttempts, Err: lastErr}
}

func (c *Client) doOnce(ctx context.Context, fullURL string, form url.Values) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, true, &APIError{Status: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, &APIError{Status: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
