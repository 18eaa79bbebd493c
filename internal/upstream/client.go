// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package upstream fetches PeeringDB data from the two public surfaces:
// the static full-snapshot dump and the paginated live API.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

var (
	// ErrRateLimited is returned once the retry budget for a page is
	// exhausted on HTTP 429 responses.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrMalformed marks a response whose shape we cannot ingest.
	ErrMalformed = errors.New("upstream response malformed")
)

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d for %s", e.StatusCode, e.URL)
}

type Config struct {
	SnapshotBaseURL string
	LiveBaseURL     string
	UserAgent       string
	Timeout         time.Duration
	// RetryAttempts is the number of retries after the first try.
	RetryAttempts uint
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration
}

type Client struct {
	httpClient    *http.Client
	snapshotBase  string
	liveBase      string
	userAgent     string
	retryAttempts uint
	retryDelay    time.Duration
	retryMaxDelay time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		snapshotBase:  cfg.SnapshotBaseURL,
		liveBase:      cfg.LiveBaseURL,
		userAgent:     cfg.UserAgent,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		retryMaxDelay: cfg.RetryMaxDelay,
	}
}

type envelope struct {
	Data []json.RawMessage `json:"data"`
}

// FetchSnapshot pulls the full dump for a resource. The snapshot host is
// a static file server, so there is no pagination and no retry contract.
func (c *Client) FetchSnapshot(ctx context.Context, resource string) ([]json.RawMessage, error) {
	url := fmt.Sprintf("%s/%s-0.json", c.snapshotBase, resource)
	return c.fetch(ctx, url)
}

// FetchPage pulls one page from the live API. Rate-limit responses and
// transient server/network errors are retried with exponential backoff up
// to the configured ceiling; other client errors fail immediately.
func (c *Client) FetchPage(ctx context.Context, resource string, since, limit, skip int64) ([]json.RawMessage, error) {
	url := fmt.Sprintf("%s/%s?since=%d&limit=%d&skip=%d", c.liveBase, resource, since, limit, skip)

	var data []json.RawMessage
	err := retry.Do(func() error {
		var err error
		data, err = c.fetch(ctx, url)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(c.retryAttempts+1),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(c.retryMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			zap.L().Warn("retrying upstream fetch",
				zap.String("resource", resource),
				zap.Int64("skip", skip),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, url)
	}
	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, url, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: %s: missing data array", ErrMalformed, url)
	}
	return env.Data, nil
}

// isRetryable: 429 and server errors are worth another try; anything
// else (malformed body, 4xx) will not get better by waiting.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	if errors.Is(err, ErrMalformed) {
		return false
	}
	// Transport-level failure (timeout, connection reset, DNS).
	return true
}
