// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retrying GET transport used by the search
// stage.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// BadGatewayDelay is the linear backoff unit for HTTP 502: attempt n waits
// n * BadGatewayDelay. TimeoutDelay is the fixed wait after a timed-out
// attempt. Tests override both to avoid real sleeps.
var (
	BadGatewayDelay = 2 * time.Second
	TimeoutDelay    = 3 * time.Second
)

const (
	// DefaultMaxAttempts is the total attempt budget, first try included.
	DefaultMaxAttempts = 3

	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 10 << 20
)

// Retrier issues GET requests and retries transient failures:
//
//   - HTTP 502 waits attempt * BadGatewayDelay before the next attempt;
//   - a timed-out attempt waits TimeoutDelay;
//   - connection errors and bodies rejected by Accept retry immediately;
//   - any other non-200 status fails at once with *types.APIError.
type Retrier struct {
	Client *http.Client

	// Source names the remote API in errors and logs.
	Source string

	// MaxAttempts defaults to DefaultMaxAttempts when <= 0.
	MaxAttempts int

	// Timeout bounds each attempt; DefaultTimeout when zero.
	Timeout time.Duration

	// Header is added to every request.
	Header http.Header

	// Accept validates a 200 body. A non-nil error marks the attempt as
	// failed and retryable; it is reported wrapped in types.ErrParse.
	Accept func(body []byte) error

	// Sleep waits between attempts. Nil means a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	Log zerolog.Logger
}

// Get fetches url and returns the body of the first acceptable 200
// response. After the attempt budget is spent the error wraps the last
// cause.
func (r *Retrier) Get(ctx context.Context, url string) ([]byte, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, wait, err := r.attempt(ctx, url, attempt)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var apiErr *types.APIError
		if errors.As(err, &apiErr) && apiErr.Status != http.StatusBadGateway {
			return nil, err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		r.Log.Warn().Err(err).
			Str("source", r.Source).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("request failed, retrying")
		if wait > 0 {
			if err := r.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%s: giving up after %d attempts: %w", r.Source, attempts, lastErr)
}

// attempt performs one request and reports how long to wait before the
// next one if it failed.
func (r *Retrier) attempt(ctx context.Context, url string, attempt int) ([]byte, time.Duration, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, TimeoutDelay, fmt.Errorf("%w: %s request timed out after %v", types.ErrNetwork, r.Source, timeout)
		}
		return nil, 0, fmt.Errorf("%w: %s request: %v", types.ErrNetwork, r.Source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, TimeoutDelay, fmt.Errorf("%w: reading %s response timed out", types.ErrNetwork, r.Source)
		}
		return nil, 0, fmt.Errorf("%w: reading %s response: %v", types.ErrNetwork, r.Source, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadGateway:
		return nil, time.Duration(attempt) * BadGatewayDelay, &types.APIError{Source: r.Source, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, 0, &types.APIError{Source: r.Source, Status: resp.StatusCode, Body: snippet(body)}
	}

	if r.Accept != nil {
		if err := r.Accept(body); err != nil {
			if !errors.Is(err, types.ErrParse) {
				err = fmt.Errorf("%w: %s response rejected: %v", types.ErrParse, r.Source, err)
			}
			return nil, 0, err
		}
	}
	return body, 0, nil
}

func (r *Retrier) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// snippet trims an error body to something loggable.
func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
