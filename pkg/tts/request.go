package tts

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// requester sends JSON requests with retry on 429 and 5xx.
type requester struct {
	provider   string
	client     *http.Client
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
	setHeaders func(*http.Request)
	parseError func(*http.Response) error
}

// do sends the request, rebuilding the body for each attempt.
// The caller closes the returned body. Non-retryable statuses are returned
// as-is for the caller to inspect.
func (r *requester) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var lastErr error
	var wait time.Duration

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		wait = r.retryDelay * time.Duration(attempt+1)

		var reader *bytes.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := newRequest(ctx, method, url, reader)
		if err != nil {
			return nil, WrapError(r.provider, err)
		}
		r.setHeaders(req)

		resp, err := r.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = WrapError(r.provider, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = r.parseError(resp)
			resp.Body.Close()

			var apiErr *APIError
			if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > wait {
				wait = apiErr.RetryAfter
			}
			r.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
				"wait", wait,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func newRequest(ctx context.Context, method, url string, body *bytes.Reader) (*http.Request, error) {
	if body == nil {
		return http.NewRequestWithContext(ctx, method, url, nil)
	}
	return http.NewRequestWithContext(ctx, method, url, body)
}
