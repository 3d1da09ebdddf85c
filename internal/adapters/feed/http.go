package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (f *HTTPInventoryRepository) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (f *HTTPInventoryRepository) do(req *http.Request) (*http.Response, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// fetch GETs url and returns the body, retrying transient failures (network
// errors, 429 and 5xx) with exponential backoff while respecting ctx.
func (f *HTTPInventoryRepository) fetch(ctx context.Context, url string) ([]byte, error) {
	backoff := f.backoff
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := f.newRequest(ctx, url)
		if err != nil {
			return nil, err
		}

		resp, err := f.do(req)
		if err == nil {
			body, rerr := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
			resp.Body.Close()
			if rerr == nil && int64(len(body)) > f.maxBody {
				return nil, fmt.Errorf("feed response exceeds %d bytes", f.maxBody)
			}
			if rerr == nil {
				return body, nil
			}
			err = rerr
		}
		lastErr = err

		if !retryable(err) || attempt == f.maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, lastErr
}

func retryable(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
