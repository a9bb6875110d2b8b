// Package http holds the HTTP plumbing shared by the device farm adapters.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mobilectl/mobilectl/internal/logger"
	"github.com/mobilectl/mobilectl/internal/version"
)

// NewRetryableClient returns a client that retries connection errors and server side failures up to three
// times. Rejected credentials are final.
func NewRetryableClient(timeout time.Duration) *retryablehttp.Client {
	return &retryablehttp.Client{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
		Logger:       &logger.Logger{},
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 30 * time.Second,
		RetryMax:     3,
		CheckRetry: func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			if err == nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				return false, nil
			}
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		},
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
}

// NewRequestWithContext returns a plain request identifying mobilectl as its user agent.
func NewRequestWithContext(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	r.Header.Set("User-Agent", version.UserAgent())
	return r, nil
}

// NewRetryableRequestWithContext is NewRequestWithContext for retryablehttp. body must be rewindable, i.e. nil,
// a byte slice or an io.ReadSeeker, for the request to be sent more than once.
func NewRetryableRequestWithContext(ctx context.Context, method, url string, body interface{}) (*retryablehttp.Request, error) {
	r, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	r.Header.Set("User-Agent", version.UserAgent())
	return r, nil
}
