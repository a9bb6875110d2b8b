package http

import (
	"context"
	"io"
	"net/http"

	"github.com/mobilectl/mobilectl/internal/progress"
)

// PutPresigned uploads src to a presigned URL. The URL carries its own authorization, so no credentials are sent.
func PutPresigned(ctx context.Context, client *http.Client, url string, src io.Reader, size int64) error {
	req, err := NewRequestWithContext(ctx, http.MethodPut, url, progress.Reader(ctx, src))
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkResponse(resp)
}
