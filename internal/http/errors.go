package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mobilectl/mobilectl/internal/msg"
)

var (
	// ErrServerError is returned when the server was not able to correctly handle our request (status code >= 500).
	ErrServerError = errors.New(msg.InternalServerError)
	// ErrAccessDenied is returned when the credentials were rejected (401/403).
	ErrAccessDenied = errors.New(msg.AccessDenied)
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New(msg.ResourceNotFound)
)

// checkResponse maps unsuccessful status codes to errors.
func checkResponse(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrAccessDenied
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w (%d)", ErrServerError, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("unexpected server response (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
