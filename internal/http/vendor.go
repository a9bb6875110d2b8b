package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mobilectl/mobilectl/internal/multipartext"
	"github.com/mobilectl/mobilectl/internal/progress"
)

// VendorClient talks to a device farm REST API that uses basic authentication and JSON payloads.
type VendorClient struct {
	Client    *retryablehttp.Client
	URL       string
	Username  string
	AccessKey string
}

// NewVendorClient creates a new client.
func NewVendorClient(url, username, accessKey string, timeout time.Duration) VendorClient {
	return VendorClient{
		Client:    NewRetryableClient(timeout),
		URL:       url,
		Username:  username,
		AccessKey: accessKey,
	}
}

// GetJSON performs a GET request against path (relative to URL) and decodes the response into v.
func (c *VendorClient) GetJSON(ctx context.Context, path string, v interface{}) error {
	req, err := NewRetryableRequestWithContext(ctx, http.MethodGet, c.URL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.Username, c.AccessKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("unable to parse server response: %w", err)
	}

	return nil
}

// Upload sends src as a multipart form file to url and decodes the response into v. src is rewound when the
// request is retried.
func (c *VendorClient) Upload(ctx context.Context, url, field, filename string, src io.ReadSeeker, v interface{}) error {
	body, contentType, err := multipartext.NewMultipartReadSeeker(field, filename, nil, progress.ReadSeeker(ctx, src))
	if err != nil {
		return err
	}

	req, err := NewRetryableRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(c.Username, c.AccessKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("upload status unknown: unable to parse server response: %w", err)
	}

	return nil
}
