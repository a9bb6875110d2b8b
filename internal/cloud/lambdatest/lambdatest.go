// Package lambdatest implements the LambdaTest real device cloud.
package lambdatest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mobilectl/mobilectl/internal/caps"
	"github.com/mobilectl/mobilectl/internal/cloud"
	"github.com/mobilectl/mobilectl/internal/credentials"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/devicestatus"
	"github.com/mobilectl/mobilectl/internal/http"
)

const (
	// APIBaseURL is the LambdaTest mobile automation REST endpoint.
	APIBaseURL = "https://mobile-api.lambdatest.com"
	// UploadBaseURL is the LambdaTest app upload endpoint.
	UploadBaseURL = "https://manual-api.lambdatest.com"
	// HubURL is the LambdaTest mobile automation endpoint.
	HubURL = "https://mobile-hub.lambdatest.com/wd/hub"
)

// Provider implements cloud.Provider for LambdaTest.
type Provider struct {
	cloud.State
	Client    http.VendorClient
	UploadURL string
}

type listResponse struct {
	Data []struct {
		Platform string `json:"platform"`
		Brand    string `json:"brand"`
		Devices  []struct {
			DeviceName string `json:"deviceName"`
			OSVersion  string `json:"osVersion"`
			Available  *bool  `json:"available"`
		} `json:"devices"`
	} `json:"data"`
}

type uploadResponse struct {
	AppURL string `json:"app_url"`
	Name   string `json:"name"`
}

// New creates a new LambdaTest provider.
func New(url, uploadURL string, creds credentials.Credentials, timeout time.Duration) *Provider {
	return &Provider{
		Client:    http.NewVendorClient(url, creds.Username, creds.AccessKey, timeout),
		UploadURL: uploadURL,
	}
}

// Tag returns the vendor tag.
func (p *Provider) Tag() devices.Tag {
	return devices.LambdaTest
}

// Initialize probes the build list, which requires valid credentials.
func (p *Provider) Initialize(ctx context.Context) error {
	p.SetEnabled(false)
	if p.Client.Username == "" || p.Client.AccessKey == "" {
		return cloud.ErrMissingCredentials
	}
	if err := p.Client.GetJSON(ctx, "/mobile-automation/api/v1/builds?limit=1", nil); err != nil {
		return fmt.Errorf("failed to verify lambdatest account: %w", err)
	}
	p.SetEnabled(true)
	return nil
}

// DiscoverDevices lists all real devices offered by LambdaTest.
func (p *Provider) DiscoverDevices(ctx context.Context) ([]devices.CloudDevice, error) {
	var resp listResponse
	if err := p.Client.GetJSON(ctx, "/mobile-automation/api/v1/list", &resp); err != nil {
		return nil, fmt.Errorf("failed to list lambdatest devices: %w", err)
	}

	var devs []devices.CloudDevice
	for _, group := range resp.Data {
		platform := devices.Platform(strings.ToLower(group.Platform))
		if !platform.Valid() {
			continue
		}
		for _, d := range group.Devices {
			status := devicestatus.Unknown
			if d.Available != nil {
				status = devicestatus.Offline
				if *d.Available {
					status = devicestatus.Available
				}
			}

			rawID := devices.Slugify(d.DeviceName + " " + d.OSVersion)
			devs = append(devs, devices.CloudDevice{
				Device: devices.Device{
					ID:           devices.LambdaTest.DeviceID(rawID),
					FriendlyName: fmt.Sprintf("%s (%s %s)", d.DeviceName, platform.SessionName(), d.OSVersion),
					DeviceID:     d.DeviceName,
					Platform:     platform,
					Type:         devices.Physical,
					Model:        d.DeviceName,
					OSVersion:    d.OSVersion,
					Active:       true,
				},
				Provider:      devices.LambdaTest,
				RawID:         rawID,
				Status:        status,
				CloudMetadata: map[string]any{"brand": group.Brand},
			})
		}
	}
	p.Remember(devs)

	return devs, nil
}

// Capabilities returns the session capabilities for rawID in LambdaTest's dialect.
func (p *Provider) Capabilities(ctx context.Context, rawID string, app caps.Capabilities) (caps.Capabilities, error) {
	d, err := p.Resolve(ctx, rawID, p.DiscoverDevices)
	if err != nil {
		return nil, err
	}

	base := caps.Capabilities{
		caps.PlatformName:    d.Platform.SessionName(),
		caps.DeviceName:      d.Model,
		caps.PlatformVersion: d.OSVersion,
		caps.AutomationName:  d.Platform.AutomationName(),
		"lt:options": map[string]any{
			"username":     p.Client.Username,
			"accessKey":    p.Client.AccessKey,
			"isRealMobile": true,
		},
	}

	return caps.Merge(base, app), nil
}

// HubURL returns the LambdaTest hub.
func (p *Provider) HubURL() (string, bool) {
	return HubURL, true
}

// UploadApp uploads the app at path and returns its lt:// reference.
func (p *Provider) UploadApp(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var resp uploadResponse
	if err := p.Client.Upload(ctx, p.UploadURL+"/app/upload/realDevice", "appFile", filepath.Base(path), f, &resp); err != nil {
		return "", fmt.Errorf("failed to upload app to lambdatest: %w", err)
	}

	return resp.AppURL, nil
}

// SupportedPlatforms returns android and ios.
func (p *Provider) SupportedPlatforms() []devices.Platform {
	return []devices.Platform{devices.Android, devices.IOS}
}

// Pricing returns LambdaTest's pricing model.
func (p *Provider) Pricing() cloud.Pricing {
	return cloud.Pricing{
		Model:    "subscription, per parallel test",
		FreeTier: "60 minutes per month",
		URL:      "https://www.lambdatest.com/pricing",
	}
}
