// Package browserstack implements the BrowserStack App Automate device farm.
package browserstack

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
	// APIBaseURL is the BrowserStack REST endpoint.
	APIBaseURL = "https://api-cloud.browserstack.com"
	// HubURL is the BrowserStack automation endpoint.
	HubURL = "https://hub-cloud.browserstack.com/wd/hub"
)

// Provider implements cloud.Provider for BrowserStack.
type Provider struct {
	cloud.State
	Client http.VendorClient
}

type device struct {
	OS         string `json:"os"`
	OSVersion  string `json:"os_version"`
	Device     string `json:"device"`
	RealMobile bool   `json:"realMobile"`
}

type uploadResponse struct {
	AppURL string `json:"app_url"`
}

// New creates a new BrowserStack provider.
func New(url string, creds credentials.Credentials, timeout time.Duration) *Provider {
	return &Provider{
		Client: http.NewVendorClient(url, creds.Username, creds.AccessKey, timeout),
	}
}

// Tag returns the vendor tag.
func (p *Provider) Tag() devices.Tag {
	return devices.BrowserStack
}

// Initialize probes the account plan, which requires valid credentials.
func (p *Provider) Initialize(ctx context.Context) error {
	p.SetEnabled(false)
	if p.Client.Username == "" || p.Client.AccessKey == "" {
		return cloud.ErrMissingCredentials
	}
	if err := p.Client.GetJSON(ctx, "/app-automate/plan.json", nil); err != nil {
		return fmt.Errorf("failed to verify browserstack account: %w", err)
	}
	p.SetEnabled(true)
	return nil
}

// DiscoverDevices lists all real devices available to the account.
func (p *Provider) DiscoverDevices(ctx context.Context) ([]devices.CloudDevice, error) {
	var resp []device
	if err := p.Client.GetJSON(ctx, "/app-automate/devices.json", &resp); err != nil {
		return nil, fmt.Errorf("failed to list browserstack devices: %w", err)
	}

	var devs []devices.CloudDevice
	for _, d := range resp {
		platform := devices.Platform(strings.ToLower(d.OS))
		if !platform.Valid() {
			continue
		}
		rawID := RawID(d.Device, d.OSVersion)
		devs = append(devs, devices.CloudDevice{
			Device: devices.Device{
				ID:           devices.BrowserStack.DeviceID(rawID),
				FriendlyName: fmt.Sprintf("%s (%s %s)", d.Device, platform.SessionName(), d.OSVersion),
				DeviceID:     d.Device,
				Platform:     platform,
				Type:         devices.Physical,
				Model:        d.Device,
				OSVersion:    d.OSVersion,
				Active:       true,
			},
			Provider: devices.BrowserStack,
			RawID:    rawID,
			Status:   devicestatus.Available,
			CloudMetadata: map[string]any{
				"real_mobile": d.RealMobile,
			},
		})
	}
	p.Remember(devs)

	return devs, nil
}

// RawID derives the device ID BrowserStack devices are addressed by, e.g. "google-pixel-7-13-0".
func RawID(name, osVersion string) string {
	return devices.Slugify(name + " " + osVersion)
}

// Capabilities returns the session capabilities for rawID in BrowserStack's dialect.
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
		"bstack:options": map[string]any{
			"userName":   p.Client.Username,
			"accessKey":  p.Client.AccessKey,
			"realMobile": "true",
		},
	}

	return caps.Merge(base, app), nil
}

// HubURL returns the BrowserStack hub.
func (p *Provider) HubURL() (string, bool) {
	return HubURL, true
}

// UploadApp uploads the app at path and returns its bs:// reference.
func (p *Provider) UploadApp(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var resp uploadResponse
	if err := p.Client.Upload(ctx, p.Client.URL+"/app-automate/upload", "file", filepath.Base(path), f, &resp); err != nil {
		return "", fmt.Errorf("failed to upload app to browserstack: %w", err)
	}

	return resp.AppURL, nil
}

// SupportedPlatforms returns android and ios.
func (p *Provider) SupportedPlatforms() []devices.Platform {
	return []devices.Platform{devices.Android, devices.IOS}
}

// Pricing returns BrowserStack's pricing model.
func (p *Provider) Pricing() cloud.Pricing {
	return cloud.Pricing{
		Model:    "subscription, per parallel session",
		FreeTier: "100 minutes trial",
		URL:      "https://www.browserstack.com/pricing",
	}
}
