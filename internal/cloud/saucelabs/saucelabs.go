// Package saucelabs implements the Sauce Labs real device cloud.
package saucelabs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mobilectl/mobilectl/internal/caps"
	"github.com/mobilectl/mobilectl/internal/cloud"
	"github.com/mobilectl/mobilectl/internal/credentials"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/devicestatus"
	"github.com/mobilectl/mobilectl/internal/http"
	"github.com/mobilectl/mobilectl/internal/region"
)

// Provider implements cloud.Provider for Sauce Labs.
type Provider struct {
	cloud.State
	Client http.VendorClient
	Region region.Region
}

type device struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	OS           string   `json:"os"`
	OSVersion    string   `json:"osVersion"`
	Manufacturer []string `json:"manufacturer"`
	ModelNumber  string   `json:"modelNumber"`
	IsPrivate    bool     `json:"isPrivate"`
}

type statusResponse struct {
	Devices []struct {
		Descriptor string `json:"descriptor"`
		State      string `json:"state"`
	} `json:"devices"`
}

type uploadResponse struct {
	Item struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"item"`
}

// New creates a new Sauce Labs provider for region r.
func New(r region.Region, creds credentials.Credentials, timeout time.Duration) *Provider {
	return &Provider{
		Client: http.NewVendorClient(r.APIBaseURL(), creds.Username, creds.AccessKey, timeout),
		Region: r,
	}
}

// Tag returns the vendor tag.
func (p *Provider) Tag() devices.Tag {
	return devices.SauceLabs
}

// Initialize probes the current user, which requires valid credentials.
func (p *Provider) Initialize(ctx context.Context) error {
	p.SetEnabled(false)
	if p.Client.Username == "" || p.Client.AccessKey == "" {
		return cloud.ErrMissingCredentials
	}
	if p.Region == region.None {
		return errors.New("unknown sauce labs region")
	}
	if err := p.Client.GetJSON(ctx, "/team-management/v1/users/me", nil); err != nil {
		return fmt.Errorf("failed to verify sauce labs account: %w", err)
	}
	p.SetEnabled(true)
	return nil
}

// DiscoverDevices lists all real devices in the region along with their current state.
func (p *Provider) DiscoverDevices(ctx context.Context) ([]devices.CloudDevice, error) {
	var resp []device
	if err := p.Client.GetJSON(ctx, "/v1/rdc/devices", &resp); err != nil {
		return nil, fmt.Errorf("failed to list sauce labs devices: %w", err)
	}

	states := map[string]devicestatus.Status{}
	var st statusResponse
	if err := p.Client.GetJSON(ctx, "/v1/rdc/devices/status", &st); err != nil {
		log.Debug().Err(err).Msg("Unable to fetch sauce labs device states.")
	}
	for _, d := range st.Devices {
		states[d.Descriptor] = devicestatus.Make(d.State)
	}

	var devs []devices.CloudDevice
	for _, d := range resp {
		platform := devices.Platform(strings.ToLower(d.OS))
		if !platform.Valid() {
			continue
		}
		status, ok := states[d.ID]
		if !ok {
			status = devicestatus.Unknown
		}
		devs = append(devs, devices.CloudDevice{
			Device: devices.Device{
				ID:           devices.SauceLabs.DeviceID(d.ID),
				FriendlyName: d.Name,
				DeviceID:     d.ID,
				Platform:     platform,
				Type:         devices.Physical,
				Model:        d.ModelNumber,
				OSVersion:    d.OSVersion,
				Active:       true,
			},
			Provider: devices.SauceLabs,
			RawID:    d.ID,
			Status:   status,
			CloudMetadata: map[string]any{
				"manufacturer": strings.Join(d.Manufacturer, ", "),
				"private":      d.IsPrivate,
				"region":       p.Region.String(),
			},
		})
	}
	p.Remember(devs)

	return devs, nil
}

// Capabilities returns the session capabilities for the device descriptor rawID in Sauce Labs' dialect.
func (p *Provider) Capabilities(ctx context.Context, rawID string, app caps.Capabilities) (caps.Capabilities, error) {
	d, err := p.Resolve(ctx, rawID, p.DiscoverDevices)
	if err != nil {
		return nil, err
	}

	base := caps.Capabilities{
		caps.PlatformName:    d.Platform.SessionName(),
		caps.DeviceName:      d.RawID,
		caps.PlatformVersion: d.OSVersion,
		caps.AutomationName:  d.Platform.AutomationName(),
		"sauce:options": map[string]any{
			"username":  p.Client.Username,
			"accessKey": p.Client.AccessKey,
		},
	}

	return caps.Merge(base, app), nil
}

// HubURL returns the regional Sauce Labs hub.
func (p *Provider) HubURL() (string, bool) {
	hub := p.Region.HubURL()
	return hub, hub != ""
}

// UploadApp uploads the app at path to Sauce Labs storage and returns its storage:<id> reference.
func (p *Provider) UploadApp(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var resp uploadResponse
	if err := p.Client.Upload(ctx, p.Client.URL+"/v1/storage/upload", "payload", filepath.Base(path), f, &resp); err != nil {
		return "", fmt.Errorf("failed to upload app to sauce labs: %w", err)
	}

	return "storage:" + resp.Item.ID, nil
}

// SupportedPlatforms returns android and ios.
func (p *Provider) SupportedPlatforms() []devices.Platform {
	return []devices.Platform{devices.Android, devices.IOS}
}

// Pricing returns Sauce Labs' pricing model.
func (p *Provider) Pricing() cloud.Pricing {
	return cloud.Pricing{
		Model:    "subscription, per concurrent session",
		FreeTier: "28 day trial",
		URL:      "https://saucelabs.com/pricing",
	}
}
