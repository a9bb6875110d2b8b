package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/mobilectl/mobilectl/internal/caps"
	"github.com/mobilectl/mobilectl/internal/cloud"
	"github.com/mobilectl/mobilectl/internal/devices"
)

// FakeProvider is a mock for the cloud.Provider interface.
// Unset function fields fall back to benign defaults.
type FakeProvider struct {
	TagValue          devices.Tag
	InitializeFn      func(context.Context) error
	DiscoverDevicesFn func(context.Context) ([]devices.CloudDevice, error)
	CapabilitiesFn    func(context.Context, string, caps.Capabilities) (caps.Capabilities, error)
	UploadAppFn       func(context.Context, string) (string, error)
	Hub               string

	mu      sync.Mutex
	enabled bool
}

// NewFakeProviders returns an enabled fake for every known vendor.
func NewFakeProviders() []*FakeProvider {
	var pp []*FakeProvider
	for _, tag := range devices.Tags {
		pp = append(pp, &FakeProvider{TagValue: tag, enabled: true})
	}
	return pp
}

// AsProviders converts fakes to the cloud.Provider interface.
func AsProviders(fakes []*FakeProvider) []cloud.Provider {
	pp := make([]cloud.Provider, len(fakes))
	for i, f := range fakes {
		pp[i] = f
	}
	return pp
}

// Tag returns TagValue.
func (p *FakeProvider) Tag() devices.Tag {
	return p.TagValue
}

// Initialize is a wrapper around InitializeFn. The provider is enabled if InitializeFn is unset or succeeds.
func (p *FakeProvider) Initialize(ctx context.Context) error {
	var err error
	if p.InitializeFn != nil {
		err = p.InitializeFn(ctx)
	}
	p.SetEnabled(err == nil)
	return err
}

// Enabled reports the current enabled state.
func (p *FakeProvider) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// SetEnabled overrides the enabled state.
func (p *FakeProvider) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// DiscoverDevices is a wrapper around DiscoverDevicesFn.
func (p *FakeProvider) DiscoverDevices(ctx context.Context) ([]devices.CloudDevice, error) {
	if p.DiscoverDevicesFn == nil {
		return nil, nil
	}
	return p.DiscoverDevicesFn(ctx)
}

// Capabilities is a wrapper around CapabilitiesFn. Without it, the raw ID is echoed back under "fake:device".
func (p *FakeProvider) Capabilities(ctx context.Context, rawID string, app caps.Capabilities) (caps.Capabilities, error) {
	if p.CapabilitiesFn != nil {
		return p.CapabilitiesFn(ctx, rawID, app)
	}
	return caps.Merge(caps.Capabilities{"fake:device": rawID}, app), nil
}

// HubURL returns Hub. An empty Hub means the provider has no hub.
func (p *FakeProvider) HubURL() (string, bool) {
	return p.Hub, p.Hub != ""
}

// UploadApp is a wrapper around UploadAppFn.
func (p *FakeProvider) UploadApp(ctx context.Context, path string) (string, error) {
	if p.UploadAppFn == nil {
		return "", errors.New("upload not supported")
	}
	return p.UploadAppFn(ctx, path)
}

// SupportedPlatforms returns both platforms.
func (p *FakeProvider) SupportedPlatforms() []devices.Platform {
	return []devices.Platform{devices.Android, devices.IOS}
}

// Pricing returns a fixed value.
func (p *FakeProvider) Pricing() cloud.Pricing {
	return cloud.Pricing{Model: "fake"}
}
