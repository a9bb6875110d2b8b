// Package cloud federates cloud device farm vendors behind a single interface.
package cloud

import (
	"context"
	"errors"

	"github.com/mobilectl/mobilectl/internal/caps"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/msg"
)

var (
	// ErrDeviceNotFound is returned by providers for raw device IDs they do not offer.
	ErrDeviceNotFound = errors.New("device not offered by provider")
	// ErrMissingCredentials is returned by Initialize when no credentials are configured.
	ErrMissingCredentials = errors.New(msg.EmptyCredentials)
)

// Pricing summarizes how a vendor bills device usage.
type Pricing struct {
	Model    string `json:"model"`
	FreeTier string `json:"free_tier,omitempty"`
	URL      string `json:"url"`
}

// Provider is the contract implemented once per device farm vendor.
type Provider interface {
	// Tag returns the vendor tag used to prefix unified device IDs.
	Tag() devices.Tag
	// Initialize validates credentials and reachability. A provider is enabled only after a successful call.
	// Initialize must not panic; failures are reported through the returned error and leave the provider disabled.
	Initialize(ctx context.Context) error
	// Enabled reports whether the last Initialize succeeded.
	Enabled() bool
	// DiscoverDevices lists the devices offered by the vendor. Device IDs carry the vendor prefix.
	DiscoverDevices(ctx context.Context) ([]devices.CloudDevice, error)
	// Capabilities returns the session capabilities, in the vendor's dialect, for a raw (unprefixed) device ID.
	Capabilities(ctx context.Context, rawID string, app caps.Capabilities) (caps.Capabilities, error)
	// HubURL returns the automation session endpoint. ok is false for vendors that only accept batch submissions.
	HubURL() (url string, ok bool)
	// UploadApp uploads the application at path and returns the vendor's reference to it.
	UploadApp(ctx context.Context, path string) (string, error)
	// SupportedPlatforms lists the platforms the vendor offers devices for.
	SupportedPlatforms() []devices.Platform
	// Pricing returns static pricing information.
	Pricing() Pricing
}
