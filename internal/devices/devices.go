package devices

import (
	"regexp"
	"strings"
	"time"

	"github.com/mobilectl/mobilectl/internal/caps"
	"github.com/mobilectl/mobilectl/internal/devices/devicestatus"
)

// Platform is the mobile operating system family of a device.
type Platform string

const (
	Android Platform = "android"
	IOS     Platform = "ios"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == Android || p == IOS
}

// SessionName returns the platform name as expected by automation hubs.
func (p Platform) SessionName() string {
	switch p {
	case Android:
		return "Android"
	case IOS:
		return "iOS"
	}
	return string(p)
}

// AutomationName returns the default automation engine for the platform.
func (p Platform) AutomationName() string {
	if p == IOS {
		return "XCUITest"
	}
	return "UiAutomator2"
}

// Type describes how a device is backed.
type Type string

const (
	Physical  Type = "physical"
	Emulator  Type = "emulator"
	Simulator Type = "simulator"
)

// Valid reports whether t is a known device type.
func (t Type) Valid() bool {
	return t == Physical || t == Emulator || t == Simulator
}

// Device describes a locally attached, emulated or simulated device that is kept in the registry.
type Device struct {
	ID                string            `json:"id"`
	FriendlyName      string            `json:"friendly_name"`
	DeviceID          string            `json:"device_id"`
	Platform          Platform          `json:"platform"`
	Type              Type              `json:"type"`
	Model             string            `json:"model,omitempty"`
	OSVersion         string            `json:"os_version,omitempty"`
	Active            bool              `json:"active"`
	Capabilities      caps.Capabilities `json:"capabilities,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	MitmCertInstalled bool              `json:"mitm_cert_installed"`
	RegisteredAt      time.Time         `json:"registered_at,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at,omitempty"`
}

// Name returns the friendly name of the device, falling back to its ID.
func (d Device) Name() string {
	if d.FriendlyName != "" {
		return d.FriendlyName
	}
	return d.ID
}

// CloudDevice describes a device hosted by a cloud device farm.
// Its ID is always "<provider>-<raw id>".
type CloudDevice struct {
	Device
	Provider      Tag                 `json:"provider"`
	RawID         string              `json:"raw_id"`
	Status        devicestatus.Status `json:"status,omitempty"`
	CloudMetadata map[string]any      `json:"cloud_metadata,omitempty"`
}

// Raw is a device as reported by a discovery tool, before registration.
type Raw struct {
	DeviceID  string
	Platform  Platform
	Type      Type
	Model     string
	OSVersion string
}

// DefaultCapabilities returns the session capabilities used for a local device when none were
// supplied at registration.
func DefaultCapabilities(p Platform, deviceID string) caps.Capabilities {
	switch p {
	case Android:
		return caps.Capabilities{
			caps.PlatformName:   p.SessionName(),
			caps.AutomationName: "UiAutomator2",
			caps.DeviceName:     deviceID,
		}
	case IOS:
		return caps.Capabilities{
			caps.PlatformName:   p.SessionName(),
			caps.AutomationName: "XCUITest",
			caps.DeviceName:     deviceID,
			caps.UDID:           deviceID,
		}
	}
	return caps.Capabilities{}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a registry ID from a friendly name, e.g. "Pixel 6 Pro" becomes "pixel-6-pro".
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// LocalID derives a registry ID from name that cannot be mistaken for a cloud device ID.
// Names starting with a vendor prefix, e.g. "AWS Pixel", become "local-aws-pixel".
func LocalID(name string) string {
	id := Slugify(name)
	if _, _, ok := ParseCloudID(id); ok {
		return "local-" + id
	}
	return id
}

// IsSlug reports whether id is already in slug form.
func IsSlug(id string) bool {
	return id != "" && Slugify(id) == id
}
