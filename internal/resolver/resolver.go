// Package resolver turns device identifiers into session capabilities and hub endpoints.
package resolver

import (
	"context"

	"github.com/mobilectl/mobilectl/internal/caps"
	"github.com/mobilectl/mobilectl/internal/cloud"
	"github.com/mobilectl/mobilectl/internal/devices"
)

// DefaultLocalHub is the automation endpoint for local devices if none is configured.
const DefaultLocalHub = "http://localhost:4723"

// LocalLookup finds registered devices by ID or friendly name.
type LocalLookup interface {
	Get(nameOrID string) (devices.Device, bool)
}

// CloudLookup dispatches unified device IDs to device farm providers.
type CloudLookup interface {
	Route(id string) (p cloud.Provider, rawID string, ok bool)
	Provider(tag devices.Tag) (cloud.Provider, bool)
}

// Hubs configures the automation endpoints for local devices.
// Android and IOS, if set, take precedence over Default for devices of that platform.
type Hubs struct {
	Default string
	Android string
	IOS     string
}

// For returns the hub for platform p.
func (h Hubs) For(p devices.Platform) string {
	switch {
	case p == devices.Android && h.Android != "":
		return h.Android
	case p == devices.IOS && h.IOS != "":
		return h.IOS
	case h.Default != "":
		return h.Default
	}
	return DefaultLocalHub
}

// Resolver resolves device identifiers against the registry and the cloud federation.
type Resolver struct {
	local LocalLookup
	cloud CloudLookup
	hubs  Hubs
}

// New creates a new Resolver. fed may be nil, in which case every identifier is treated as local.
func New(local LocalLookup, fed CloudLookup, hubs Hubs) *Resolver {
	return &Resolver{local: local, cloud: fed, hubs: hubs}
}

// Resolve parses idOrName once into a Target. Identifiers with a known vendor prefix always resolve to that
// vendor. Anything else is looked up in the registry, by ID first, then by friendly name.
func (r *Resolver) Resolve(idOrName string) (devices.Target, error) {
	if r.cloud != nil {
		if p, rawID, ok := r.cloud.Route(idOrName); ok {
			return devices.Target{
				Kind:     devices.CloudKind,
				ID:       idOrName,
				Provider: p.Tag(),
				RawID:    rawID,
			}, nil
		}
	}

	d, ok := r.local.Get(idOrName)
	if !ok {
		return devices.Target{}, &DeviceNotFoundError{ID: idOrName}
	}

	return devices.Target{Kind: devices.LocalKind, ID: d.ID, Device: d}, nil
}

// Validate resolves idOrName and, for cloud targets, checks that the vendor is enabled.
// Any failure is reported as a DeviceNotFoundError naming idOrName.
func (r *Resolver) Validate(idOrName string) (devices.Target, error) {
	t, err := r.Resolve(idOrName)
	if err != nil {
		return t, err
	}
	if t.Kind == devices.CloudKind {
		if _, err := r.provider(t); err != nil {
			return devices.Target{}, &DeviceNotFoundError{ID: idOrName, Err: err}
		}
	}
	return t, nil
}

// Capabilities resolves idOrName and returns its session capabilities with app merged in.
func (r *Resolver) Capabilities(ctx context.Context, idOrName string, app caps.Capabilities) (caps.Capabilities, error) {
	t, err := r.Resolve(idOrName)
	if err != nil {
		return nil, err
	}
	return r.CapabilitiesFor(ctx, t, app)
}

// CapabilitiesFor returns the session capabilities of an already resolved target.
// Caller supplied keys override the device's defaults.
func (r *Resolver) CapabilitiesFor(ctx context.Context, t devices.Target, app caps.Capabilities) (caps.Capabilities, error) {
	if t.Kind == devices.CloudKind {
		p, err := r.provider(t)
		if err != nil {
			return nil, err
		}
		return p.Capabilities(ctx, t.RawID, app)
	}

	defaults := t.Device.Capabilities
	if len(defaults) == 0 {
		defaults = devices.DefaultCapabilities(t.Device.Platform, t.Device.DeviceID)
	}
	return caps.Merge(defaults, app), nil
}

// HubURL resolves idOrName and returns its automation endpoint. ok is false for cloud vendors without a
// hub, in which case the caller needs to submit a batch run instead.
func (r *Resolver) HubURL(idOrName string) (url string, ok bool, err error) {
	t, err := r.Resolve(idOrName)
	if err != nil {
		return "", false, err
	}
	url, ok = r.HubURLFor(t)
	return url, ok, nil
}

// HubURLFor returns the automation endpoint of an already resolved target.
func (r *Resolver) HubURLFor(t devices.Target) (string, bool) {
	if t.Kind == devices.CloudKind {
		if r.cloud == nil {
			return "", false
		}
		p, ok := r.cloud.Provider(t.Provider)
		if !ok {
			return "", false
		}
		return p.HubURL()
	}
	return r.hubs.For(t.Device.Platform), true
}

func (r *Resolver) provider(t devices.Target) (cloud.Provider, error) {
	if r.cloud == nil {
		return nil, &ProviderNotConfiguredError{Provider: t.Provider}
	}
	p, ok := r.cloud.Provider(t.Provider)
	if !ok || !p.Enabled() {
		return nil, &ProviderNotConfiguredError{Provider: t.Provider}
	}
	return p, nil
}
