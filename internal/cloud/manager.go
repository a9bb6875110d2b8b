package cloud

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mobilectl/mobilectl/internal/devices"
)

// Manager holds exactly one provider per known vendor and aggregates them.
type Manager struct {
	providers map[devices.Tag]Provider
}

// Status is a point in time view of a provider.
type Status struct {
	Tag       devices.Tag        `json:"provider"`
	Enabled   bool               `json:"enabled"`
	HubURL    string             `json:"hub_url,omitempty"`
	Platforms []devices.Platform `json:"platforms"`
	Pricing   Pricing            `json:"pricing"`
}

// NewManager returns a Manager for the given providers. Every known vendor must be covered exactly once.
func NewManager(providers ...Provider) (*Manager, error) {
	m := &Manager{providers: make(map[devices.Tag]Provider, len(devices.Tags))}
	for _, p := range providers {
		tag := p.Tag()
		if !tag.Valid() {
			return nil, fmt.Errorf("unknown provider %q", tag)
		}
		if _, ok := m.providers[tag]; ok {
			return nil, fmt.Errorf("provider %q registered more than once", tag)
		}
		m.providers[tag] = p
	}
	for _, tag := range devices.Tags {
		if _, ok := m.providers[tag]; !ok {
			return nil, fmt.Errorf("missing provider %q", tag)
		}
	}
	return m, nil
}

// Provider returns the provider for tag.
func (m *Manager) Provider(tag devices.Tag) (Provider, bool) {
	p, ok := m.providers[tag]
	return p, ok
}

// ParseID splits a unified device ID into vendor tag and raw ID. ok is false for IDs without a known
// vendor prefix. It does not check whether the provider is enabled.
func (m *Manager) ParseID(id string) (tag devices.Tag, rawID string, ok bool) {
	return devices.ParseCloudID(id)
}

// Route dispatches a unified device ID to its provider. ok is false if id carries no known vendor prefix,
// meaning id refers to a local device.
func (m *Manager) Route(id string) (p Provider, rawID string, ok bool) {
	tag, rawID, ok := devices.ParseCloudID(id)
	if !ok {
		return nil, "", false
	}
	p, ok = m.providers[tag]
	return p, rawID, ok
}

// Initialize probes all providers concurrently and returns the enabled state per vendor.
// A failing provider is logged and left disabled; it never affects the others.
func (m *Manager) Initialize(ctx context.Context) map[devices.Tag]bool {
	m.fanOut(ctx, false, func(ctx context.Context, i int, p Provider) {
		if err := p.Initialize(ctx); err != nil {
			log.Debug().Err(err).Str("provider", string(p.Tag())).Msg("Cloud provider not available.")
			return
		}
		log.Debug().Str("provider", string(p.Tag())).Msg("Cloud provider enabled.")
	})

	enabled := make(map[devices.Tag]bool, len(m.providers))
	for tag, p := range m.providers {
		enabled[tag] = p.Enabled()
	}
	return enabled
}

// DiscoverAllDevices collects the devices of all enabled providers concurrently. Results are concatenated in
// vendor order. A failing provider is logged and contributes no devices.
func (m *Manager) DiscoverAllDevices(ctx context.Context) []devices.CloudDevice {
	found := make([][]devices.CloudDevice, len(devices.Tags))
	m.fanOut(ctx, true, func(ctx context.Context, i int, p Provider) {
		devs, err := p.DiscoverDevices(ctx)
		if err != nil {
			log.Warn().Err(err).Str("provider", string(p.Tag())).Msg("Device discovery failed.")
			return
		}
		found[i] = devs
	})

	var all []devices.CloudDevice
	for _, devs := range found {
		all = append(all, devs...)
	}
	return all
}

// Status describes all providers in vendor order.
func (m *Manager) Status() []Status {
	var out []Status
	for _, tag := range devices.Tags {
		p := m.providers[tag]
		hub, _ := p.HubURL()
		out = append(out, Status{
			Tag:       tag,
			Enabled:   p.Enabled(),
			HubURL:    hub,
			Platforms: p.SupportedPlatforms(),
			Pricing:   p.Pricing(),
		})
	}
	return out
}

// fanOut calls fn for every (enabled) provider in its own goroutine and waits for all of them to settle.
// i is the position of the provider's tag in devices.Tags.
func (m *Manager) fanOut(ctx context.Context, onlyEnabled bool, fn func(ctx context.Context, i int, p Provider)) {
	var wg sync.WaitGroup
	for i, tag := range devices.Tags {
		p := m.providers[tag]
		if onlyEnabled && !p.Enabled() {
			continue
		}

		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("provider", string(p.Tag())).Msgf("Cloud provider panicked: %v", r)
				}
			}()
			fn(ctx, i, p)
		}(i, p)
	}
	wg.Wait()
}
