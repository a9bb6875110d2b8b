package cloud

import (
	"context"
	"fmt"
	"sync"

	"github.com/mobilectl/mobilectl/internal/devices"
)

// State holds the bookkeeping shared by all provider implementations: the enabled flag and a catalog of
// the devices seen during the last discovery. It is safe for concurrent use.
type State struct {
	mu      sync.RWMutex
	enabled bool
	catalog map[string]devices.CloudDevice
}

// Enabled reports whether the provider passed its credential probe.
func (s *State) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// SetEnabled records the result of a credential probe.
func (s *State) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Remember replaces the catalog with devs.
func (s *State) Remember(devs []devices.CloudDevice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = make(map[string]devices.CloudDevice, len(devs))
	for _, d := range devs {
		s.catalog[d.RawID] = d
	}
}

// Lookup returns the catalog entry for rawID.
func (s *State) Lookup(rawID string) (devices.CloudDevice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.catalog[rawID]
	return d, ok
}

// Resolve returns the catalog entry for rawID, running discover once if the catalog does not know it yet.
func (s *State) Resolve(ctx context.Context, rawID string, discover func(context.Context) ([]devices.CloudDevice, error)) (devices.CloudDevice, error) {
	if d, ok := s.Lookup(rawID); ok {
		return d, nil
	}
	if _, err := discover(ctx); err != nil {
		return devices.CloudDevice{}, err
	}
	if d, ok := s.Lookup(rawID); ok {
		return d, nil
	}
	return devices.CloudDevice{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, rawID)
}
