package mocks

import (
	"context"

	"github.com/mobilectl/mobilectl/internal/devices"
)

// FakeDiscoverer is a mock for the discovery.Discoverer interface.
type FakeDiscoverer struct {
	DiscoverFn func(context.Context) ([]devices.Raw, error)
}

// Discover is a wrapper around DiscoverFn.
func (f *FakeDiscoverer) Discover(ctx context.Context) ([]devices.Raw, error) {
	return f.DiscoverFn(ctx)
}

// Discovered returns a FakeDiscoverer that always reports raws.
func Discovered(raws ...devices.Raw) *FakeDiscoverer {
	return &FakeDiscoverer{DiscoverFn: func(context.Context) ([]devices.Raw, error) {
		return raws, nil
	}}
}
