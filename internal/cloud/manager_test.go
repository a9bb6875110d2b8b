package cloud_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilectl/mobilectl/internal/cloud"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/mocks"
)

func cloudDevice(tag devices.Tag, rawID string) devices.CloudDevice {
	return devices.CloudDevice{
		Device:   devices.Device{ID: tag.DeviceID(rawID), Platform: devices.Android},
		Provider: tag,
		RawID:    rawID,
	}
}

func TestNewManager(t *testing.T) {
	fakes := mocks.NewFakeProviders()

	_, err := cloud.NewManager(mocks.AsProviders(fakes)...)
	assert.NoError(t, err)

	_, err = cloud.NewManager(mocks.AsProviders(fakes[:3])...)
	assert.ErrorContains(t, err, `missing provider "aws"`)

	_, err = cloud.NewManager(mocks.AsProviders(append(fakes, &mocks.FakeProvider{TagValue: devices.SauceLabs}))...)
	assert.ErrorContains(t, err, "more than once")

	_, err = cloud.NewManager(mocks.AsProviders(append(fakes, &mocks.FakeProvider{TagValue: "perfecto"}))...)
	assert.ErrorContains(t, err, `unknown provider "perfecto"`)
}

func TestManager_Initialize(t *testing.T) {
	fakes := mocks.NewFakeProviders()
	fakes[0].InitializeFn = func(context.Context) error { return errors.New("401 unauthorized") }
	fakes[2].InitializeFn = func(context.Context) error { panic("boom") }

	m, err := cloud.NewManager(mocks.AsProviders(fakes)...)
	require.NoError(t, err)

	got := m.Initialize(context.Background())
	assert.Equal(t, map[devices.Tag]bool{
		devices.BrowserStack:  false,
		devices.SauceLabs:     true,
		devices.LambdaTest:    true,
		devices.AWSDeviceFarm: true,
	}, got)
}

func TestManager_DiscoverAllDevices(t *testing.T) {
	fakes := mocks.NewFakeProviders()
	fakes[0].DiscoverDevicesFn = func(context.Context) ([]devices.CloudDevice, error) {
		return []devices.CloudDevice{cloudDevice(devices.BrowserStack, "pixel-7")}, nil
	}
	fakes[1].DiscoverDevicesFn = func(context.Context) ([]devices.CloudDevice, error) {
		return nil, errors.New("service unavailable")
	}
	fakes[2].DiscoverDevicesFn = func(context.Context) ([]devices.CloudDevice, error) {
		return []devices.CloudDevice{cloudDevice(devices.LambdaTest, "a"), cloudDevice(devices.LambdaTest, "b")}, nil
	}
	fakes[3].SetEnabled(false)
	fakes[3].DiscoverDevicesFn = func(context.Context) ([]devices.CloudDevice, error) {
		t.Error("disabled provider must not be queried")
		return nil, nil
	}

	m, err := cloud.NewManager(mocks.AsProviders(fakes)...)
	require.NoError(t, err)

	var ids []string
	for _, d := range m.DiscoverAllDevices(context.Background()) {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"browserstack-pixel-7", "lambdatest-a", "lambdatest-b"}, ids)
}

func TestManager_Route(t *testing.T) {
	m, err := cloud.NewManager(mocks.AsProviders(mocks.NewFakeProviders())...)
	require.NoError(t, err)

	tests := []struct {
		id     string
		wantOK bool
		tag    devices.Tag
		rawID  string
	}{
		{id: "saucelabs-Samsung_Galaxy_S23", wantOK: true, tag: devices.SauceLabs, rawID: "Samsung_Galaxy_S23"},
		{id: "aws-abc-def", wantOK: true, tag: devices.AWSDeviceFarm, rawID: "abc-def"},
		{id: "pixel-6", wantOK: false},
		{id: "browserstack-", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, rawID, ok := m.Route(tt.id)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.tag, p.Tag())
			assert.Equal(t, tt.rawID, rawID)

			tag, rawID, ok := m.ParseID(tt.id)
			assert.True(t, ok)
			assert.Equal(t, tt.tag, tag)
			assert.Equal(t, tt.rawID, rawID)
		})
	}
}

func TestManager_Status(t *testing.T) {
	fakes := mocks.NewFakeProviders()
	fakes[1].Hub = "https://ondemand.us-west-1.saucelabs.com/wd/hub"
	fakes[3].SetEnabled(false)

	m, err := cloud.NewManager(mocks.AsProviders(fakes)...)
	require.NoError(t, err)

	st := m.Status()
	require.Len(t, st, 4)
	assert.Equal(t, devices.BrowserStack, st[0].Tag)
	assert.Equal(t, "https://ondemand.us-west-1.saucelabs.com/wd/hub", st[1].HubURL)
	assert.False(t, st[3].Enabled)
	assert.True(t, st[2].Enabled)
}
