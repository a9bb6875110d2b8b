package cmdutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"

	"github.com/mobilectl/mobilectl/internal/config"
	"github.com/mobilectl/mobilectl/internal/credentials"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/resolver"
	"github.com/mobilectl/mobilectl/internal/viper"
)

func noCredentials(devices.Tag) credentials.Credentials {
	return credentials.Credentials{}
}

func testConfig(t *testing.T) config.Config {
	dir := fs.NewDir(t, "mobilectl")
	cfg, err := config.LoadFrom(viper.New(), "")
	require.NoError(t, err)
	cfg.Registry.Path = filepath.Join(dir.Path(), "devices.json")
	return cfg
}

func TestNewEnv(t *testing.T) {
	cfg := testConfig(t)
	cfg.Hub.IOS = "http://localhost:4724"

	env, err := NewEnv(context.Background(), cfg, noCredentials)
	require.NoError(t, err)

	for _, tag := range devices.Tags {
		p, ok := env.Cloud.Provider(tag)
		require.True(t, ok, tag)
		assert.Equal(t, tag, p.Tag())
	}

	target, err := env.Resolver.Resolve("saucelabs-Google_Pixel_8_real")
	require.NoError(t, err)
	assert.Equal(t, devices.CloudKind, target.Kind)
	assert.Equal(t, devices.SauceLabs, target.Provider)
	assert.Equal(t, "Google_Pixel_8_real", target.RawID)

	_, err = env.Resolver.Resolve("pixel-6")
	assert.ErrorIs(t, err, resolver.ErrDeviceNotFound)

	_, err = env.Registry.Register("iphone-15", devices.Device{
		DeviceID: "00008110-001A2B3C4D5E",
		Platform: devices.IOS,
		Type:     devices.Physical,
	})
	require.NoError(t, err)

	hub, ok, err := env.Resolver.HubURL("iphone-15")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:4724", hub)
}

func TestNewEnv_NoCredentials(t *testing.T) {
	env, err := NewEnv(context.Background(), testConfig(t), noCredentials)
	require.NoError(t, err)

	// every probe fails before any request is made
	for tag, enabled := range env.Cloud.Initialize(context.Background()) {
		assert.False(t, enabled, tag)
	}

	_, err = env.Resolver.Validate("browserstack-google_pixel_8_14")
	assert.ErrorIs(t, err, resolver.ErrProviderNotConfigured)
}

func TestHubs(t *testing.T) {
	cfg := config.Config{Hub: config.Hub{Local: "http://appium:4723", Android: "http://appium-android:4723"}}

	hubs := Hubs(cfg)
	assert.Equal(t, "http://appium-android:4723", hubs.For(devices.Android))
	assert.Equal(t, "http://appium:4723", hubs.For(devices.IOS))
}

func TestRetryOptions(t *testing.T) {
	cfg := config.Config{Retry: config.Retry{Enabled: true, MaxRetries: 5, Delay: time.Second}}

	opts := RetryOptions(cfg)
	assert.True(t, opts.Enabled)
	assert.Equal(t, uint(5), opts.MaxRetries)
	assert.Equal(t, time.Second, opts.Delay)
}

func TestSchedulerOptions(t *testing.T) {
	cfg := config.Config{Run: config.Run{ProcessTimeout: time.Minute, Timeout: time.Hour, KillGrace: time.Second}}

	opts := SchedulerOptions(cfg)
	assert.Equal(t, time.Minute, opts.ProcessTimeout)
	assert.Equal(t, time.Hour, opts.RunTimeout)
	assert.Equal(t, time.Second, opts.KillGrace)
}

func TestNeedsCloud(t *testing.T) {
	assert.False(t, NeedsCloud([]string{"pixel-6", "iphone-15"}))
	assert.True(t, NeedsCloud([]string{"pixel-6", "aws-0A1B2C3D"}))
	assert.False(t, NeedsCloud(nil))
}
