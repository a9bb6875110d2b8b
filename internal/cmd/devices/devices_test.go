package devices

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"

	"github.com/mobilectl/mobilectl/internal/caps"
	"github.com/mobilectl/mobilectl/internal/cloud"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/registry"
	"github.com/mobilectl/mobilectl/internal/mocks"
	"github.com/mobilectl/mobilectl/internal/resolver"
)

func newEnv(t *testing.T, discovered ...devices.Raw) (*cmdutil.Env, []*mocks.FakeProvider) {
	dir := fs.NewDir(t, "devices")
	reg, err := registry.New(filepath.Join(dir.Path(), "devices.json"), mocks.Discovered(discovered...))
	require.NoError(t, err)

	fakes := mocks.NewFakeProviders()
	mgr, err := cloud.NewManager(mocks.AsProviders(fakes)...)
	require.NoError(t, err)

	return &cmdutil.Env{
		Registry: reg,
		Cloud:    mgr,
		Resolver: resolver.New(reg, mgr, resolver.Hubs{Default: "http://localhost:4723"}),
	}, fakes
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func registerPixel(t *testing.T, env *cmdutil.Env) {
	_, err := execute(t, RegisterCommand(env), "pixel-6",
		"--device-id", "1A2B3C4D",
		"--platform", "android",
		"--name", "Pixel 6",
		"--os-version", "14",
		"--cap", "noReset=true",
	)
	require.NoError(t, err)
}

func TestRegisterAndGet(t *testing.T) {
	env, _ := newEnv(t)
	registerPixel(t, env)

	out, err := execute(t, GetCommand(env), "Pixel 6", "-o", "json")
	require.NoError(t, err)

	var d devices.Device
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "pixel-6", d.ID)
	assert.Equal(t, "1A2B3C4D", d.DeviceID)
	assert.Equal(t, devices.Physical, d.Type)
	assert.True(t, d.Active)
	assert.Equal(t, true, d.Capabilities["appium:noReset"])

	_, err = execute(t, GetCommand(env), "pixel-7")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRegister_Duplicate(t *testing.T) {
	env, _ := newEnv(t)
	registerPixel(t, env)

	_, err := execute(t, RegisterCommand(env), "pixel-6-copy", "--device-id", "1A2B3C4D", "--platform", "android")
	assert.ErrorIs(t, err, registry.ErrDuplicateHardware)
}

func TestUpdate(t *testing.T) {
	env, _ := newEnv(t)
	registerPixel(t, env)

	out, err := execute(t, UpdateCommand(env), "pixel-6", "--set", "active=false", "--cap", "autoGrantPermissions=true")
	require.NoError(t, err)

	var d devices.Device
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.False(t, d.Active)
	assert.Equal(t, true, d.Capabilities["appium:noReset"])
	assert.Equal(t, true, d.Capabilities["appium:autoGrantPermissions"])

	_, err = execute(t, UpdateCommand(env), "pixel-6")
	assert.EqualError(t, err, "nothing to update")
}

func TestUnregister(t *testing.T) {
	env, _ := newEnv(t)
	registerPixel(t, env)

	out, err := execute(t, UnregisterCommand(env), "pixel-6")
	require.NoError(t, err)
	assert.Equal(t, "Device pixel-6 unregistered.\n", out)

	_, err = execute(t, UnregisterCommand(env), "pixel-6")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestList(t *testing.T) {
	env, fakes := newEnv(t)
	registerPixel(t, env)
	_, err := execute(t, RegisterCommand(env), "iphone-15", "--device-id", "00008110-001A", "--platform", "ios", "--os-version", "17.2")
	require.NoError(t, err)

	fakes[0].DiscoverDevicesFn = func(context.Context) ([]devices.CloudDevice, error) {
		return []devices.CloudDevice{
			{Device: devices.Device{ID: "browserstack-google_pixel_8_14", Platform: devices.Android}, Provider: devices.BrowserStack},
			{Device: devices.Device{ID: "browserstack-iphone_15_17", Platform: devices.IOS}, Provider: devices.BrowserStack},
		}, nil
	}

	out, err := execute(t, ListCommand(env), "-o", "json", "--platform", "ios", "--cloud")
	require.NoError(t, err)

	var l Listing
	require.NoError(t, json.Unmarshal([]byte(out), &l))
	require.Len(t, l.Local, 1)
	assert.Equal(t, "iphone-15", l.Local[0].ID)
	require.Len(t, l.Cloud, 1)
	assert.Equal(t, "browserstack-iphone_15_17", l.Cloud[0].ID)

	out, err = execute(t, ListCommand(env))
	require.NoError(t, err)
	assert.Contains(t, out, "pixel-6")
	assert.Contains(t, out, "iphone-15")
	assert.Contains(t, out, "2 local and 0 cloud devices")

	_, err = execute(t, ListCommand(env), "--platform", "windows")
	assert.EqualError(t, err, "unknown platform")
}

func TestList_Empty(t *testing.T) {
	env, _ := newEnv(t)

	out, err := execute(t, ListCommand(env), "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"local": []}`, out)
}

func TestSync(t *testing.T) {
	env, _ := newEnv(t,
		devices.Raw{DeviceID: "1A2B3C4D", Platform: devices.Android, Type: devices.Physical, Model: "Pixel 6", OSVersion: "14"},
		devices.Raw{DeviceID: "emulator-5554", Platform: devices.Android, Type: devices.Emulator, Model: "sdk_gphone64"},
	)
	registerPixel(t, env)

	out, err := execute(t, SyncCommand(env), "-o", "json")
	require.NoError(t, err)
	var rep SyncReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, []string{"pixel-6"}, rep.AlreadyRegistered)
	require.Len(t, rep.NewDevices, 1)
	assert.Empty(t, rep.Registered)

	out, err = execute(t, SyncCommand(env), "--register", "-o", "json")
	require.NoError(t, err)
	rep = SyncReport{}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, []string{"sdk-gphone64"}, rep.Registered)

	d, ok := env.Registry.Get("sdk-gphone64")
	require.True(t, ok)
	assert.Equal(t, devices.Emulator, d.Type)
}

func TestRegisterAll_TakenID(t *testing.T) {
	env, _ := newEnv(t)
	registerPixel(t, env)

	ids := registerAll(env.Registry, []devices.Device{
		{ID: "pixel-6", DeviceID: "99XYZ", Platform: devices.Android, Type: devices.Physical},
	})
	assert.Equal(t, []string{"pixel-6-99xyz"}, ids)
}

func TestCaps_Local(t *testing.T) {
	env, _ := newEnv(t)
	registerPixel(t, env)

	out, err := execute(t, CapsCommand(env), "pixel-6", "-o", "json", "--cap", "app=/tmp/app.apk")
	require.NoError(t, err)

	var s Session
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "pixel-6", s.Device)
	assert.Equal(t, "local", s.Kind)
	assert.Equal(t, "http://localhost:4723", s.HubURL)
	assert.Equal(t, "/tmp/app.apk", s.Capabilities[caps.App])
	assert.Equal(t, true, s.Capabilities["appium:noReset"])
}

func TestCaps_Cloud(t *testing.T) {
	env, fakes := newEnv(t)
	fakes[1].Hub = "https://ondemand.us-west-1.saucelabs.com/wd/hub"

	out, err := execute(t, CapsCommand(env), "saucelabs-Google_Pixel_8_real", "-o", "json")
	require.NoError(t, err)

	var s Session
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "cloud", s.Kind)
	assert.Equal(t, "https://ondemand.us-west-1.saucelabs.com/wd/hub", s.HubURL)
	assert.Equal(t, "Google_Pixel_8_real", s.Capabilities["fake:device"])
}

func TestCaps_Unknown(t *testing.T) {
	env, _ := newEnv(t)

	_, err := execute(t, CapsCommand(env), "pixel-9")
	assert.ErrorIs(t, err, resolver.ErrDeviceNotFound)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, 300, parseValue("300"))
	assert.Equal(t, "bs://1a2b", parseValue("bs://1a2b"))
}
