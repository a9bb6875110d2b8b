package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"

	fed "github.com/mobilectl/mobilectl/internal/cloud"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/mocks"
	"github.com/mobilectl/mobilectl/internal/resolver"
)

func newEnv(t *testing.T) (*cmdutil.Env, []*mocks.FakeProvider) {
	fakes := mocks.NewFakeProviders()
	mgr, err := fed.NewManager(mocks.AsProviders(fakes)...)
	require.NoError(t, err)
	return &cmdutil.Env{Cloud: mgr}, fakes
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatus(t *testing.T) {
	env, fakes := newEnv(t)
	fakes[2].InitializeFn = func(context.Context) error {
		return fed.ErrMissingCredentials
	}
	fakes[0].Hub = "https://hub-cloud.browserstack.com/wd/hub"

	out, err := execute(StatusCommand(env), "-o", "json")
	require.NoError(t, err)

	var status []fed.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.Len(t, status, len(devices.Tags))
	for i, s := range status {
		assert.Equal(t, devices.Tags[i], s.Tag)
		assert.Equal(t, s.Tag != devices.LambdaTest, s.Enabled, s.Tag)
	}
	assert.Equal(t, "https://hub-cloud.browserstack.com/wd/hub", status[0].HubURL)
}

func TestDevices(t *testing.T) {
	env, fakes := newEnv(t)
	fakes[0].DiscoverDevicesFn = func(context.Context) ([]devices.CloudDevice, error) {
		return []devices.CloudDevice{
			{Device: devices.Device{ID: "browserstack-google_pixel_8_14", Platform: devices.Android}, Provider: devices.BrowserStack},
		}, nil
	}
	fakes[3].DiscoverDevicesFn = func(context.Context) ([]devices.CloudDevice, error) {
		return []devices.CloudDevice{
			{Device: devices.Device{ID: "aws-0A1B2C", Platform: devices.IOS}, Provider: devices.AWSDeviceFarm},
		}, nil
	}
	fakes[1].DiscoverDevicesFn = func(context.Context) ([]devices.CloudDevice, error) {
		return nil, errors.New("service unavailable")
	}

	out, err := execute(DevicesCommand(env), "-o", "json")
	require.NoError(t, err)
	var devs []devices.CloudDevice
	require.NoError(t, json.Unmarshal([]byte(out), &devs))
	require.Len(t, devs, 2)
	assert.Equal(t, "browserstack-google_pixel_8_14", devs[0].ID)
	assert.Equal(t, "aws-0A1B2C", devs[1].ID)

	out, err = execute(DevicesCommand(env), "-o", "json", "--provider", "aws")
	require.NoError(t, err)
	devs = nil
	require.NoError(t, json.Unmarshal([]byte(out), &devs))
	require.Len(t, devs, 1)
	assert.Equal(t, devices.AWSDeviceFarm, devs[0].Provider)

	_, err = execute(DevicesCommand(env), "--provider", "kobiton")
	assert.EqualError(t, err, `unknown provider "kobiton"`)
}

func TestUpload(t *testing.T) {
	dir := fs.NewDir(t, "apps", fs.WithFile("app-debug.apk", "PK fake apk"))
	app := dir.Join("app-debug.apk")

	env, fakes := newEnv(t)
	var uploaded string
	fakes[0].UploadAppFn = func(_ context.Context, path string) (string, error) {
		uploaded = path
		return "bs://c8ddcb5649a8280ca800075bfd8f151115bba6b3", nil
	}

	out, err := execute(UploadCommand(env), app, "--provider", "browserstack", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, app, uploaded)
	assert.JSONEq(t, `{"provider": "browserstack", "app": "bs://c8ddcb5649a8280ca800075bfd8f151115bba6b3"}`, out)
}

func TestUpload_ProviderNotConfigured(t *testing.T) {
	dir := fs.NewDir(t, "apps", fs.WithFile("app.ipa", "fake ipa"))

	env, fakes := newEnv(t)
	fakes[1].InitializeFn = func(context.Context) error {
		return fed.ErrMissingCredentials
	}

	_, err := execute(UploadCommand(env), dir.Join("app.ipa"), "--provider", "saucelabs")
	assert.ErrorIs(t, err, resolver.ErrProviderNotConfigured)
}

func TestUpload_MissingFile(t *testing.T) {
	env, _ := newEnv(t)

	_, err := execute(UploadCommand(env), "does-not-exist.apk", "--provider", "lambdatest")
	assert.ErrorContains(t, err, "failed to inspect file")
}
