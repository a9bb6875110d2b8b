package run

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"

	"github.com/mobilectl/mobilectl/internal/cloud"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/config"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/registry"
	"github.com/mobilectl/mobilectl/internal/jsonio"
	"github.com/mobilectl/mobilectl/internal/junit"
	"github.com/mobilectl/mobilectl/internal/mocks"
	"github.com/mobilectl/mobilectl/internal/notification/slack"
	reportjson "github.com/mobilectl/mobilectl/internal/report/json"
	"github.com/mobilectl/mobilectl/internal/report/table"
	"github.com/mobilectl/mobilectl/internal/resolver"
	"github.com/mobilectl/mobilectl/internal/scheduler"
)

const helperEnv = "MOBILECTL_TEST_HELPER"

// TestMain doubles as the entrypoint started for every device.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		os.Exit(helper(os.Args[len(os.Args)-1]))
	}
	os.Exit(m.Run())
}

func helper(deviceID string) int {
	switch deviceID {
	case "pixel-6", "pixel-7":
		fmt.Println("12 passed")
		return 0
	case "iphone-15":
		fmt.Fprintln(os.Stderr, "AssertionError: login button not found")
		return 1
	case "saucelabs-Google_Pixel_8_real":
		if os.Getenv(scheduler.EnvDeviceID) != deviceID {
			return 3
		}
		return 0
	}
	return 2
}

func newEnv(t *testing.T) (*cmdutil.Env, *fs.Dir) {
	dir := fs.NewDir(t, "run")
	reg, err := registry.New(filepath.Join(dir.Path(), "devices.json"), nil)
	require.NoError(t, err)

	for _, d := range []devices.Device{
		{ID: "pixel-6", FriendlyName: "Pixel 6", DeviceID: "1A2B3C4D", Platform: devices.Android, Type: devices.Physical, Active: true},
		{ID: "pixel-7", FriendlyName: "Pixel 7", DeviceID: "5E6F7A8B", Platform: devices.Android, Type: devices.Physical, Active: false},
		{ID: "iphone-15", FriendlyName: "iPhone 15", DeviceID: "00008110-001A", Platform: devices.IOS, Type: devices.Physical, Active: true},
	} {
		_, err := reg.Register(d.ID, d)
		require.NoError(t, err)
	}

	mgr, err := cloud.NewManager(mocks.AsProviders(mocks.NewFakeProviders())...)
	require.NoError(t, err)

	var cfg config.Config
	cfg.Reporters.JSON.Enabled = true
	cfg.Reporters.JSON.Dir = dir.Path()

	return &cmdutil.Env{
		Config:   cfg,
		Registry: reg,
		Cloud:    mgr,
		Resolver: resolver.New(reg, mgr, resolver.Hubs{}),
	}, dir
}

func helperOptions() Options {
	return Options{
		Entrypoint: os.Args[0],
		Env:        map[string]string{helperEnv: "1"},
	}
}

func TestRun_MixedResults(t *testing.T) {
	env, dir := newEnv(t)
	var out bytes.Buffer

	code, err := run(context.Background(), env, helperOptions(), []string{"pixel-6", "iphone-15", "saucelabs-Google_Pixel_8_real"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	assert.Contains(t, out.String(), "login button not found")
	assert.NotContains(t, out.String(), "12 passed")
	assert.Contains(t, out.String(), "1 of 3 devices have failed")

	files, err := filepath.Glob(filepath.Join(dir.Path(), "run_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	var doc reportjson.Run
	require.NoError(t, jsonio.ReadFile(files[0], &doc))
	assert.Equal(t, 3, doc.TotalTests)
	assert.Equal(t, 2, doc.Passed)
	assert.Equal(t, 1, doc.Failed)
	require.Len(t, doc.Results, 3)
	assert.Equal(t, "pixel-6", doc.Results[0].DeviceID)
	assert.Equal(t, "iphone-15", doc.Results[1].DeviceID)
	assert.Equal(t, "saucelabs-Google_Pixel_8_real", doc.Results[2].DeviceID)
}

func TestRun_AllPassed(t *testing.T) {
	env, _ := newEnv(t)
	opts := helperOptions()
	opts.ShowOutput = true
	var out bytes.Buffer

	code, err := run(context.Background(), env, opts, []string{"pixel-*"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "12 passed")
	assert.Contains(t, out.String(), "All devices have passed")
}

func TestRun_UnknownDevice(t *testing.T) {
	env, dir := newEnv(t)

	code, err := run(context.Background(), env, helperOptions(), []string{"pixel-6", "pixel-9"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, resolver.ErrDeviceNotFound)
	assert.Equal(t, 1, code)

	// nothing was started, so nothing was reported
	files, _ := filepath.Glob(filepath.Join(dir.Path(), "run_*.json"))
	assert.Empty(t, files)
}

func TestRun_MissingEntrypoint(t *testing.T) {
	env, _ := newEnv(t)

	code, err := run(context.Background(), env, Options{}, []string{"pixel-6"}, &bytes.Buffer{})
	assert.EqualError(t, err, "no test entrypoint specified")
	assert.Equal(t, 1, code)
}

func TestSelectDevices(t *testing.T) {
	env, _ := newEnv(t)

	testCases := []struct {
		name    string
		opts    Options
		args    []string
		want    []string
		wantErr string
	}{
		{
			name: "explicit devices keep their order",
			args: []string{"iphone-15", "pixel-6", "aws-0A1B2C"},
			want: []string{"iphone-15", "pixel-6", "aws-0A1B2C"},
		},
		{
			name: "globs expand to registry IDs",
			args: []string{"pixel-*"},
			want: []string{"pixel-6", "pixel-7"},
		},
		{
			name: "all selects active devices",
			opts: Options{All: true},
			want: []string{"iphone-15", "pixel-6"},
		},
		{
			name: "all with platform",
			opts: Options{All: true, Platform: "android"},
			args: []string{"iphone-15"},
			want: []string{"pixel-6", "iphone-15"},
		},
		{
			name: "explicit duplicates are kept",
			args: []string{"pixel-6", "pixel-6"},
			want: []string{"pixel-6", "pixel-6"},
		},
		{
			name: "expansions are added once",
			opts: Options{All: true},
			args: []string{"pixel-*", "*-15", "pixel-6"},
			want: []string{"iphone-15", "pixel-6", "pixel-7", "pixel-6"},
		},
		{
			name:    "glob without match",
			args:    []string{"galaxy-*"},
			wantErr: `no registered device matches "galaxy-*"`,
		},
		{
			name:    "nothing selected",
			wantErr: "no devices selected",
		},
		{
			name:    "unknown platform",
			opts:    Options{All: true, Platform: "windows"},
			wantErr: "unknown platform",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := selectDevices(env.Registry, tc.opts, tc.args)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRun_DuplicateDevices(t *testing.T) {
	env, dir := newEnv(t)

	code, err := run(context.Background(), env, helperOptions(), []string{"pixel-6", "pixel-6"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	files, err := filepath.Glob(filepath.Join(dir.Path(), "run_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	var doc reportjson.Run
	require.NoError(t, jsonio.ReadFile(files[0], &doc))
	assert.Equal(t, 2, doc.TotalTests)
	assert.Equal(t, 2, doc.Passed)
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "12 passed\n", doc.Results[0].Stdout)
	assert.Equal(t, 1, doc.Results[1].Attempts)
}

func TestCreateReporters(t *testing.T) {
	var cfg config.Config
	assert.Len(t, createReporters(cfg, &bytes.Buffer{}), 1)

	cfg.Reporters.JSON.Enabled = true
	cfg.Reporters.JUnit.Enabled = true
	cfg.Reporters.JUnit.Filename = "junit.xml"
	cfg.Notifications.Slack.Webhook = "https://hooks.slack.com/services/T000/B000/XXXX"

	reps := createReporters(cfg, &bytes.Buffer{})
	require.Len(t, reps, 4)
	assert.IsType(t, &table.Reporter{}, reps[0])
	assert.IsType(t, &reportjson.Reporter{}, reps[1])
	assert.IsType(t, &junit.Reporter{}, reps[2])
	assert.IsType(t, &slack.Reporter{}, reps[3])
}

func TestEnviron(t *testing.T) {
	assert.Equal(t, []string{"A=1", "B=two"}, environ(map[string]string{"B": "two", "A": "1"}))
	assert.Empty(t, environ(nil))
}
