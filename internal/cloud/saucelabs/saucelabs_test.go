package saucelabs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilectl/mobilectl/internal/caps"
	"github.com/mobilectl/mobilectl/internal/credentials"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/devicestatus"
	mhttp "github.com/mobilectl/mobilectl/internal/http"
	"github.com/mobilectl/mobilectl/internal/region"
)

func newProvider(t *testing.T, statusCode int) *Provider {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/team-management/v1/users/me":
			w.WriteHeader(statusCode)
			_, _ = w.Write([]byte(`{"id":"abc","username":"bob"}`))
		case "/v1/rdc/devices":
			_, _ = w.Write([]byte(`[
				{"id":"Samsung_Galaxy_S23_real","name":"Samsung Galaxy S23","os":"ANDROID","osVersion":"14","manufacturer":["Samsung"],"modelNumber":"SM-S911B"},
				{"id":"iPhone_15_real","name":"iPhone 15","os":"IOS","osVersion":"17.2","manufacturer":["Apple"],"modelNumber":"iPhone15,4","isPrivate":true}
			]`))
		case "/v1/rdc/devices/status":
			_, _ = w.Write([]byte(`{"devices":[{"descriptor":"Samsung_Galaxy_S23_real","state":"IN_USE"}]}`))
		case "/v1/storage/upload":
			if _, _, err := r.FormFile("payload"); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"item":{"id":"f1c1e3a1-9d7e-4b52-9b8a-0b0a1b6b9e1d","name":"app.ipa"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)

	p := New(region.USWest1, credentials.Credentials{Username: "bob", AccessKey: "secret"}, 3*time.Second)
	p.Client.URL = ts.URL
	return p
}

func TestProvider_Initialize(t *testing.T) {
	p := newProvider(t, http.StatusOK)
	assert.NoError(t, p.Initialize(context.Background()))
	assert.True(t, p.Enabled())

	p = newProvider(t, http.StatusForbidden)
	assert.ErrorIs(t, p.Initialize(context.Background()), mhttp.ErrAccessDenied)
	assert.False(t, p.Enabled())

	p = newProvider(t, http.StatusOK)
	p.Region = region.None
	assert.Error(t, p.Initialize(context.Background()))
	assert.False(t, p.Enabled())
}

func TestProvider_DiscoverDevices(t *testing.T) {
	p := newProvider(t, http.StatusOK)

	devs, err := p.DiscoverDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devs, 2)

	assert.Equal(t, "saucelabs-Samsung_Galaxy_S23_real", devs[0].ID)
	assert.Equal(t, devicestatus.Busy, devs[0].Status)
	assert.Equal(t, devices.Android, devs[0].Platform)
	assert.Equal(t, devicestatus.Unknown, devs[1].Status)
	assert.Equal(t, devices.IOS, devs[1].Platform)
	assert.Equal(t, true, devs[1].CloudMetadata["private"])
	assert.Equal(t, "us-west-1", devs[1].CloudMetadata["region"])
}

func TestProvider_Capabilities(t *testing.T) {
	p := newProvider(t, http.StatusOK)

	got, err := p.Capabilities(context.Background(), "iPhone_15_real", caps.Capabilities{"app": "storage:abc", "sauce:options": map[string]any{"name": "smoke"}})
	require.NoError(t, err)

	assert.Equal(t, "iOS", got[caps.PlatformName])
	assert.Equal(t, "iPhone_15_real", got[caps.DeviceName])
	assert.Equal(t, "XCUITest", got[caps.AutomationName])
	assert.Equal(t, "storage:abc", got[caps.App])
	assert.Equal(t, map[string]any{"name": "smoke"}, got["sauce:options"], "overrides win")

	hub, ok := p.HubURL()
	assert.True(t, ok)
	assert.Equal(t, "https://ondemand.us-west-1.saucelabs.com/wd/hub", hub)
}

func TestProvider_UploadApp(t *testing.T) {
	p := newProvider(t, http.StatusOK)

	path := filepath.Join(t.TempDir(), "app.ipa")
	require.NoError(t, os.WriteFile(path, []byte("IPA"), 0644))

	ref, err := p.UploadApp(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "storage:f1c1e3a1-9d7e-4b52-9b8a-0b0a1b6b9e1d", ref)
}
