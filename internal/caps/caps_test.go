package caps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "platformName", want: "platformName"},
		{key: "app", want: "appium:app"},
		{key: "appium:app", want: "appium:app"},
		{key: "bstack:options", want: "bstack:options"},
		{key: "noReset", want: "appium:noReset"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.key))
		})
	}
}

func TestMerge(t *testing.T) {
	base := Capabilities{
		PlatformName:   "Android",
		AutomationName: "UiAutomator2",
		DeviceName:     "emulator-5554",
	}
	overrides := Capabilities{
		"deviceName":   "Pixel 6",
		"app":          "foo.apk",
		"platformName": "android",
		"lt:options":   map[string]any{"w3c": true},
	}

	got := Merge(base, overrides)

	assert.Equal(t, Capabilities{
		PlatformName:   "android",
		AutomationName: "UiAutomator2",
		DeviceName:     "Pixel 6",
		App:            "foo.apk",
		"lt:options":   map[string]any{"w3c": true},
	}, got)
	assert.Equal(t, "emulator-5554", base[DeviceName], "base must not be modified")
	assert.NotContains(t, got, "app")
}

func TestMerge_NilInputs(t *testing.T) {
	assert.Equal(t, Capabilities{}, Merge(nil, nil))
	assert.Equal(t, Capabilities{App: "x"}, Merge(nil, Capabilities{"app": "x"}))
}

func TestMerge_NamespacedKeyWins(t *testing.T) {
	overrides := Capabilities{"app": "bare.apk", App: "namespaced.apk", "noReset": true}
	for i := 0; i < 50; i++ {
		got := Merge(Capabilities{App: "default.apk"}, overrides)
		assert.Equal(t, Capabilities{App: "namespaced.apk", "appium:noReset": true}, got)
	}
}

func TestCapabilities_Clone(t *testing.T) {
	orig := Capabilities{"sauce:options": map[string]any{"build": "1"}}
	clone := orig.Clone()
	clone["sauce:options"].(map[string]any)["build"] = "2"

	assert.Equal(t, "1", orig["sauce:options"].(map[string]any)["build"])
	assert.Nil(t, Capabilities(nil).Clone())
}
