// Package caps provides the automation session capability object and the rules for combining
// stored defaults with caller supplied values.
package caps

import "strings"

// Prefix is the vendor namespace used by the Appium automation protocol.
const Prefix = "appium:"

// Well known capability keys.
const (
	PlatformName    = "platformName"
	AutomationName  = Prefix + "automationName"
	DeviceName      = Prefix + "deviceName"
	PlatformVersion = Prefix + "platformVersion"
	UDID            = Prefix + "udid"
	App             = Prefix + "app"
)

// Capabilities is a W3C capability object as sent to an automation hub.
type Capabilities map[string]any

// Clone returns a shallow copy of c. Nested maps are copied one level deep.
func (c Capabilities) Clone() Capabilities {
	if c == nil {
		return nil
	}
	out := make(Capabilities, len(c))
	for k, v := range c {
		if m, ok := v.(map[string]any); ok {
			nested := make(map[string]any, len(m))
			for nk, nv := range m {
				nested[nk] = nv
			}
			v = nested
		}
		out[k] = v
	}
	return out
}

// Normalize returns the wire name for key. Keys that already carry a vendor namespace
// (e.g. "appium:app", "bstack:options") and platformName are returned unchanged; any other key is
// placed in the Appium namespace.
func Normalize(key string) string {
	if key == PlatformName || strings.Contains(key, ":") {
		return key
	}
	return Prefix + key
}

// Merge overlays overrides on top of base and returns the result as a new object.
// Override keys are normalized first and win on collision. If overrides holds a key both bare and
// namespaced, e.g. "app" and "appium:app", the namespaced one wins. Neither input is modified.
func Merge(base, overrides Capabilities) Capabilities {
	out := make(Capabilities, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		if Normalize(k) != k {
			out[Normalize(k)] = v
		}
	}
	for k, v := range overrides {
		if Normalize(k) == k {
			out[k] = v
		}
	}
	return out
}

// String returns the string value for key, or an empty string if absent or not a string.
func (c Capabilities) String(key string) string {
	s, _ := c[key].(string)
	return s
}
