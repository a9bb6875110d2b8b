package devices

import "strings"

// Tag identifies a cloud device farm vendor.
type Tag string

const (
	BrowserStack  Tag = "browserstack"
	SauceLabs     Tag = "saucelabs"
	LambdaTest    Tag = "lambdatest"
	AWSDeviceFarm Tag = "aws"
)

// Tags lists every known vendor in a stable order.
var Tags = []Tag{BrowserStack, SauceLabs, LambdaTest, AWSDeviceFarm}

// Valid reports whether t is one of the known vendors.
func (t Tag) Valid() bool {
	for _, k := range Tags {
		if k == t {
			return true
		}
	}
	return false
}

// DeviceID returns the unified device ID for a vendor specific device ID.
func (t Tag) DeviceID(rawID string) string {
	return string(t) + "-" + rawID
}

// ParseCloudID splits a unified cloud device ID into its vendor tag and raw ID.
// ok is false when id does not start with a known vendor prefix, in which case id refers to a local
// device.
func ParseCloudID(id string) (tag Tag, rawID string, ok bool) {
	for _, t := range Tags {
		prefix := string(t) + "-"
		if strings.HasPrefix(id, prefix) && len(id) > len(prefix) {
			return t, id[len(prefix):], true
		}
	}
	return "", "", false
}
