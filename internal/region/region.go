// Package region maps Sauce Labs data centers to their endpoints.
package region

import "fmt"

// Region is a Sauce Labs data center.
type Region uint

const (
	// None is an unknown data center.
	None Region = iota
	// USWest1 is us-west-1, the default data center.
	USWest1
	// USEast4 is us-east-4.
	USEast4
	// EUCentral1 is eu-central-1.
	EUCentral1
)

var names = map[Region]string{
	USWest1:    "us-west-1",
	USEast4:    "us-east-4",
	EUCentral1: "eu-central-1",
}

func (r Region) String() string {
	return names[r]
}

// FromString returns the data center called s, or None.
func FromString(s string) Region {
	for r, name := range names {
		if name == s {
			return r
		}
	}
	return None
}

// APIBaseURL returns the REST endpoint of the data center.
func (r Region) APIBaseURL() string {
	if r == None {
		return ""
	}
	return fmt.Sprintf("https://api.%s.saucelabs.com", r)
}

// HubURL returns the WebDriver endpoint of the data center.
func (r Region) HubURL() string {
	if r == None {
		return ""
	}
	return fmt.Sprintf("https://ondemand.%s.saucelabs.com/wd/hub", r)
}
