package devicestatus

import (
	"strings"
)

// Status is the availability of a cloud hosted device.
type Status string

const (
	Unknown     Status = "UNKNOWN"
	Available   Status = "AVAILABLE"
	Busy        Status = "BUSY"
	Maintenance Status = "MAINTENANCE"
	Offline     Status = "OFFLINE"
)

// vendor specific spellings mapped onto a Status
var aliases = map[string]Status{
	"AVAILABLE":               Available,
	"HIGHLY_AVAILABLE":        Available,
	"IN_USE":                  Busy,
	"BUSY":                    Busy,
	"CLEANING":                Maintenance,
	"REBOOTING":               Maintenance,
	"MAINTENANCE":             Maintenance,
	"TEMPORARY_NOT_AVAILABLE": Offline,
	"OFFLINE":                 Offline,
}

// Make converts a vendor status string. Unrecognized values map to Unknown.
func Make(str string) Status {
	if s, ok := aliases[strings.ToUpper(strings.TrimSpace(str))]; ok {
		return s
	}
	return Unknown
}

func (ds Status) String() string {
	return string(ds)
}
