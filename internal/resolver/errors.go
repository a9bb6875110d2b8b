package resolver

import (
	"errors"
	"fmt"

	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/msg"
)

var (
	// ErrDeviceNotFound is matched by DeviceNotFoundError via errors.Is.
	ErrDeviceNotFound = errors.New(msg.DeviceNotFound)
	// ErrProviderNotConfigured is matched by ProviderNotConfiguredError via errors.Is.
	ErrProviderNotConfigured = errors.New(msg.ProviderNotConfigured)
)

// DeviceNotFoundError is returned when neither the registry nor a device farm knows a device.
type DeviceNotFoundError struct {
	ID string
	// Err is the underlying cause, if any.
	Err error
}

func (e *DeviceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %q: %v", msg.DeviceNotFound, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %q", msg.DeviceNotFound, e.ID)
}

func (e *DeviceNotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDeviceNotFound}
	}
	return []error{ErrDeviceNotFound, e.Err}
}

// ProviderNotConfiguredError is returned when a device refers to a disabled device farm vendor.
type ProviderNotConfiguredError struct {
	Provider devices.Tag
}

func (e *ProviderNotConfiguredError) Error() string {
	return fmt.Sprintf("%s: %s", msg.ProviderNotConfigured, e.Provider)
}

func (e *ProviderNotConfiguredError) Unwrap() error {
	return ErrProviderNotConfigured
}
