package registry

import (
	"errors"
	"fmt"

	"github.com/mobilectl/mobilectl/internal/msg"
)

var (
	// ErrNotFound is returned when a registry ID is unknown.
	ErrNotFound = errors.New(msg.DeviceNotRegistered)
	// ErrDuplicateID is returned when registering an ID that already exists.
	ErrDuplicateID = errors.New(msg.DuplicateDeviceID)
	// ErrDuplicateHardware is returned when a hardware ID is already bound to another registry ID.
	ErrDuplicateHardware = errors.New(msg.DuplicateHardwareID)
	// ErrInvalidDevice is returned for malformed device descriptors.
	ErrInvalidDevice = errors.New(msg.InvalidDevice)
	// ErrNoDiscoverer is returned by discovery operations when the registry has no discovery tool.
	ErrNoDiscoverer = errors.New(msg.NoDiscoverer)
)

// NotFoundError is returned when a registry ID is unknown.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", msg.DeviceNotRegistered, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateIDError is returned when registering an ID that already exists.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s: %q", msg.DuplicateDeviceID, e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

// DuplicateHardwareError is returned when a hardware ID is already bound to another registry ID.
type DuplicateHardwareError struct {
	DeviceID string
	// Owner is the registry ID the hardware ID is bound to.
	Owner string
}

func (e *DuplicateHardwareError) Error() string {
	return fmt.Sprintf("%s: %q belongs to %q", msg.DuplicateHardwareID, e.DeviceID, e.Owner)
}

func (e *DuplicateHardwareError) Unwrap() error { return ErrDuplicateHardware }

func invalid(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDevice, fmt.Sprintf(format, a...))
}
