package msg

// registry
const (
	// DeviceNotRegistered indicates an unknown registry ID.
	DeviceNotRegistered = "device not found in registry"
	// DuplicateDeviceID indicates that a registry ID is taken.
	DuplicateDeviceID = "device ID already registered"
	// DuplicateHardwareID indicates that a hardware ID belongs to another registry entry.
	DuplicateHardwareID = "hardware ID already registered"
	// InvalidDevice indicates a malformed device descriptor.
	InvalidDevice = "invalid device"
	// InvalidRegistryFile indicates that the registry file does not match its schema.
	InvalidRegistryFile = "invalid registry file, which is either malformed or corrupt"
	// NoDiscoverer indicates that device discovery was requested without a discovery tool.
	NoDiscoverer = "no device discovery configured"
)

// resolution
const (
	// DeviceNotFound indicates that neither the registry nor a device farm knows the device.
	DeviceNotFound = "device not found"
	// ProviderNotConfigured indicates a disabled device farm vendor.
	ProviderNotConfigured = "cloud provider not configured"
)

// execution
const (
	// NoDevicesSelected indicates that a run was requested without devices.
	NoDevicesSelected = "no devices selected"
	// MissingEntrypoint indicates that a run was requested without a test entrypoint.
	MissingEntrypoint = "no test entrypoint specified"
	// ProcessSpawnFailed indicates that a child process could not be started.
	ProcessSpawnFailed = "failed to start test process"
	// ProcessTimedOut indicates that a child process exceeded its time budget.
	ProcessTimedOut = "test process timed out"
	// RetryExhausted indicates that all retry attempts failed.
	RetryExhausted = "all retry attempts failed"
)

// http
const (
	// InternalServerError indicates a device farm server error.
	InternalServerError = "internal server error"
	// AccessDenied indicates rejected credentials.
	AccessDenied = "access denied; check your credentials"
	// ResourceNotFound indicates a 404 from a device farm API.
	ResourceNotFound = "resource not found"
	// EmptyCredentials indicates no credentials.
	EmptyCredentials = "no credentials available"
)

// config
const (
	// MissingRegistryPath indicates that no registry file is configured.
	MissingRegistryPath = "no device registry path configured"
	// NegativeDuration indicates a negative timeout or delay.
	NegativeDuration = "durations in %q must not be negative"
	// InvalidRegion indicates an unknown Sauce Labs region.
	InvalidRegion = "unknown sauce labs region %q"
	// InvalidSendPolicy indicates an unknown notification policy.
	InvalidSendPolicy = "unknown notification policy %q, expected one of always, fail, pass or never"
)
