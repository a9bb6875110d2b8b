package devices

// Kind discriminates between local and cloud targets.
type Kind int

const (
	LocalKind Kind = iota
	CloudKind
)

func (k Kind) String() string {
	if k == CloudKind {
		return "cloud"
	}
	return "local"
}

// Target is a resolved device reference. It is produced once, when a user supplied identifier is
// resolved, and carried from then on so that later lookups never re-parse the identifier.
type Target struct {
	Kind Kind
	// ID is the canonical ID: the registry ID for local devices, the unified ID for cloud devices.
	ID string

	// Provider and RawID are set for cloud targets.
	Provider Tag
	RawID    string

	// Device is set for local targets.
	Device Device
}

// Name returns a human friendly name for the target.
func (t Target) Name() string {
	if t.Kind == LocalKind {
		return t.Device.Name()
	}
	return t.ID
}

// Platform returns the platform of the target if known.
func (t Target) Platform() Platform {
	return t.Device.Platform
}
