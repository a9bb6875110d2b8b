package version

// Default build-time variable.
// These values are overridden via ldflags
var (
	Version   = "0.0.0+unknown"
	GitCommit = "unknown-commit-sha"
)

// UserAgent is sent with every request made to a device farm API.
func UserAgent() string {
	return "mobilectl/" + Version
}
