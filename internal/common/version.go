package common

// Version information, overridden at build time via -ldflags.
var (
	version = "0.3.0"
	build   = "dev"
)

// GetVersion returns the application version string
func GetVersion() string {
	return version
}

// GetBuild returns the build identifier
func GetBuild() string {
	return build
}
