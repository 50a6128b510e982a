// Package misc keeps build time information.
package misc

// Set at link time with -ldflags "-X repgen/misc.version=..."
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "repgen"

// GetAppName returns program name suitable for file names.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns git commit hash program was built from.
func GetGitHash() string {
	return gitHash
}
