// Package version carries the build-time version stamp every cmd/ binary
// reports on -version, set via -ldflags at build time.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the version stamp the way a -version flag prints it.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
