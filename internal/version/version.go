// Package version holds build metadata injected at link time.
package version

import "runtime"

var (
	// Version is the semantic version, set via -ldflags at build time.
	Version = "dev"
	// GitCommit is the short commit hash of the build.
	GitCommit = "unknown"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// GoVersion reports the Go runtime the binary was built with.
func GoVersion() string {
	return runtime.Version()
}
