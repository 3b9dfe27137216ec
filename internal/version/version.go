// Package version exposes the build version stamped in via -ldflags.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/critique-dev/critique/internal/version.Version=v1.2.3"
var Version = "dev"

// String returns the version string.
func String() string { return Version }
