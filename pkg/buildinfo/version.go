// Package buildinfo provides version information set at build time.
package buildinfo

import "fmt"

// These variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/openfluvial/streamnet/pkg/buildinfo.Version=v1.0.0"
var (
	// Version is the semantic version (e.g., "v1.0.0" or "dev").
	Version = "dev"

	// Commit is the git commit hash.
	Commit = "none"

	// Date is the build date in RFC3339 format.
	Date = "unknown"
)

// String returns a human-readable version string.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("streamnet %s\n", String())
}
