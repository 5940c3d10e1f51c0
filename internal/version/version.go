// Package version holds build metadata injected via ldflags.
package version

// Set at build time, e.g.
// -ldflags "-X github.com/calyptra/docqa/internal/version.Version=v1.2.0".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
