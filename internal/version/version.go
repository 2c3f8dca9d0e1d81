// Package version carries build metadata set through ldflags:
//
//	go build -ldflags "-X github.com/dotnet/docfx-sub027/internal/version.Version=v1.2.0"
package version

import "fmt"

// Version is the release version, "dev" for local builds.
var Version = "dev"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version with its commit and build time.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
