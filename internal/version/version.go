// Package version holds build metadata injected via ldflags.
package version

// Version and Commit are set at build time:
//
//	go build -ldflags "-X github.com/doclens/doclens/internal/version.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
)
