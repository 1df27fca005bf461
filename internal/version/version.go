// Package version holds the pypeline release version.
package version

// Version is set at build time with
// -ldflags "-X github.com/cuinixam/pypeline/internal/version.Version=v1.2.3".
var Version = "dev"
