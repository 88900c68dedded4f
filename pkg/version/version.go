// Package version exposes the build version of winlist.
package version

// version is overridden at build time via
// -ldflags "-X github.com/rshade/winlist/pkg/version.version=v1.2.3".
//
//nolint:gochecknoglobals // Set by the linker.
var version = "dev"

// GetVersion returns the build version.
func GetVersion() string {
	return version
}
