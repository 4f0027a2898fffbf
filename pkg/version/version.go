package version

// version is overridden at build time with -ldflags "-X glowlink/pkg/version.version=...".
var version = "dev"

// Version reports the build version of the binary.
func Version() string {
	return version
}
