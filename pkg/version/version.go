package version

// Version is the current application version.
// Overridden at build time via:
//
//	go build -ldflags "-X github.com/vanderheijden86/canopy/pkg/version.Version=v1.2.3"
var Version = "v0.1.0"
