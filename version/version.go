// Package version exposes build information, set at link time:
//
//	go build -ldflags "-X github.com/farcloser/lacuna/version.version=v1.0.0 -X github.com/farcloser/lacuna/version.commit=$(git rev-parse --short HEAD)"
package version

//nolint:gochecknoglobals // overridden through -ldflags
var (
	name    = "lacuna"
	version = "dev"
	commit  = "unknown"
)

// Name returns the program name.
func Name() string {
	return name
}

// Version returns the release version.
func Version() string {
	return version
}

// Commit returns the source revision the binary was built from.
func Commit() string {
	return commit
}
