// Package version carries the build version shared by the CLI and the server.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/devilmonastery/fractal/internal/version.Version=v0.3.0"
var Version = "dev"
