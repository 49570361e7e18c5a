// Package version reports contentsync build metadata.
//
// Version, Commit and Date are injected at link time:
//
//	-ldflags "-X github.com/dendrascience/contentsync/version.Version=v1.2.0 -X github.com/dendrascience/contentsync/version.Commit=abc1234 -X github.com/dendrascience/contentsync/version.Date=2024-01-01T00:00:00Z"
//
// When they are not set, the module version and VCS settings recorded by the
// Go toolchain are used instead.
package version
