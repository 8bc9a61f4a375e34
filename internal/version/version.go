/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version provides build version information.
package version

// Version is the current version of Peach 95.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/peach95/internal/version.Version=X.Y.Z
var Version = "0.9.5"

// String returns the version string.
func String() string {
	return Version
}
