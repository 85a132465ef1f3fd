// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package version

import "fmt"

// Set via -ldflags at release time.
var (
	Version  = "dev"
	Revision = "unknown"
)

// String returns the version line printed by --version.
func String() string {
	return fmt.Sprintf("v%s (revision %s)", Version, Revision)
}
