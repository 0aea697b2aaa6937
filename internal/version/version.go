// Package version holds build information set via ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "v0.0.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("fitsinspect %s (commit %s, built %s, %s)", Version, GitCommit, BuildDate, runtime.Version())
}
