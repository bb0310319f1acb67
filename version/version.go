package version

import "fmt"

// These variables are set via ldflags during build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns the version with commit and build date when known
func String() string {
	if Version == "dev" {
		return "dev"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildDate)
}
