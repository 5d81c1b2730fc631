// Package buildinfo holds release metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/aidanlsb/projmv/internal/buildinfo.Version=v0.3.0"
package buildinfo

// Empty for local builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
