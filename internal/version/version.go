// Package version carries build metadata stamped in with -ldflags, e.g.
//
//	-X github.com/onap/aai-gizmo-sub001/internal/version.Version=1.4.0
package version

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// VersionInfo is the JSON form reported by /debug.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

func Info() VersionInfo {
	return VersionInfo{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
}

// String formats the version for startup logs.
func String() string {
	return Version + " (" + GitCommit + ", " + BuildTime + ")"
}
