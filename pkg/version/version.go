package version

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	// Version is the semantic version (set at build time via ldflags)
	Version = "dev"
	// Commit is the git commit hash (set at build time via ldflags)
	Commit = "unknown"
	// BuildTime is the build timestamp (set at build time via ldflags)
	BuildTime = "unknown"
	// GoVersion is the Go version used to build
	GoVersion = runtime.Version()
)

// Info contains version information
type Info struct {
	Version   string   `json:"version" yaml:"version"`
	Commit    string   `json:"commit" yaml:"commit"`
	BuildTime string   `json:"buildTime" yaml:"buildTime"`
	GoVersion string   `json:"goVersion" yaml:"goVersion"`
	Platform  string   `json:"platform" yaml:"platform"`
	Drivers   []string `json:"drivers" yaml:"drivers"`
}

// Get returns the version information. Values not set through ldflags fall
// back to the module and VCS stamps the go tool embeds in the binary.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Drivers:   sql.Drivers(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		applyBuildInfo(&info, bi)
	}
	return info
}

func applyBuildInfo(info *Info, bi *debug.BuildInfo) {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && s.Value != "" {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "unknown" && s.Value != "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" && !strings.HasSuffix(info.Commit, "-dirty") && info.Commit != "unknown" {
				info.Commit += "-dirty"
			}
		}
	}
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String returns a formatted version string
func (i Info) String() string {
	drivers := strings.Join(i.Drivers, ", ")
	if drivers == "" {
		drivers = "none"
	}
	return fmt.Sprintf("shardexec %s\n  Commit:     %s\n  Build Time: %s\n  Go Version: %s\n  Platform:   %s\n  Drivers:    %s",
		i.Version, i.Commit, i.BuildTime, i.GoVersion, i.Platform, drivers)
}

// JSON returns version info as JSON string
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
