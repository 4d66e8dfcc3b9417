package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}

	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}

	if info.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}

	expectedPlatform := runtime.GOOS + "/" + runtime.GOARCH
	if info.Platform != expectedPlatform {
		t.Errorf("Platform = %s, want %s", info.Platform, expectedPlatform)
	}
}

func TestString(t *testing.T) {
	info := Get()
	output := info.String()

	if !strings.Contains(output, "shardexec") {
		t.Error("String output should contain 'shardexec'")
	}

	if !strings.Contains(output, info.Version) {
		t.Errorf("String output should contain version %s", info.Version)
	}

	if !strings.Contains(output, info.Commit) {
		t.Errorf("String output should contain commit %s", info.Commit)
	}
}

func TestJSON(t *testing.T) {
	info := Get()
	jsonStr, err := info.JSON()

	if err != nil {
		t.Fatalf("JSON() returned error: %v", err)
	}

	// Verify it's valid JSON by unmarshaling
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("JSON output is not valid: %v", err)
	}

	// Check key fields exist
	if result["version"] != info.Version {
		t.Errorf("JSON version = %s, want %s", result["version"], info.Version)
	}

	if result["commit"] != info.Commit {
		t.Errorf("JSON commit = %s, want %s", result["commit"], info.Commit)
	}
}

func TestApplyBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/aryankumar/shardexec", Version: "v1.2.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	tests := []struct {
		name string
		in   Info
		want Info
	}{
		{
			name: "fills unset fields",
			in:   Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"},
			want: Info{Version: "v1.2.0", Commit: "0123456789ab-dirty", BuildTime: "2024-05-01T10:00:00Z"},
		},
		{
			name: "ldflags win",
			in:   Info{Version: "v2.0.0", Commit: "feedbeef", BuildTime: "yesterday"},
			want: Info{Version: "v2.0.0", Commit: "feedbeef-dirty", BuildTime: "yesterday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			applyBuildInfo(&got, bi)
			if got.Version != tt.want.Version || got.Commit != tt.want.Commit || got.BuildTime != tt.want.BuildTime {
				t.Errorf("applyBuildInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyBuildInfoDevel(t *testing.T) {
	info := Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"}
	applyBuildInfo(&info, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

	if info.Version != "dev" || info.Commit != "unknown" {
		t.Errorf("devel builds should keep defaults, got %+v", info)
	}
}

func TestStringListsDrivers(t *testing.T) {
	info := Info{Version: "v1", Drivers: []string{"mysql", "postgres"}}
	if !strings.Contains(info.String(), "Drivers:    mysql, postgres") {
		t.Errorf("unexpected output:\n%s", info.String())
	}

	info.Drivers = nil
	if !strings.Contains(info.String(), "Drivers:    none") {
		t.Errorf("unexpected output:\n%s", info.String())
	}
}
