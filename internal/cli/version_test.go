package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/aryankumar/shardexec/pkg/version"
)

func runVersionCmd(t *testing.T, args ...string) string {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"version", "--config", writeEmptyConfig(t)}, args...))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := runVersionCmd(t)

	for _, want := range []string{"shardexec", "Commit:", "Drivers:", "mysql", "postgres"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCommandJSON(t *testing.T) {
	out := runVersionCmd(t, "-o", "json")

	var info version.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if info.Version == "" || info.Platform == "" {
		t.Errorf("incomplete info: %+v", info)
	}
}

func TestVersionCommandYAML(t *testing.T) {
	out := runVersionCmd(t, "-o", "yaml")

	var info version.Info
	if err := yaml.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, out)
	}
	if len(info.Drivers) == 0 {
		t.Errorf("drivers missing: %+v", info)
	}
}

func TestVersionCommandTable(t *testing.T) {
	out := runVersionCmd(t, "-o", "table", "--no-color")

	for _, want := range []string{"KEY", "VALUE", "Go Version", "Platform"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
