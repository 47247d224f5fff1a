package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	v := Version{Major: "1", Minor: "2", Patch: "3", Metadata: "dev", Build: "abcdef"}
	if s := v.String(); s != "Version: 1.2.3-dev\nBuild: abcdef" {
		t.Errorf("unexpected version string %q", s)
	}
	if s := DwarfsymVersion.String(); !strings.HasPrefix(s, "Version: 0.3.0\nBuild: ") {
		t.Errorf("unexpected version string %q", s)
	}
}

func TestBuildInfo(t *testing.T) {
	if !strings.Contains(BuildInfo(), "go") {
		t.Errorf("build info should contain the Go version: %q", BuildInfo())
	}
}
