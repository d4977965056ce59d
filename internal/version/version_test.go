package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersionHasDefault(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	if !strings.Contains(Version, ".") {
		t.Errorf("Version %q is not dotted", Version)
	}
}

func TestVersionCanBeOverridden(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	// Simulates build-time -ldflags override.
	Version = "1.2.3"
	if Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", Version, "1.2.3")
	}
}

func TestPrettyPreservesVersionText(t *testing.T) {
	orig, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = orig, origNoColor }()

	color.NoColor = true
	Version = "1.2.3-rc1"
	if got := Pretty(); got != "1.2.3-rc1" {
		t.Errorf("Pretty() = %q, want the plain version string", got)
	}
}

func TestOptionalFieldsMayBeEmpty(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	GitCommit, BuildDate = "", ""
	if GitCommit != "" || BuildDate != "" {
		t.Error("GitCommit and BuildDate must accept empty values")
	}
}
