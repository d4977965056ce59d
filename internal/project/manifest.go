package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults applied when lumen.toml omits a [build] key.
const (
	DefaultBranchQuota    = 1000
	DefaultMaxDiagnostics = 100
)

// SafetyMode selects whether analysis inserts runtime safety checks.
type SafetyMode uint8

const (
	SafetyOn SafetyMode = iota
	SafetyOff
)

func (m SafetyMode) String() string {
	if m == SafetyOff {
		return "off"
	}
	return "on"
}

// ParseSafetyMode reads a [build].safety value.
func ParseSafetyMode(s string) (SafetyMode, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "on":
		return SafetyOn, nil
	case "off":
		return SafetyOff, nil
	default:
		return SafetyOn, fmt.Errorf("invalid safety mode %q (expected on|off)", s)
	}
}

// BuildProfile is the [build] section of lumen.toml.
type BuildProfile struct {
	Safety         SafetyMode
	BranchQuota    uint32
	MaxDiagnostics int
}

// DefaultBuildProfile returns the profile used when no manifest exists.
func DefaultBuildProfile() BuildProfile {
	return BuildProfile{
		Safety:         SafetyOn,
		BranchQuota:    DefaultBranchQuota,
		MaxDiagnostics: DefaultMaxDiagnostics,
	}
}

// Manifest is a parsed lumen.toml.
type Manifest struct {
	Path    string
	Root    string
	Package string
	Build   BuildProfile
	// Warnings lists non-fatal manifest issues (unknown keys).
	Warnings []string
}

type manifestFile struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Build struct {
		Safety         string `toml:"safety"`
		BranchQuota    int64  `toml:"branch_quota"`
		MaxDiagnostics int64  `toml:"max_diagnostics"`
	} `toml:"build"`
}

// LoadManifest parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	var raw manifestFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(raw.Package.Name) == "" {
		return nil, fmt.Errorf("%s: missing [package].name", path)
	}

	m := &Manifest{
		Path:    path,
		Root:    filepath.Dir(path),
		Package: strings.TrimSpace(raw.Package.Name),
		Build:   DefaultBuildProfile(),
	}

	if meta.IsDefined("build", "safety") {
		mode, err := ParseSafetyMode(raw.Build.Safety)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		m.Build.Safety = mode
	}
	if meta.IsDefined("build", "branch_quota") {
		if raw.Build.BranchQuota <= 0 || raw.Build.BranchQuota > int64(^uint32(0)) {
			return nil, fmt.Errorf("%s: [build].branch_quota out of range: %d", path, raw.Build.BranchQuota)
		}
		m.Build.BranchQuota = uint32(raw.Build.BranchQuota)
	}
	if meta.IsDefined("build", "max_diagnostics") {
		if raw.Build.MaxDiagnostics <= 0 {
			return nil, fmt.Errorf("%s: [build].max_diagnostics must be positive", path)
		}
		m.Build.MaxDiagnostics = int(raw.Build.MaxDiagnostics)
	}

	for _, key := range meta.Undecoded() {
		m.Warnings = append(m.Warnings, fmt.Sprintf("unknown manifest key %q", key.String()))
	}
	return m, nil
}

// LoadNearestManifest finds and parses the closest lumen.toml above
// startDir. ok is false when no manifest exists; the caller falls back to
// DefaultBuildProfile.
func LoadNearestManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindLumenToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := LoadManifest(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}
