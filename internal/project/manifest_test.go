package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "lumen.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifestDefaults(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Package != "demo" {
		t.Fatalf("package = %q", m.Package)
	}
	if m.Build != DefaultBuildProfile() {
		t.Fatalf("build = %+v, want defaults", m.Build)
	}
	if len(m.Warnings) != 0 {
		t.Fatalf("warnings = %v", m.Warnings)
	}
}

func TestLoadManifestBuildSection(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"

[build]
safety = "off"
branch_quota = 5000
max_diagnostics = 20
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Build.Safety != SafetyOff {
		t.Fatalf("safety = %s", m.Build.Safety)
	}
	if m.Build.BranchQuota != 5000 {
		t.Fatalf("branch_quota = %d", m.Build.BranchQuota)
	}
	if m.Build.MaxDiagnostics != 20 {
		t.Fatalf("max_diagnostics = %d", m.Build.MaxDiagnostics)
	}
}

func TestLoadManifestUnknownKeyWarns(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"
flavor = "salty"
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one", m.Warnings)
	}
}

func TestLoadManifestMissingName(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for missing package name")
	}
}

func TestLoadManifestBadSafety(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"

[build]
safety = "sometimes"
`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for invalid safety mode")
	}
}

func TestFindLumenTomlWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, ok, err := FindLumenToml(nested)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("manifest not found")
	}
	if filepath.Dir(path) != root {
		t.Fatalf("found %s, want manifest in %s", path, root)
	}
}

func TestFindLumenTomlAbsent(t *testing.T) {
	_, ok, err := FindLumenToml(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("found a manifest in an empty tree")
	}
}

func TestCombineIsOrderSensitive(t *testing.T) {
	a := HashBytes([]byte("a"))
	b := HashBytes([]byte("b"))
	c := HashBytes([]byte("content"))
	if Combine(c, a, b) == Combine(c, b, a) {
		t.Fatal("dependency order must affect the aggregate hash")
	}
	if Combine(c, a, b) != Combine(c, a, b) {
		t.Fatal("combine must be deterministic")
	}
}
