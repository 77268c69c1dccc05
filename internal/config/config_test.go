package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Symmetry.Symprec != defaultSymprec {
		t.Fatalf("symprec = %g, want %g", cfg.Symmetry.Symprec, defaultSymprec)
	}
	if cfg.VASP.Command != defaultVASPCommand {
		t.Fatalf("vasp command = %q", cfg.VASP.Command)
	}
	if !filepath.IsAbs(cfg.Paths.ScratchDir) {
		t.Fatalf("scratch dir not absolute: %q", cfg.Paths.ScratchDir)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
scratch_dir = "` + filepath.Join(dir, "scratch") + `"

[symmetry]
symprec = 0.01

[vasp]
command = "vasp_ncl"

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Symmetry.Symprec != 0.01 {
		t.Fatalf("symprec = %g", cfg.Symmetry.Symprec)
	}
	if cfg.VASP.Command != "vasp_ncl" {
		t.Fatalf("vasp command = %q", cfg.VASP.Command)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidSymprec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[symmetry]\nsymprec = -1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation error for negative symprec")
	}
}

func TestLoadRejectsInvalidLogFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unsupported log format")
	}
}

func TestMPAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("MP_API_KEY", "test-key-123")
	cfg, _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaterialsProject.APIKey != "test-key-123" {
		t.Fatalf("api key = %q", cfg.MaterialsProject.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[materials_project]") {
		t.Fatal("sample config missing materials_project section")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Paths.ScratchDir = filepath.Join(dir, "scratch")
	cfg.Paths.StoreDir = filepath.Join(dir, "store")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, p := range []string{cfg.Paths.ScratchDir, cfg.Paths.StoreDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", p, err)
		}
	}
}
