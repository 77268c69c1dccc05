package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"atomflow/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unconfigured", Command: "", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for unconfigured command: %#v", results[2])
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.VASP.Command = "vasp_std"
	cfg.QChem.Command = ""

	reqs := Requirements(cfg)
	if len(reqs) != 4 {
		t.Fatalf("expected 4 requirements, got %d", len(reqs))
	}
	if reqs[0].Name != "VASP" || reqs[0].Command != "vasp_std" || reqs[0].Optional {
		t.Fatalf("unexpected VASP requirement: %#v", reqs[0])
	}
	if reqs[1].Command != "" || !reqs[1].Optional {
		t.Fatalf("unexpected Q-Chem requirement: %#v", reqs[1])
	}
}

func TestCheckGammaVaspConfigured(t *testing.T) {
	tmp := t.TempDir()
	gammaPath := filepath.Join(tmp, executableName("vasp_gam_custom"))
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(gammaPath, script, 0o755); err != nil {
		t.Fatalf("write gamma stub: %v", err)
	}

	status := CheckGammaVasp("vasp_std", gammaPath)
	if !status.Available {
		t.Fatalf("expected configured gamma binary to be available, got detail %q", status.Detail)
	}
	if status.Command != gammaPath {
		t.Fatalf("expected command %q, got %q", gammaPath, status.Command)
	}
}

func TestCheckGammaVaspSibling(t *testing.T) {
	tmp := t.TempDir()
	vaspPath := filepath.Join(tmp, executableName("vasp_std"))
	gammaPath := filepath.Join(tmp, executableName("vasp_gam"))
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(vaspPath, script, 0o755); err != nil {
		t.Fatalf("write vasp stub: %v", err)
	}
	if err := os.WriteFile(gammaPath, script, 0o755); err != nil {
		t.Fatalf("write gamma sibling: %v", err)
	}

	status := CheckGammaVasp(vaspPath, "")
	if !status.Available {
		t.Fatalf("expected gamma sibling to be available, got detail %q", status.Detail)
	}
	if status.Command != gammaPath {
		t.Fatalf("expected command %q, got %q", gammaPath, status.Command)
	}
}

func TestCheckGammaVaspPathFallback(t *testing.T) {
	tmp := t.TempDir()
	vaspPath := filepath.Join(tmp, executableName("vasp_std"))
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(vaspPath, script, 0o755); err != nil {
		t.Fatalf("write vasp stub: %v", err)
	}

	binDir := filepath.Join(tmp, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	gammaPath := filepath.Join(binDir, executableName("vasp_gam"))
	if err := os.WriteFile(gammaPath, script, 0o755); err != nil {
		t.Fatalf("write gamma stub: %v", err)
	}
	oldPath := os.Getenv("PATH")
	newPath := binDir
	if oldPath != "" {
		newPath = binDir + string(os.PathListSeparator) + oldPath
	}
	t.Setenv("PATH", newPath)

	status := CheckGammaVasp(vaspPath, "")
	if !status.Available {
		t.Fatalf("expected gamma fallback to be available, got detail %q", status.Detail)
	}
	if status.Command != gammaPath {
		t.Fatalf("expected command %q, got %q", gammaPath, status.Command)
	}
}

func TestCheckGammaVaspNotFound(t *testing.T) {
	t.Setenv("PATH", "")
	status := CheckGammaVasp("vasp_std", "")
	if status.Available {
		t.Fatal("expected gamma resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when gamma binary is unavailable")
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
