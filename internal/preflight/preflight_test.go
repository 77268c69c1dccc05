package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"atomflow/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckMaterialsProject_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"db_version": "2025.07.10"}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.MaterialsProject.BaseURL = srv.URL
	cfg.MaterialsProject.APIKey = "good-key"

	result := CheckMaterialsProject(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckMaterialsProject_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.MaterialsProject.BaseURL = srv.URL
	cfg.MaterialsProject.APIKey = "bad-key"

	result := CheckMaterialsProject(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestCheckMaterialsProject_MissingKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.MaterialsProject.APIKey = ""

	result := CheckMaterialsProject(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.MaterialsProject.APIKey = ""

	results := RunAll(context.Background(), cfg)
	// Scratch, store, and log directory checks
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_IncludesAPIWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"db_version": "2025.07.10"}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.MaterialsProject.BaseURL = srv.URL
	cfg.MaterialsProject.APIKey = "test"

	results := RunAll(context.Background(), cfg)
	found := false
	for _, r := range results {
		if r.Name == "Materials Project API" {
			found = true
			if !r.Passed {
				t.Errorf("API check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected Materials Project API check in results")
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.VASP.Command = "clearly-not-present-vasp"
	cfg.VASP.GammaCommand = ""

	statuses := CheckSystemDeps(cfg)
	if len(statuses) != 5 {
		t.Fatalf("expected 5 statuses, got %d", len(statuses))
	}
	last := statuses[len(statuses)-1]
	if last.Name != "VASP (gamma-only)" {
		t.Fatalf("expected gamma status last, got %q", last.Name)
	}
}
