package fileutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestZpathPrefersPlainFile(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "OUTCAR")
	if err := os.WriteFile(plain, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Zpath(plain); got != plain {
		t.Fatalf("Zpath = %q, want %q", got, plain)
	}
}

func TestZpathFallsBackToGzip(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "OUTCAR")
	if err := os.WriteFile(plain, []byte("vasp output"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := GzipFile(plain); err != nil {
		t.Fatal(err)
	}

	if got := Zpath(plain); got != plain+".gz" {
		t.Fatalf("Zpath = %q, want %q", got, plain+".gz")
	}
	if !Exists(plain) {
		t.Fatal("Exists should accept gzipped variant")
	}
}

func TestOpenTransparentGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "OSZICAR")
	content := "E0= -123.456"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := GzipFile(path); err != nil {
		t.Fatal(err)
	}

	reader, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Fatalf("content = %q, want %q", got, content)
	}
}

func TestGzipGunzipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "WAVECAR")
	if err := os.WriteFile(path, []byte("wavefunction"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := GzipFile(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("original should be removed after gzip")
	}

	if err := GunzipFile(path + ".gz"); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "wavefunction" {
		t.Fatalf("content = %q", got)
	}
}

func TestCopyCalcFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	for _, name := range []string{"INCAR", "POSCAR", "WAVECAR.gz", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	copied, err := CopyCalcFiles(src, dst, CopyOptions{IncludeFiles: []string{"INCAR", "WAVECAR"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(copied) != 2 {
		t.Fatalf("copied %d files, want 2: %v", len(copied), copied)
	}
	if _, err := os.Stat(filepath.Join(dst, "WAVECAR.gz")); err != nil {
		t.Fatal("gzipped variant should satisfy plain include pattern")
	}
	if _, err := os.Stat(filepath.Join(dst, "notes.txt")); !os.IsNotExist(err) {
		t.Fatal("unmatched file should not be copied")
	}
}

func TestCopyCalcFilesMissingPattern(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	_, err := CopyCalcFiles(src, dst, CopyOptions{IncludeFiles: []string{"CHGCAR"}})
	if err == nil {
		t.Fatal("expected error for unmatched pattern")
	}

	if _, err := CopyCalcFiles(src, dst, CopyOptions{IncludeFiles: []string{"CHGCAR"}, AllowMissing: true}); err != nil {
		t.Fatalf("AllowMissing should suppress error: %v", err)
	}
}

func TestCopyCalcFilesPrefix(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "WAVECAR"), []byte("w"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := CopyCalcFiles(src, dst, CopyOptions{IncludeFiles: []string{"WAVECAR"}, Prefix: "qqq."}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dst, "qqq.WAVECAR")); err != nil {
		t.Fatal("expected prefixed destination file")
	}
}

func TestRenameFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "qqq.WAVECAR"), []byte("w"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := RenameFiles(dir, map[string]string{
		"qqq.WAVECAR": "WAVECAR.qqq",
		"missing":     "ignored",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "WAVECAR.qqq")); err != nil {
		t.Fatal("expected renamed file")
	}
}

func TestStripHostname(t *testing.T) {
	cases := map[string]string{
		"node12:/scratch/run-1": "/scratch/run-1",
		"/scratch/run-1":        "/scratch/run-1",
		"":                      "",
	}
	for input, want := range cases {
		if got := StripHostname(input); got != want {
			t.Errorf("StripHostname(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestGzipDirSkipsNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"OUTCAR", "INCAR"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := GzipDir(dir, "INCAR"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "OUTCAR.gz")); err != nil {
		t.Fatal("OUTCAR should be gzipped")
	}
	if _, err := os.Stat(filepath.Join(dir, "INCAR")); err != nil {
		t.Fatal("INCAR should be skipped")
	}
}
