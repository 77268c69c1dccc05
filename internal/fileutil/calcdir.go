package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CopyOptions filters which files a directory copy touches.
type CopyOptions struct {
	// IncludeFiles restricts the copy to base names matching any of these
	// glob patterns. Empty means copy everything.
	IncludeFiles []string
	// Prefix is prepended to each destination base name.
	Prefix string
	// AllowMissing suppresses errors for include patterns that match nothing.
	AllowMissing bool
}

// CopyCalcFiles copies files from one calculation directory to another,
// matching each requested name against both plain and gzipped variants.
func CopyCalcFiles(srcDir, dstDir string, opts CopyOptions) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	matched := map[string]bool{}
	var copied []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(opts.IncludeFiles) > 0 {
			pattern, ok := matchesAny(name, opts.IncludeFiles)
			if !ok {
				continue
			}
			matched[pattern] = true
		}
		dst := filepath.Join(dstDir, opts.Prefix+name)
		if err := CopyFile(filepath.Join(srcDir, name), dst); err != nil {
			return copied, fmt.Errorf("copy %s: %w", name, err)
		}
		copied = append(copied, dst)
	}

	if !opts.AllowMissing {
		for _, pattern := range opts.IncludeFiles {
			if !matched[pattern] {
				return copied, fmt.Errorf("no file matching %q in %s", pattern, srcDir)
			}
		}
	}
	return copied, nil
}

// matchesAny checks name against each pattern, also accepting a gzipped
// variant of the pattern.
func matchesAny(name string, patterns []string) (string, bool) {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return pattern, true
		}
		if ok, _ := filepath.Match(pattern+".gz", name); ok {
			return pattern, true
		}
	}
	return "", false
}

// GzipDir compresses every regular file in dir except those already
// compressed and any base names in skip.
func GzipDir(dir string, skip ...string) error {
	skipSet := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		skipSet[name] = struct{}{}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".gz") {
			continue
		}
		if _, ok := skipSet[name]; ok {
			continue
		}
		if err := GzipFile(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("gzip %s: %w", name, err)
		}
	}
	return nil
}

// GunzipDir decompresses files in dir whose trimmed base names match any of
// the include patterns. Empty include decompresses everything.
func GunzipDir(dir string, include ...string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".gz") {
			continue
		}
		if len(include) > 0 {
			if _, ok := matchesAny(strings.TrimSuffix(name, ".gz"), include); !ok {
				continue
			}
		}
		if err := GunzipFile(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("gunzip %s: %w", name, err)
		}
	}
	return nil
}

// RenameFiles applies a map of old base name to new base name within dir.
// Missing sources are skipped.
func RenameFiles(dir string, renames map[string]string) error {
	for from, to := range renames {
		src := filepath.Join(dir, from)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, filepath.Join(dir, to)); err != nil {
			return fmt.Errorf("rename %s: %w", from, err)
		}
	}
	return nil
}

// StripHostname removes a "host:" prefix from directory references. Engine
// output stores record remote directories as host:path; local file access
// only needs the path.
func StripHostname(dir string) string {
	if idx := strings.LastIndex(dir, ":"); idx >= 0 {
		return dir[idx+1:]
	}
	return dir
}
