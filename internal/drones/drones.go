// Package drones defines the adapter contract for turning raw calculation
// output directories into task documents, plus the directory walk shared by
// every drone.
package drones

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"

	"atomflow/internal/fileutil"
)

// Drone discovers calculation directories and parses them into documents.
// Each simulation code ships its own implementation.
type Drone interface {
	// Name identifies the drone, e.g. "vasp".
	Name() string
	// FindValidPaths walks root and returns every directory that looks like
	// a completed calculation of this drone's code.
	FindValidPaths(root string) ([]string, error)
	// Assimilate parses one calculation directory into a document. The
	// concrete document type is drone-specific; all satisfy Document.
	Assimilate(ctx context.Context, dir string) (Document, error)
}

// Document is the common surface of every assimilated task document.
type Document interface {
	Validate() error
}

// FindDirsWithFile walks root and collects directories containing at least
// one of the marker files, directly or gzipped. Markers are file names, not
// globs.
func FindDirsWithFile(root string, markers ...string) ([]string, error) {
	seen := map[string]bool{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		for _, marker := range markers {
			if fileutil.Exists(filepath.Join(path, marker)) {
				seen[path] = true
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// FindDirsWithPrefix walks root and collects directories containing at least
// one file whose name starts with prefix, e.g. "mol.qout" matching
// mol.qout, mol.qout.opt_0 and their gzipped forms.
func FindDirsWithPrefix(root string, prefix string) ([]string, error) {
	seen := map[string]bool{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			seen[filepath.Dir(path)] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}
