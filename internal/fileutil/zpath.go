package fileutil

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Zpath returns the first existing variant of path, checking the plain name
// and then a .gz suffix. Simulation outputs are frequently gzipped after a
// run, so callers should never assume the uncompressed name exists. When
// neither variant exists the input path is returned unchanged.
func Zpath(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if strings.HasSuffix(path, ".gz") {
		trimmed := strings.TrimSuffix(path, ".gz")
		if _, err := os.Stat(trimmed); err == nil {
			return trimmed
		}
		return path
	}
	if _, err := os.Stat(path + ".gz"); err == nil {
		return path + ".gz"
	}
	return path
}

// Exists reports whether path or its .gz variant exists.
func Exists(path string) bool {
	resolved := Zpath(path)
	_, err := os.Stat(resolved)
	return err == nil
}

// Open opens path for reading, transparently decompressing when the resolved
// file carries a .gz suffix. The returned closer must be closed by the caller.
func Open(path string) (io.ReadCloser, error) {
	resolved := Zpath(path)
	file, err := os.Open(resolved)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(resolved, ".gz") {
		return file, nil
	}
	reader, err := gzip.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &gzipReadCloser{reader: reader, file: file}, nil
}

type gzipReadCloser struct {
	reader *gzip.Reader
	file   *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.reader.Read(p) }

func (g *gzipReadCloser) Close() error {
	rerr := g.reader.Close()
	ferr := g.file.Close()
	if rerr != nil {
		return rerr
	}
	return ferr
}

// GzipFile compresses path in place, producing path.gz and removing the
// original. Already-compressed files are left alone.
func GzipFile(path string) error {
	if strings.HasSuffix(path, ".gz") {
		return nil
	}
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	writer := gzip.NewWriter(out)
	if _, err := io.Copy(writer, in); err != nil {
		_ = writer.Close()
		_ = out.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// GunzipFile decompresses path (which must end in .gz) in place, removing the
// compressed original.
func GunzipFile(path string) error {
	if !strings.HasSuffix(path, ".gz") {
		return nil
	}
	in, err := Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	target := strings.TrimSuffix(path, ".gz")
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
