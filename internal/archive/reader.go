// Package archive provides transparent compression handling for
// reference inputs and outputs. Taxonomy tables and sequence sets are
// commonly distributed as .gz or .xz compressed flat files; OpenReader
// and Create hide the codec behind plain reader/writer interfaces.
package archive

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Reader wraps an input file with automatic decompression handling.
type Reader struct {
	io.Reader
	file         *os.File
	decompressor io.Closer
}

// OpenReader opens the given path for reading. Files ending in .xz or
// .gz are decompressed transparently; anything else is read as-is.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	r := &Reader{Reader: f, file: f}
	switch {
	case strings.HasSuffix(path, ".xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		// The xz reader holds no resources of its own.
		r.Reader = xzr
	case strings.HasSuffix(path, ".gz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		r.Reader = gzr
		r.decompressor = gzr
	}
	return r, nil
}

// Close closes the decompressor, when one is active, and the file.
func (r *Reader) Close() error {
	var derr error
	if r.decompressor != nil {
		derr = r.decompressor.Close()
	}
	return errors.Join(derr, r.file.Close())
}

// ReadAll reads the entire decompressed content of path.
func ReadAll(path string) ([]byte, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// IsCompressed reports whether path names a compressed file by suffix.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".xz")
}

// BaseName returns the filename of path with any compression suffix
// removed, so format detection can look at the real extension of
// files like taxonomy.tsv.gz.
func BaseName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	return strings.TrimSuffix(name, ".xz")
}
