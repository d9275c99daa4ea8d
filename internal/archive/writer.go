package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Writer wraps an output file with automatic compression handling.
type Writer struct {
	io.Writer
	file       *os.File
	compressor io.Closer
}

// Create creates path for writing. Names ending in .xz or .gz select
// the matching compressor; anything else is written as-is.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	var writer io.Writer = f
	var compressor io.Closer

	switch {
	case strings.HasSuffix(path, ".xz"):
		xzw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		writer = xzw
		compressor = xzw
	case strings.HasSuffix(path, ".gz"):
		gzw := gzip.NewWriter(f)
		writer = gzw
		compressor = gzw
	}

	return &Writer{
		Writer:     writer,
		file:       f,
		compressor: compressor,
	}, nil
}

// Close flushes the compressor, if any, and closes the underlying file.
func (w *Writer) Close() error {
	var errs []error
	if w.compressor != nil {
		if err := w.compressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// WriteFile writes data to path with transparent compression.
func WriteFile(path string, data []byte) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return w.Close()
}
