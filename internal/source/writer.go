package source

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Writer is an output file, compressed according to its extension.
type Writer struct {
	io.Writer
	file       *os.File
	compressor io.Closer
}

// Create creates path for writing, or wraps stdout for "-". A .xz or .gz
// suffix compresses the output. Parent directories are created.
func Create(path string) (*Writer, error) {
	if path == Stdio || path == "" {
		return &Writer{Writer: os.Stdout}, nil
	}
	if err := ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := &Writer{Writer: f, file: f}
	switch {
	case strings.HasSuffix(path, ".xz"):
		xw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		w.Writer, w.compressor = xw, xw
	case strings.HasSuffix(path, ".gz"):
		gw := gzip.NewWriter(f)
		w.Writer, w.compressor = gw, gw
	}
	return w, nil
}

// Close finishes compression and closes the file. Stdout is left open.
func (w *Writer) Close() error {
	var errs []error
	if w.compressor != nil {
		if err := w.compressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
