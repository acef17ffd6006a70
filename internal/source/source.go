// Package source opens record files for the command line. Paths ending in
// .xz or .gz, and stdin streams starting with their magic bytes, are
// decompressed transparently; "-" means stdin or stdout.
package source

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/ulikunitz/xz"
)

// Stdio names standard input or output.
const Stdio = "-"

// sniffSize is how much of a stream is peeked for magic bytes and format
// detection.
const sniffSize = 512

var (
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic = []byte{0x1F, 0x8B}
)

// Reader is an opened, decompressed source.
type Reader struct {
	*bufio.Reader
	name         string
	file         *os.File
	decompressor io.Closer
}

// Open opens path for reading, or stdin for "-".
func Open(path string) (*Reader, error) {
	if path == Stdio {
		return NewReader("stdin", os.Stdin, nil)
	}
	if err := ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid input path: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	r, err := NewReader(path, f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// NewReader wraps r, decompressing it when it starts with xz or gzip magic.
// file, if not nil, is closed by Close.
func NewReader(name string, r io.Reader, file *os.File) (*Reader, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(xzMagic))

	var reader io.Reader = br
	var decompressor io.Closer
	switch {
	case bytes.HasPrefix(head, xzMagic):
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	case bytes.HasPrefix(head, gzipMagic):
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		reader = gzr
		decompressor = gzr
	}

	return &Reader{
		Reader:       bufio.NewReaderSize(reader, sniffSize),
		name:         name,
		file:         file,
		decompressor: decompressor,
	}, nil
}

// Name returns the path the source was opened from.
func (r *Reader) Name() string {
	return r.name
}

// Format sniffs the decompressed content, falling back to the file
// extension when the content is inconclusive.
func (r *Reader) Format() Format {
	head, _ := r.Peek(sniffSize)
	if f := Sniff(head); f != FormatAuto {
		return f
	}
	return FormatFromPath(r.name)
}

// Close closes the decompressor and the underlying file.
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Format names a record serialization.
type Format string

const (
	FormatAuto     Format = "auto"
	FormatISO2709  Format = "iso2709"
	FormatXML      Format = "xml"
	FormatMnemonic Format = "mrk"
)

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "iso2709", "marc", "mrc", "binary":
		return FormatISO2709, nil
	case "xml", "marcxml":
		return FormatXML, nil
	case "mrk", "mnemonic", "text":
		return FormatMnemonic, nil
	}
	return FormatAuto, errors.NewUnsupported("format", fmt.Sprintf("%q", s))
}

// FormatFromPath guesses a format from the extension, ignoring a
// compression suffix. It returns FormatAuto when there is no match.
func FormatFromPath(path string) Format {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".xz"), ".gz")
	switch filepath.Ext(base) {
	case ".mrc", ".marc", ".dat", ".iso", ".bin":
		return FormatISO2709
	case ".xml", ".marcxml":
		return FormatXML
	case ".mrk", ".txt":
		return FormatMnemonic
	}
	return FormatAuto
}

// Sniff recognises a format from the first bytes of content: a markup
// start, a =LDR line, or five leader digits.
func Sniff(head []byte) Format {
	head = bytes.TrimPrefix(head, []byte("\xEF\xBB\xBF"))
	head = bytes.TrimLeft(head, " \t\r\n")
	switch {
	case len(head) == 0:
		return FormatAuto
	case head[0] == '<':
		return FormatXML
	case bytes.HasPrefix(head, []byte("=LDR")):
		return FormatMnemonic
	case len(head) >= 5 && allDigits(head[:5]):
		return FormatISO2709
	}
	return FormatAuto
}

func allDigits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
