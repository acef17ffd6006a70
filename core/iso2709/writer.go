package iso2709

import (
	"bufio"
	"io"

	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
)

// Writer encodes records onto a stream back to back.
type Writer struct {
	bw    *bufio.Writer
	enc   *encoder
	count int
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer, opts *Options) *Writer {
	return &Writer{bw: bufio.NewWriter(w), enc: newEncoder(opts)}
}

// Write encodes rec. An encoding error leaves the stream untouched.
func (w *Writer) Write(rec *marc.Record) error {
	b, err := w.enc.encode(rec)
	if err != nil {
		return err
	}
	if _, err := w.bw.Write(b); err != nil {
		return errors.NewIO("write", "", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Close flushes buffered output. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		return errors.NewIO("flush", "", err)
	}
	return nil
}
