package mrk

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/FocuswithJustin/JuniperMARC/core/encoding"
	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
)

// Marshal renders rec as a mnemonic block: the =LDR line, one line per
// field and a trailing blank line.
func Marshal(rec *marc.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeRecord(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRecord(w *bytes.Buffer, rec *marc.Record) error {
	if rec == nil {
		return errors.NewValidation("record", "nil record")
	}
	w.WriteString("=LDR  ")
	w.WriteString(toBlanks(rec.Leader.String()))
	w.WriteByte('\n')
	for _, f := range rec.Fields {
		if len(f.Tag()) != 3 {
			return errors.NewValidation("tag", "tag "+f.Tag()+" is not 3 characters")
		}
		w.WriteByte('=')
		w.WriteString(f.Tag())
		w.WriteString("  ")
		switch v := f.(type) {
		case *marc.ControlField:
			w.WriteString(toBlanks(escape(v.Data)))
		case *marc.DataField:
			w.WriteByte(indicator(v.Indicator1))
			w.WriteByte(indicator(v.Indicator2))
			for _, sf := range v.Subfields {
				w.WriteByte('$')
				w.WriteByte(sf.Code)
				w.WriteString(escape(sf.Value))
			}
		}
		w.WriteByte('\n')
	}
	w.WriteByte('\n')
	return nil
}

// escape applies the mnemonic escapes and folds line breaks, which would
// otherwise split the field.
func escape(s string) string {
	s = encoding.EscapeMnemonic(s)
	if strings.ContainsAny(s, "\r\n") {
		s = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
	}
	return s
}

func toBlanks(s string) string {
	return strings.ReplaceAll(s, " ", `\`)
}

func indicator(b byte) byte {
	if b == ' ' || b == 0 {
		return '\\'
	}
	return b
}

// Writer streams mnemonic blocks to an underlying writer.
type Writer struct {
	bw    *bufio.Writer
	buf   bytes.Buffer
	count int
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Write appends one record. A record that cannot be rendered leaves the
// output untouched.
func (w *Writer) Write(rec *marc.Record) error {
	w.buf.Reset()
	if err := writeRecord(&w.buf, rec); err != nil {
		return err
	}
	if _, err := w.bw.Write(w.buf.Bytes()); err != nil {
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
