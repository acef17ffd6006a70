package marcxml

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/JuniperMARC/core/encoding"
	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
)

const (
	header = `<?xml version="1.0" encoding="UTF-8"?>`
	indent = "  "
)

// Marshal renders rec as a single record element. With Namespace set the
// record element carries the namespace declarations.
func Marshal(rec *marc.Record, opts *WriteOptions) ([]byte, error) {
	o := opts.get()
	var buf bytes.Buffer
	if err := writeRecord(&buf, rec, o, 0, o.Namespace); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeRecord emits one record element at the given depth. Text is escaped
// so any record produces well-formed XML.
func writeRecord(w *bytes.Buffer, rec *marc.Record, o WriteOptions, depth int, root bool) error {
	if rec == nil {
		return errors.NewValidation("record", "nil record")
	}
	diag := o.handler()
	startElement(w, o, depth, "record", root)
	w.WriteByte('>')

	line(w, o, depth+1)
	w.WriteString("<leader>")
	w.WriteString(encoding.EscapeXMLText(byteText(rec.Leader[:], "", 0, diag)))
	w.WriteString("</leader>")

	for _, f := range rec.Fields {
		line(w, o, depth+1)
		switch v := f.(type) {
		case *marc.ControlField:
			w.WriteString(`<controlfield tag="`)
			w.WriteString(encoding.EscapeXMLAttr(v.Tag()))
			w.WriteString(`">`)
			w.WriteString(encoding.EscapeXMLText(checkUTF8(v.Data, v.Tag(), 0, diag)))
			w.WriteString("</controlfield>")
		case *marc.DataField:
			w.WriteString(`<datafield tag="`)
			w.WriteString(encoding.EscapeXMLAttr(v.Tag()))
			w.WriteString(`" ind1="`)
			w.WriteString(encoding.EscapeXMLAttr(byteText([]byte{v.Indicator1}, v.Tag(), 0, diag)))
			w.WriteString(`" ind2="`)
			w.WriteString(encoding.EscapeXMLAttr(byteText([]byte{v.Indicator2}, v.Tag(), 0, diag)))
			w.WriteString(`">`)
			for _, sf := range v.Subfields {
				line(w, o, depth+2)
				w.WriteString(`<subfield code="`)
				w.WriteString(encoding.EscapeXMLAttr(byteText([]byte{sf.Code}, v.Tag(), 0, diag)))
				w.WriteString(`">`)
				w.WriteString(encoding.EscapeXMLText(checkUTF8(sf.Value, v.Tag(), sf.Code, diag)))
				w.WriteString("</subfield>")
			}
			line(w, o, depth+1)
			w.WriteString("</datafield>")
		}
	}
	line(w, o, depth)
	w.WriteString("</record>")
	return nil
}

// byteText maps single-byte values (leader, indicators, codes) to the
// characters U+0000-U+00FF so the reader can restore every byte. Bytes XML
// cannot carry are written as spaces with a diagnostic.
func byteText(b []byte, tag string, code byte, diag marc.DiagnosticHandler) string {
	var sb strings.Builder
	for i, c := range b {
		r := rune(c)
		if !encoding.IsXMLChar(r) {
			diag.Emit(marc.Diagnostic{
				Kind: marc.DiagUnrepresentable, Tag: tag, Code: code, Offset: i, Byte: c,
				Message: "byte cannot be written in XML; using a space",
			})
			r = ' '
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// checkUTF8 reports invalid UTF-8 in a value. The escaper replaces it.
func checkUTF8(s, tag string, code byte, diag marc.DiagnosticHandler) string {
	if !utf8.ValidString(s) {
		diag.Emit(marc.Diagnostic{
			Kind: marc.DiagInvalidUTF8, Tag: tag, Code: code, Offset: -1,
			Message: "invalid UTF-8 written as U+FFFD",
		})
	}
	return s
}

// startElement writes the start of an element without the closing '>'.
func startElement(w *bytes.Buffer, o WriteOptions, depth int, name string, root bool) {
	writeIndent(w, o, depth)
	w.WriteByte('<')
	w.WriteString(name)
	if root && o.Namespace {
		w.WriteString(` xmlns="` + Namespace + `"`)
		w.WriteString(` xmlns:xsi="` + SchemaInstance + `"`)
		w.WriteString(` xsi:schemaLocation="` + SchemaLocation + `"`)
	}
}

// line starts a new line at depth when indenting.
func line(w *bytes.Buffer, o WriteOptions, depth int) {
	if o.Indent {
		w.WriteByte('\n')
		writeIndent(w, o, depth)
	}
}

func writeIndent(w *bytes.Buffer, o WriteOptions, depth int) {
	if !o.Indent {
		return
	}
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}

// Writer streams records into a collection document. The namespace, when
// requested, is declared once on the collection element.
type Writer struct {
	bw      *bufio.Writer
	opts    WriteOptions
	buf     bytes.Buffer
	started bool
	count   int
}

// NewWriter returns a Writer over w. Nothing is written until the first
// record or Close.
func NewWriter(w io.Writer, opts *WriteOptions) *Writer {
	return &Writer{bw: bufio.NewWriter(w), opts: opts.get()}
}

func (w *Writer) start() error {
	if w.started {
		return nil
	}
	w.started = true
	w.buf.Reset()
	w.buf.WriteString(header)
	w.buf.WriteByte('\n')
	startElement(&w.buf, w.opts, 0, "collection", true)
	w.buf.WriteByte('>')
	return w.flushBuf()
}

// Write appends one record element to the collection.
func (w *Writer) Write(rec *marc.Record) error {
	if err := w.start(); err != nil {
		return err
	}
	w.buf.Reset()
	if w.opts.Indent {
		w.buf.WriteByte('\n')
	}
	if err := writeRecord(&w.buf, rec, w.opts, 1, false); err != nil {
		return err
	}
	if err := w.flushBuf(); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Close ends the collection and flushes. It does not close the underlying
// writer.
func (w *Writer) Close() error {
	if err := w.start(); err != nil {
		return err
	}
	w.buf.Reset()
	if w.opts.Indent {
		w.buf.WriteByte('\n')
	}
	w.buf.WriteString("</collection>\n")
	if err := w.flushBuf(); err != nil {
		return err
	}
	if err := w.bw.Flush(); err != nil {
		return errors.NewIO("flush", "", err)
	}
	return nil
}

func (w *Writer) flushBuf() error {
	if _, err := w.bw.Write(w.buf.Bytes()); err != nil {
		return errors.NewIO("write", "", err)
	}
	return nil
}
