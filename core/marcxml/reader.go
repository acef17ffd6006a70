package marcxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/antchfx/xmlquery"
	"golang.org/x/net/html/charset"
)

// recordXPath matches record elements whatever their prefix or namespace.
const recordXPath = "//*[local-name()='record']"

const format = "marcxml"

// Reader pulls records out of a MARCXML document one at a time. Only the
// record being decoded is held in memory.
type Reader struct {
	sp    *xmlquery.StreamParser
	opts  Options
	diag  marc.DiagnosticHandler
	count int
	done  bool
}

// NewReader prepares a streaming reader over r. The document is not read
// until the first call to Read.
func NewReader(r io.Reader, opts *Options) (*Reader, error) {
	o := opts.get()
	dec := &xmlquery.DecoderOptions{
		Strict:        o.Strict,
		CharsetReader: charset.NewReaderLabel,
	}
	if !o.Strict {
		dec.AutoClose = xml.HTMLAutoClose
		dec.Entity = xml.HTMLEntity
	}
	sp, err := xmlquery.CreateStreamParserWithOptions(r, xmlquery.ParserOptions{Decoder: dec}, recordXPath)
	if err != nil {
		return nil, fmt.Errorf("creating stream parser: %w", err)
	}
	return &Reader{sp: sp, opts: o, diag: opts.handler()}, nil
}

// Read returns the next record, or io.EOF after the last one.
//
// A malformed document yields an error wrapping errors.ErrUnrecoverable,
// after which Read returns io.EOF. In strict mode a record with missing or
// invalid attributes yields a *errors.ParseError and reading continues.
func (r *Reader) Read() (*marc.Record, error) {
	if r.done {
		return nil, io.EOF
	}
	n, err := r.sp.Read()
	if err == io.EOF {
		r.done = true
		return nil, io.EOF
	}
	if err != nil {
		r.done = true
		return nil, errors.Unrecoverable(int64(r.count), syntaxError(err))
	}
	r.count++
	rec, err := r.record(n)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", r.count, err)
	}
	return rec, nil
}

// Count returns the number of record elements seen so far.
func (r *Reader) Count() int {
	return r.count
}

func syntaxError(err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &errors.ParseError{Format: format, Line: se.Line, Message: se.Msg, Err: err}
	}
	return &errors.ParseError{Format: format, Message: err.Error(), Err: err}
}

func (r *Reader) emit(kind marc.DiagnosticKind, tag string, code byte, msg string) {
	r.diag.Emit(marc.Diagnostic{Kind: kind, Tag: tag, Code: code, Offset: -1, Message: msg})
}

func (r *Reader) record(n *xmlquery.Node) (*marc.Record, error) {
	rec := &marc.Record{}
	sawLeader := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		switch c.Data {
		case "leader":
			l, err := r.leader(c.InnerText())
			if err != nil {
				return nil, err
			}
			rec.Leader, sawLeader = l, true
		case "controlfield":
			f, err := r.controlField(c)
			if err != nil {
				return nil, err
			}
			if f != nil {
				rec.Fields = append(rec.Fields, f)
			}
		case "datafield":
			f, err := r.dataField(c)
			if err != nil {
				return nil, err
			}
			if f != nil {
				rec.Fields = append(rec.Fields, f)
			}
		}
	}
	if !sawLeader {
		l, err := r.leader("")
		if err != nil {
			return nil, err
		}
		rec.Leader = l
	}
	return rec, nil
}

func (r *Reader) leader(text string) (marc.Leader, error) {
	text = r.opts.Normalize.Apply(text)
	if b, ok := latin1(text); ok {
		text = b
	}
	l, adjusted := marc.LeaderFromString(text)
	if adjusted {
		msg := fmt.Sprintf("leader is %d bytes, want %d", len(text), marc.LeaderLength)
		if r.opts.Strict {
			return l, errors.NewParse(format, 0, msg)
		}
		r.emit(marc.DiagLeaderLength, "", 0, msg+"; padded or truncated")
	}
	return l, nil
}

// singleByte returns the byte a one-character attribute stands for.
// Characters up to U+00FF map to the byte of the same value.
func singleByte(v string) (byte, bool) {
	r, n := utf8.DecodeRuneInString(v)
	if n == 0 || n != len(v) || r > 0xFF || r == utf8.RuneError {
		return 0, false
	}
	return byte(r), true
}

// latin1 maps s to bytes when every character is at most U+00FF.
func latin1(s string) (string, bool) {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return "", false
		}
		b = append(b, byte(r))
	}
	return string(b), true
}

// validTag accepts three ASCII letters or digits.
func validTag(tag string) bool {
	if len(tag) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		c := tag[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// tag returns the tag attribute, or "" when the field has to be dropped.
func (r *Reader) tag(n *xmlquery.Node) (string, error) {
	tag := n.SelectAttr("tag")
	if validTag(tag) {
		return tag, nil
	}
	msg := fmt.Sprintf("%s has tag %q", n.Data, tag)
	if r.opts.Strict {
		return "", errors.NewParse(format, 0, msg)
	}
	r.emit(marc.DiagMalformedTag, tag, 0, msg+"; field dropped")
	return "", nil
}

func (r *Reader) controlField(n *xmlquery.Node) (marc.Field, error) {
	tag, err := r.tag(n)
	if tag == "" {
		return nil, err
	}
	return marc.NewControlField(tag, r.opts.Normalize.Apply(n.InnerText())), nil
}

func (r *Reader) dataField(n *xmlquery.Node) (marc.Field, error) {
	tag, err := r.tag(n)
	if tag == "" {
		return nil, err
	}
	ind1, err := r.indicator(n, tag, "ind1")
	if err != nil {
		return nil, err
	}
	ind2, err := r.indicator(n, tag, "ind2")
	if err != nil {
		return nil, err
	}
	f := marc.NewDataField(tag, ind1, ind2)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode || c.Data != "subfield" {
			continue
		}
		code, ok, err := r.code(c, tag)
		if err != nil {
			return nil, err
		}
		if ok {
			f.Subfields = append(f.Subfields, marc.Subfield{Code: code, Value: r.opts.Normalize.Apply(c.InnerText())})
		}
	}
	return f, nil
}

func (r *Reader) indicator(n *xmlquery.Node, tag, name string) (byte, error) {
	present := false
	for _, a := range n.Attr {
		if a.Name.Local == name {
			present = true
			break
		}
	}
	v := n.SelectAttr(name)
	if b, ok := singleByte(v); ok {
		return b, nil
	}
	switch {
	case r.opts.Strict && !present:
		return 0, errors.NewParse(format, 0, fmt.Sprintf("datafield %s has no %s", tag, name))
	case r.opts.Strict:
		return 0, errors.NewParse(format, 0, fmt.Sprintf("datafield %s %s is %q", tag, name, v))
	case !present || v == "":
		r.emit(marc.DiagMissingAttribute, tag, 0, name+" missing; using a space")
		return ' ', nil
	default:
		r.emit(marc.DiagInvalidIndicator, tag, 0, fmt.Sprintf("%s is %q; first byte kept", name, v))
		return v[0], nil
	}
}

// code returns the subfield code and whether the subfield is kept.
func (r *Reader) code(n *xmlquery.Node, tag string) (byte, bool, error) {
	v := n.SelectAttr("code")
	if b, ok := singleByte(v); ok {
		return b, true, nil
	}
	msg := fmt.Sprintf("subfield code %q in %s", v, tag)
	if r.opts.Strict {
		return 0, false, errors.NewParse(format, 0, msg)
	}
	if v == "" {
		r.emit(marc.DiagMissingAttribute, tag, 0, msg+"; subfield dropped")
		return 0, false, nil
	}
	r.emit(marc.DiagMissingAttribute, tag, v[0], msg+"; first byte kept")
	return v[0], true, nil
}

// ParseToArray reads every record of a document. Records that fail on
// their own are skipped and their errors joined into the returned error; a
// malformed document stops reading and is returned along with the records
// read before it.
func ParseToArray(r io.Reader, opts *Options) ([]*marc.Record, error) {
	reader, err := NewReader(r, opts)
	if err != nil {
		return nil, err
	}
	var recs []*marc.Record
	var errs []error
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err)
			if errors.IsUnrecoverable(err) {
				break
			}
			continue
		}
		recs = append(recs, rec)
	}
	return recs, errors.Join(errs...)
}
