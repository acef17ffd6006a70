package iso2709

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/FocuswithJustin/JuniperMARC/core/marc8"
)

// Decode parses one complete binary record. Structural problems the record
// can be recovered from are reported as diagnostics; the rest are returned
// as typed errors from core/errors.
func Decode(data []byte, opts *Options) (*marc.Record, error) {
	return newDecoder(opts).decode(data)
}

// decoder holds the per-source state reused across records: the resolved
// diagnostic handler and one MARC-8 decoder.
type decoder struct {
	opts Options
	diag marc.DiagnosticHandler
	m8   *marc8.Decoder
}

func newDecoder(opts *Options) *decoder {
	h := opts.handler()
	return &decoder{
		opts: opts.get(),
		diag: h,
		m8:   marc8.NewDecoder(opts.marc8Options(h)),
	}
}

func (d *decoder) emit(kind marc.DiagnosticKind, tag string, off int, b byte, msg string) {
	d.diag.Emit(marc.Diagnostic{Kind: kind, Tag: tag, Offset: off, Byte: b, Message: msg})
}

func (d *decoder) decode(data []byte) (*marc.Record, error) {
	if len(data) < marc.LeaderLength {
		return nil, errors.NewMalformedLeader(string(data), fmt.Sprintf("record is %d bytes, shorter than the leader", len(data)))
	}
	var leader marc.Leader
	copy(leader[:], data[:marc.LeaderLength])

	total, err := leader.RecordLength()
	if err != nil {
		return nil, errors.NewMalformedLeader(leader.String(), err.Error())
	}
	base, err := leader.BaseAddress()
	if err != nil {
		return nil, errors.NewMalformedLeader(leader.String(), err.Error())
	}
	if base < marc.LeaderLength+1 || base > len(data) {
		return nil, errors.NewMalformedLeader(leader.String(),
			fmt.Sprintf("base address %d outside [%d, %d]", base, marc.LeaderLength+1, len(data)))
	}
	if total != len(data) {
		d.emit(marc.DiagLengthMismatch, "", 0, 0, fmt.Sprintf("leader declares %d bytes, record has %d", total, len(data)))
	}
	if data[len(data)-1] != RecordTerminator {
		d.emit(marc.DiagLengthMismatch, "", len(data)-1, data[len(data)-1], "record does not end with a record terminator")
	}

	dirEnd := bytes.IndexByte(data[marc.LeaderLength:], FieldTerminator)
	if dirEnd < 0 {
		return nil, errors.NewMalformedDirectory(-1, "", "no field terminator after the directory")
	}
	dirEnd += marc.LeaderLength
	entries, err := ParseDirectory(data[marc.LeaderLength:dirEnd])
	if err != nil {
		return nil, err
	}
	dataStart := dirEnd + 1
	if dataStart != base {
		d.emit(marc.DiagBaseAddress, "", dirEnd, 0,
			fmt.Sprintf("leader base address %d, directory ends at %d", base, dataStart))
	}

	rec := &marc.Record{Leader: leader, Fields: make([]marc.Field, 0, len(entries))}
	unicode := d.opts.ForceUTF8 || leader.IsUnicode()
	for _, e := range entries {
		body, err := d.span(data, dataStart, e)
		if err != nil {
			return nil, err
		}
		f, err := d.field(e.Tag, body, dataStart+e.Start, unicode)
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, f)
	}
	return rec, nil
}

// span returns the field bytes without the terminator. A span that does not
// end on a field terminator is re-cut at the first terminator after its
// start.
func (d *decoder) span(data []byte, dataStart int, e DirectoryEntry) ([]byte, error) {
	start := dataStart + e.Start
	end := start + e.Length
	if start >= len(data) {
		return nil, &errors.FieldBoundaryError{Tag: e.Tag, Start: start, Length: e.Length, Reason: "field starts past the end of the record"}
	}
	if e.Length > 0 && end <= len(data) && data[end-1] == FieldTerminator {
		return data[start : end-1], nil
	}
	i := bytes.IndexByte(data[start:], FieldTerminator)
	if i < 0 {
		return nil, &errors.FieldBoundaryError{Tag: e.Tag, Start: start, Length: e.Length, Reason: "no field terminator inside the record"}
	}
	d.emit(marc.DiagFieldBoundary, e.Tag, start, 0,
		fmt.Sprintf("declared length %d, terminator found after %d bytes", e.Length, i+1))
	return data[start : start+i], nil
}

func (d *decoder) field(tag string, body []byte, off int, unicode bool) (marc.Field, error) {
	d.m8.Reset(tag)
	if marc.IsControlTag(tag) {
		s, err := d.text(tag, 0, body, off, unicode)
		if err != nil {
			return nil, err
		}
		return marc.NewControlField(tag, s), nil
	}

	k := bytes.IndexByte(body, SubfieldDelimiter)
	if k < 0 {
		k = len(body)
	}
	ind1, ind2 := d.indicators(tag, body[:k], off)
	f := marc.NewDataField(tag, ind1, ind2)
	f.Indicator1, f.Indicator2 = ind1, ind2 // raw bytes, NUL included

	// pos tracks the delimiter in front of each chunk.
	pos := off + k
	for i, chunk := range bytes.Split(body[k:], []byte{SubfieldDelimiter}) {
		if i == 0 {
			continue
		}
		if len(chunk) > 0 {
			s, err := d.text(tag, chunk[0], chunk[1:], pos+2, unicode)
			if err != nil {
				return nil, err
			}
			f.Subfields = append(f.Subfields, marc.Subfield{Code: chunk[0], Value: s})
		}
		pos += len(chunk) + 1
	}
	return f, nil
}

// indicators applies the lenient indicator rules: short areas are padded
// with spaces, long ones truncated to two bytes, unusual bytes kept.
func (d *decoder) indicators(tag string, area []byte, off int) (byte, byte) {
	ind := [2]byte{' ', ' '}
	switch {
	case len(area) < 2:
		d.emit(marc.DiagIndicatorCount, tag, off, 0, fmt.Sprintf("%d indicator byte(s), padded with spaces", len(area)))
	case len(area) > 2:
		d.emit(marc.DiagIndicatorCount, tag, off, 0, fmt.Sprintf("%d indicator bytes, first two kept", len(area)))
	}
	copy(ind[:], area)
	for i, b := range ind {
		if !validIndicator(b) {
			d.emit(marc.DiagInvalidIndicator, tag, off+i, b, fmt.Sprintf("indicator %d is %q", i+1, b))
		}
	}
	return ind[0], ind[1]
}

func validIndicator(b byte) bool {
	return b == ' ' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z')
}

func (d *decoder) text(tag string, code byte, b []byte, off int, unicode bool) (string, error) {
	switch {
	case unicode:
		return d.utf8Text(tag, code, b, off)
	case d.opts.Charset != nil:
		out, err := d.opts.Charset.NewDecoder().Bytes(b)
		if err != nil {
			return "", &errors.EncodingError{Tag: tag, Encoding: fmt.Sprint(d.opts.Charset), Offset: off}
		}
		return d.opts.Normalize.Apply(string(out)), nil
	default:
		return d.m8.DecodeSubfield(code, b), nil
	}
}

func (d *decoder) utf8Text(tag string, code byte, b []byte, off int) (string, error) {
	if utf8.Valid(b) {
		return d.opts.Normalize.Apply(string(b)), nil
	}
	bad := firstInvalid(b)
	if d.opts.UTF8Handling == UTF8Strict {
		return "", &errors.EncodingError{Tag: tag, Encoding: "UTF-8", Offset: off + bad}
	}
	repl, action := "\uFFFD", "replaced"
	if d.opts.UTF8Handling == UTF8Ignore {
		repl, action = "", "dropped"
	}
	d.diag.Emit(marc.Diagnostic{
		Kind:    marc.DiagInvalidUTF8,
		Tag:     tag,
		Code:    code,
		Offset:  off + bad,
		Byte:    b[bad],
		Message: "invalid UTF-8 " + action,
	})
	return d.opts.Normalize.Apply(strings.ToValidUTF8(string(b), repl)), nil
}

func firstInvalid(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return 0
}
