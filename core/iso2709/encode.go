package iso2709

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/FocuswithJustin/JuniperMARC/core/marc8"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Encode serializes rec. The returned leader carries the computed record
// length and base address plus the fixed structural positions; rec itself is
// not modified. Records whose leader position 9 is 'a' are written as UTF-8,
// everything else as MARC-8, or with Options.Charset when it is set.
// Indicators are written as stored. Values containing a field or record
// terminator or a subfield delimiter are rejected.
func Encode(rec *marc.Record, opts *Options) ([]byte, error) {
	return newEncoder(opts).encode(rec)
}

type encoder struct {
	m8          *marc8.Encoder
	charset     *encoding.Encoder
	charsetName string
}

func newEncoder(opts *Options) *encoder {
	e := &encoder{m8: marc8.NewEncoder(opts.marc8Options(opts.handler()))}
	if opts != nil && opts.Charset != nil {
		e.charset = opts.Charset.NewEncoder()
		e.charsetName = fmt.Sprint(opts.Charset)
	}
	return e
}

func (e *encoder) encode(rec *marc.Record) ([]byte, error) {
	unicode := rec.Leader.IsUnicode()
	var dir, data bytes.Buffer
	for _, f := range rec.Fields {
		tag := f.Tag()
		if len(tag) != 3 {
			return nil, errors.NewFieldTooLarge(tag, len(tag), 0, "tag must be exactly 3 bytes")
		}
		start := data.Len()
		e.m8.Reset(tag)
		switch v := f.(type) {
		case *marc.ControlField:
			b, err := e.text(tag, 0, v.Data, unicode)
			if err != nil {
				return nil, err
			}
			data.Write(b)
		case *marc.DataField:
			for _, ind := range v.Indicators() {
				if isStructural(ind) {
					return nil, errors.NewValidation(tag, fmt.Sprintf("indicator 0x%02x is a structural byte", ind))
				}
			}
			data.WriteByte(v.Indicator1)
			data.WriteByte(v.Indicator2)
			for _, sf := range v.Subfields {
				if isStructural(sf.Code) {
					return nil, errors.NewValidation(tag, fmt.Sprintf("subfield code 0x%02x is a structural byte", sf.Code))
				}
				b, err := e.text(tag, sf.Code, sf.Value, unicode)
				if err != nil {
					return nil, err
				}
				data.WriteByte(SubfieldDelimiter)
				data.WriteByte(sf.Code)
				data.Write(b)
			}
		}
		if !unicode && e.charset == nil {
			data.Write(e.m8.Finish())
		}
		data.WriteByte(FieldTerminator)

		length := data.Len() - start
		if length > MaxFieldLength {
			return nil, errors.NewFieldTooLarge(tag, length, MaxFieldLength, "field length exceeds the directory width")
		}
		if start > MaxFieldStart {
			return nil, errors.NewFieldTooLarge(tag, start, MaxFieldStart, "field start exceeds the directory width")
		}
		fmt.Fprintf(&dir, "%s%04d%05d", tag, length, start)
	}
	dir.WriteByte(FieldTerminator)

	base := marc.LeaderLength + dir.Len()
	total := base + data.Len() + 1
	if total > MaxRecordSize {
		return nil, errors.NewFieldTooLarge("LDR", total, MaxRecordSize, "record length exceeds the leader width")
	}

	leader := rec.Leader
	leader.SetRecordLength(total)
	leader.SetBaseAddress(base)
	leader.SetStructure()

	out := make([]byte, 0, total)
	out = append(out, leader[:]...)
	out = append(out, dir.Bytes()...)
	out = append(out, data.Bytes()...)
	out = append(out, RecordTerminator)
	return out, nil
}

func (e *encoder) text(tag string, code byte, s string, unicode bool) ([]byte, error) {
	if i := strings.IndexFunc(s, isStructuralRune); i >= 0 {
		where := tag
		if code != 0 {
			where = fmt.Sprintf("%s $%c", tag, code)
		}
		return nil, errors.NewValidation(where, fmt.Sprintf("value has structural byte 0x%02x at offset %d", s[i], i))
	}
	switch {
	case unicode:
		return []byte(s), nil
	case e.charset != nil:
		out, n, err := transform.String(e.charset, s)
		if err != nil {
			return nil, &errors.EncodingError{Tag: tag, Encoding: e.charsetName, Offset: n}
		}
		return []byte(out), nil
	}
	return e.m8.EncodeSubfield(code, s), nil
}

// isStructural reports the bytes that delimit subfields, fields and records.
func isStructural(b byte) bool {
	return b == SubfieldDelimiter || b == FieldTerminator || b == RecordTerminator
}

func isStructuralRune(r rune) bool {
	return r < 0x80 && isStructural(byte(r))
}
