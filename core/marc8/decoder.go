package marc8

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/JuniperMARC/core/marc"
)

// Replacement is emitted for bytes that no loaded table maps.
const Replacement = '\uFFFD'

// Bytes outside both graphic ranges that still have a meaning.
var specials = map[byte]rune{
	0x88: 0x0098, // non-sort begin
	0x89: 0x009C, // non-sort end
	0x8D: 0x200D, // joiner
	0x8E: 0x200C, // non-joiner
}

type register struct {
	final     byte
	set       *Charset
	multibyte bool
}

// Decoder converts MARC-8 bytes to Unicode. It holds the G0 and G1
// registers for one field: call Reset at each field start and then Decode
// once per subfield. A Decoder is not safe for concurrent use.
type Decoder struct {
	tables *Tables
	diag   marc.DiagnosticHandler
	form   Form

	tag     string
	code    byte
	g0, g1  register
	pending []rune
	out     strings.Builder
}

// NewDecoder returns a Decoder with registers at their defaults.
func NewDecoder(opts *Options) *Decoder {
	d := &Decoder{
		tables: opts.tables(),
		diag:   opts.handler(),
		form:   opts.form(),
	}
	d.Reset("")
	return d
}

// Reset returns the registers to G0 ASCII and G1 ANSEL and records tag for
// diagnostics.
func (d *Decoder) Reset(tag string) {
	d.tag = tag
	d.code = 0
	d.g0 = d.registerFor(FinalBasicLatin, false)
	d.g1 = d.registerFor(FinalANSEL, false)
	d.pending = d.pending[:0]
	d.out.Reset()
}

// Registers reports the final bytes currently designated into G0 and G1.
func (d *Decoder) Registers() (g0, g1 byte) {
	return d.g0.final, d.g1.final
}

// Decode converts one chunk of field data. Register state carries over to
// the next call; combining marks still pending at the end of b are flushed
// with a dangling-combining diagnostic.
func (d *Decoder) Decode(b []byte) string {
	return d.DecodeSubfield(0, b)
}

// DecodeSubfield is Decode with the subfield code recorded in diagnostics.
func (d *Decoder) DecodeSubfield(code byte, b []byte) string {
	d.code = code
	for i := 0; i < len(b); {
		n, _ := d.step(b[i:], i, true)
		i += n
	}
	d.flush(len(b))
	s := unescapeNCR(d.take())
	return d.form.Apply(s)
}

// step decodes the unit at the start of b. It reports short when b ends in
// the middle of an escape or multibyte character and more input may follow.
func (d *Decoder) step(b []byte, off int, atEOF bool) (n int, short bool) {
	c := b[0]
	switch {
	case c == ESC:
		des, ok := parseEscape(b)
		if !ok {
			if !atEOF && len(b) < 4 {
				return 0, true
			}
			d.emit(marc.DiagMalformedEscape, off, c, "escape sequence not recognised")
			return 1, false
		}
		d.designate(des, off)
		return des.length, false
	case c == ' ':
		d.base(' ')
	case c < 0x20 || c == 0x7F:
		d.base(rune(c))
	case c >= 0x21 && c <= 0x7E:
		return d.graphic(&d.g0, b, off, atEOF)
	case c >= 0xA1 && c <= 0xFE:
		return d.graphic(&d.g1, b, off, atEOF)
	default:
		if r, ok := specials[c]; ok {
			d.base(r)
		} else {
			d.unmapped(off, c, 0)
		}
	}
	return 1, false
}

func (d *Decoder) graphic(reg *register, b []byte, off int, atEOF bool) (int, bool) {
	width := 1
	if reg.multibyte {
		width = 3
	}
	if len(b) < width {
		if !atEOF {
			return 0, true
		}
		d.unmapped(off, b[0], reg.final)
		return len(b), false
	}
	var key uint32
	for _, c := range b[:width] {
		key = key<<8 | uint32(c&0x7F)
	}
	if reg.set == nil {
		d.unmapped(off, b[0], reg.final)
		return width, false
	}
	r, combining, ok := reg.set.Lookup(key)
	switch {
	case !ok:
		d.unmapped(off, b[0], reg.final)
	case combining:
		d.pending = append(d.pending, r)
	default:
		d.base(r)
	}
	return width, false
}

func (d *Decoder) designate(des designation, off int) {
	reg := d.registerFor(des.final, des.multibyte)
	if reg.set == nil {
		d.emit(marc.DiagUnknownCharset, off, des.final, fmt.Sprintf("unknown character set final %q", des.final))
	}
	if des.register == G0 {
		d.g0 = reg
	} else {
		d.g1 = reg
	}
}

func (d *Decoder) registerFor(final byte, multibyte bool) register {
	cs := d.tables.Charset(final)
	if cs != nil && cs.Multibyte {
		multibyte = true
	}
	return register{final: final, set: cs, multibyte: multibyte}
}

// base writes r followed by the marks that preceded it.
func (d *Decoder) base(r rune) {
	d.out.WriteRune(r)
	for _, m := range d.pending {
		d.out.WriteRune(m)
	}
	d.pending = d.pending[:0]
}

func (d *Decoder) unmapped(off int, c, final byte) {
	msg := fmt.Sprintf("no mapping for byte 0x%02X", c)
	if final != 0 {
		msg += fmt.Sprintf(" in character set %q", final)
	}
	d.emit(marc.DiagUnmappedCharacter, off, c, msg)
	d.base(Replacement)
}

func (d *Decoder) flush(off int) {
	if len(d.pending) == 0 {
		return
	}
	d.emit(marc.DiagDanglingCombining, off, 0, fmt.Sprintf("%d combining mark(s) with no base character", len(d.pending)))
	for _, m := range d.pending {
		d.out.WriteRune(m)
	}
	d.pending = d.pending[:0]
}

func (d *Decoder) take() string {
	s := d.out.String()
	d.out.Reset()
	return s
}

func (d *Decoder) emit(kind marc.DiagnosticKind, off int, c byte, msg string) {
	d.diag.Emit(marc.Diagnostic{
		Kind:    kind,
		Tag:     d.tag,
		Code:    d.code,
		Offset:  off,
		Byte:    c,
		Message: msg,
	})
}

// ToUnicode decodes a complete MARC-8 string with fresh registers.
func ToUnicode(b []byte, opts *Options) string {
	return NewDecoder(opts).Decode(b)
}
