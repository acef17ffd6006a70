package marc8

import (
	"fmt"
	"unicode"

	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"golang.org/x/text/unicode/norm"
)

var specialBytes = map[rune]byte{
	0x0098: 0x88,
	0x009C: 0x89,
	0x200D: 0x8D,
	0x200C: 0x8E,
}

// Encoder converts Unicode text to MARC-8. Like Decoder it carries register
// state across the subfields of one field; Finish returns the registers to
// their defaults at the end of the field.
type Encoder struct {
	tables *Tables
	diag   marc.DiagnosticHandler

	tag    string
	code   byte
	g0, g1 byte
	buf    []byte
}

// NewEncoder returns an Encoder with registers at their defaults.
func NewEncoder(opts *Options) *Encoder {
	e := &Encoder{
		tables: opts.tables(),
		diag:   opts.handler(),
	}
	e.Reset("")
	return e
}

// Reset sets the registers to G0 ASCII and G1 ANSEL without writing
// anything, and records tag for diagnostics.
func (e *Encoder) Reset(tag string) {
	e.tag = tag
	e.code = 0
	e.g0 = FinalBasicLatin
	e.g1 = FinalANSEL
	e.buf = e.buf[:0]
}

// Encode converts s, emitting escapes only when a register must change.
func (e *Encoder) Encode(s string) []byte {
	return e.EncodeSubfield(0, s)
}

// EncodeSubfield is Encode with the subfield code recorded in diagnostics.
func (e *Encoder) EncodeSubfield(code byte, s string) []byte {
	e.code = code
	e.buf = e.buf[:0]
	e.encodeRunes([]rune(s))
	return append([]byte(nil), e.buf...)
}

// Finish returns the escapes needed to restore the default registers.
func (e *Encoder) Finish() []byte {
	e.buf = e.buf[:0]
	e.restore()
	return append([]byte(nil), e.buf...)
}

func (e *Encoder) restore() {
	if e.g0 != FinalBasicLatin {
		e.designateASCII()
	}
	if e.g1 != FinalANSEL {
		e.buf = append(e.buf, escapeFor(FinalANSEL, false)...)
		e.g1 = FinalANSEL
	}
}

func (e *Encoder) encodeRunes(runes []rune) {
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && isMark(runes[j]) {
			j++
		}
		e.cluster(runes[i], runes[i+1:j])
		i = j
	}
}

// cluster writes one base character and the marks that follow it in
// Unicode order. MARC-8 puts the marks first. Marks from the first one with
// no mapping onwards, and every mark on a base with no mapping, are written
// as character references after the base so the decoded order is unchanged.
// Marks with no base before them are always character references: written
// as MARC-8 they would attach to the next base on decode.
func (e *Encoder) cluster(base rune, marks []rune) {
	if isMark(base) {
		e.writeNCR(base)
		e.writeNCRs(marks)
		return
	}
	if !e.representable(base) && base > 0x7F {
		if d := []rune(norm.NFD.String(string(base))); len(d) > 1 && e.representable(d[0]) {
			base = d[0]
			marks = append(d[1:len(d):len(d)], marks...)
		}
	}
	if !e.representable(base) {
		e.writeNCR(base)
		e.writeNCRs(marks)
		return
	}
	n := e.mappedPrefix(marks)
	e.writeMarks(marks[:n])
	e.writeRune(base)
	e.writeNCRs(marks[n:])
}

func (e *Encoder) mappedPrefix(marks []rune) int {
	for i, m := range marks {
		if _, ok := e.lookup(m); !ok {
			return i
		}
	}
	return len(marks)
}

func (e *Encoder) writeMarks(marks []rune) {
	for _, m := range marks {
		p, _ := e.lookup(m)
		e.writePlacement(p)
	}
}

func (e *Encoder) writeNCRs(rs []rune) {
	for _, r := range rs {
		e.writeNCR(r)
	}
}

func (e *Encoder) representable(r rune) bool {
	if isControl(r) {
		return true
	}
	if _, ok := specialBytes[r]; ok {
		return true
	}
	_, ok := e.lookup(r)
	return ok
}

func isControl(r rune) bool {
	return r == ' ' || r == 0x7F || (r < 0x20 && r != ESC)
}

func (e *Encoder) writeRune(r rune) {
	if isControl(r) {
		e.buf = append(e.buf, byte(r))
		return
	}
	if b, ok := specialBytes[r]; ok {
		e.buf = append(e.buf, b)
		return
	}
	if p, ok := e.lookup(r); ok {
		e.writePlacement(p)
		return
	}
	e.writeNCR(r)
}

func (e *Encoder) writeNCR(r rune) {
	e.diag.Emit(marc.Diagnostic{
		Kind:    marc.DiagUnrepresentable,
		Tag:     e.tag,
		Code:    e.code,
		Offset:  -1,
		Message: fmt.Sprintf("U+%04X written as a character reference", r),
	})
	if e.g0 != FinalBasicLatin {
		e.designateASCII()
	}
	e.buf = append(e.buf, ncr(r)...)
}

// lookup picks the placement for r, preferring the sets already designated.
func (e *Encoder) lookup(r rune) (placement, bool) {
	ps := e.tables.reverse[r]
	if len(ps) == 0 {
		return placement{}, false
	}
	for _, p := range ps {
		if p.final == e.g0 || (p.final == e.g1 && !p.multibyte) {
			return p, true
		}
	}
	return ps[0], true
}

func (e *Encoder) writePlacement(p placement) {
	switch {
	case p.final == e.g0:
	case p.final == e.g1 && !p.multibyte:
		e.buf = append(e.buf, byte(p.code)|0x80)
		return
	case p.final == FinalANSEL:
		e.buf = append(e.buf, escapeFor(FinalANSEL, false)...)
		e.g1 = FinalANSEL
		e.buf = append(e.buf, byte(p.code)|0x80)
		return
	case p.final == FinalBasicLatin:
		e.designateASCII()
	default:
		e.buf = append(e.buf, escapeFor(p.final, p.multibyte)...)
		e.g0 = p.final
	}
	if p.multibyte {
		e.buf = append(e.buf, byte(p.code>>16), byte(p.code>>8), byte(p.code))
		return
	}
	e.buf = append(e.buf, byte(p.code))
}

func (e *Encoder) designateASCII() {
	switch e.g0 {
	case FinalGreekSymbols, FinalSubscripts, FinalSuperscripts:
		e.buf = append(e.buf, ESC, 's')
	default:
		e.buf = append(e.buf, escapeFor(FinalBasicLatin, false)...)
	}
	e.g0 = FinalBasicLatin
}

func isMark(r rune) bool {
	return unicode.In(r, unicode.Mn, unicode.Me)
}

// FromUnicode encodes s as one complete field: default registers in, default
// registers out.
func FromUnicode(s string, opts *Options) []byte {
	e := NewEncoder(opts)
	out := e.Encode(s)
	return append(out, e.Finish()...)
}
