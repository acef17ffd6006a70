package marc8

import "sync"

// Final bytes of the character sets this package knows about.
const (
	FinalBasicLatin       byte = 'B'
	FinalANSEL            byte = 'E'
	FinalGreekSymbols     byte = 'g'
	FinalSubscripts       byte = 'b'
	FinalSuperscripts     byte = 'p'
	FinalBasicCyrillic    byte = 'N'
	FinalExtendedCyrillic byte = 'Q'
	FinalBasicGreek       byte = 'S'
	FinalBasicHebrew      byte = '2'
	FinalBasicArabic      byte = '3'
	FinalExtendedArabic   byte = '4'
	FinalEACC             byte = '1'
)

// Encoder preference when a code point exists in several sets and neither
// register already holds one of them.
var priority = []byte{
	FinalBasicLatin,
	FinalANSEL,
	FinalGreekSymbols,
	FinalSubscripts,
	FinalSuperscripts,
	FinalBasicCyrillic,
	FinalExtendedCyrillic,
	FinalBasicGreek,
	FinalBasicHebrew,
	FinalBasicArabic,
	FinalExtendedArabic,
	FinalEACC,
}

// Charset is one graphic character set. Single byte sets are keyed by the
// 7-bit position (0x21-0x7E) regardless of the register they are invoked
// into; multibyte sets are keyed by the three byte code.
type Charset struct {
	Final     byte
	Name      string
	Multibyte bool

	chars     map[uint32]rune
	combining map[uint32]bool
}

func newCharset(final byte, name string, multibyte bool) *Charset {
	return &Charset{
		Final:     final,
		Name:      name,
		Multibyte: multibyte,
		chars:     make(map[uint32]rune),
		combining: make(map[uint32]bool),
	}
}

func (c *Charset) set(code uint32, r rune, combining bool) {
	c.chars[code] = r
	if combining {
		c.combining[code] = true
	}
}

// Lookup resolves a code to a code point. combining reports whether the
// character is a non-spacing mark written before its base.
func (c *Charset) Lookup(code uint32) (r rune, combining, ok bool) {
	r, ok = c.chars[code]
	return r, c.combining[code], ok
}

// Len returns the number of mapped codes.
func (c *Charset) Len() int { return len(c.chars) }

// placement is where a code point lives in MARC-8.
type placement struct {
	final     byte
	code      uint32
	multibyte bool
	combining bool
}

// Tables is an immutable set of character sets plus the reverse index used
// by the encoder. It is safe for concurrent use.
type Tables struct {
	sets    map[byte]*Charset
	reverse map[rune][]placement
}

// Charset returns the set designated by final, or nil.
func (t *Tables) Charset(final byte) *Charset {
	return t.sets[final]
}

// Extend returns a new Tables holding t's sets with the given sets merged
// over them; codes present in both take the new mapping.
func (t *Tables) Extend(sets ...*Charset) *Tables {
	merged := make(map[byte]*Charset, len(t.sets)+len(sets))
	for f, cs := range t.sets {
		merged[f] = cs
	}
	for _, cs := range sets {
		base, ok := merged[cs.Final]
		if !ok {
			merged[cs.Final] = cs
			continue
		}
		c := newCharset(base.Final, base.Name, base.Multibyte || cs.Multibyte)
		for code, r := range base.chars {
			c.set(code, r, base.combining[code])
		}
		for code, r := range cs.chars {
			delete(c.combining, code)
			c.set(code, r, cs.combining[code])
		}
		merged[cs.Final] = c
	}
	return buildTables(merged)
}

func buildTables(sets map[byte]*Charset) *Tables {
	t := &Tables{sets: sets, reverse: make(map[rune][]placement)}
	seen := make(map[byte]bool, len(sets))
	order := make([]byte, 0, len(sets))
	for _, f := range priority {
		if _, ok := sets[f]; ok {
			order = append(order, f)
			seen[f] = true
		}
	}
	for f := range sets {
		if !seen[f] {
			order = append(order, f)
		}
	}
	for _, f := range order {
		cs := sets[f]
		for code, r := range cs.chars {
			t.reverse[r] = append(t.reverse[r], placement{
				final:     f,
				code:      code,
				multibyte: cs.Multibyte,
				combining: cs.combining[code],
			})
		}
	}
	return t
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// DefaultTables returns the built-in tables: Basic Latin, ANSEL, Greek
// symbols, subscripts, superscripts, Basic Cyrillic, Basic Hebrew letters,
// Basic Arabic letters and a small EACC seed.
func DefaultTables() *Tables {
	defaultOnce.Do(func() {
		defaultTables = buildTables(map[byte]*Charset{
			FinalBasicLatin:    basicLatin(),
			FinalANSEL:         ansel(),
			FinalGreekSymbols:  greekSymbols(),
			FinalSubscripts:    subscripts(),
			FinalSuperscripts:  superscripts(),
			FinalBasicCyrillic: basicCyrillic(),
			FinalBasicHebrew:   basicHebrew(),
			FinalBasicArabic:   basicArabic(),
			FinalEACC:          eaccSeed(),
		})
	})
	return defaultTables
}

func asciiRange(cs *Charset, from, to uint32) {
	for c := from; c <= to; c++ {
		cs.set(c, rune(c), false)
	}
}

func basicLatin() *Charset {
	cs := newCharset(FinalBasicLatin, "Basic Latin (ASCII)", false)
	asciiRange(cs, 0x21, 0x7E)
	return cs
}

func ansel() *Charset {
	cs := newCharset(FinalANSEL, "Extended Latin (ANSEL)", false)
	spacing := map[uint32]rune{
		0x21: 0x0141, 0x22: 0x00D8, 0x23: 0x0110, 0x24: 0x00DE, 0x25: 0x00C6,
		0x26: 0x0152, 0x27: 0x02B9, 0x28: 0x00B7, 0x29: 0x266D, 0x2A: 0x00AE,
		0x2B: 0x00B1, 0x2C: 0x01A0, 0x2D: 0x01AF, 0x2E: 0x02BC,
		0x30: 0x02BB, 0x31: 0x0142, 0x32: 0x00F8, 0x33: 0x0111, 0x34: 0x00FE,
		0x35: 0x00E6, 0x36: 0x0153, 0x37: 0x02BA, 0x38: 0x0131, 0x39: 0x00A3,
		0x3A: 0x00F0, 0x3C: 0x01A1, 0x3D: 0x01B0,
		0x40: 0x00B0, 0x41: 0x2113, 0x42: 0x2117, 0x43: 0x00A9, 0x44: 0x266F,
		0x45: 0x00BF, 0x46: 0x00A1, 0x47: 0x00DF, 0x48: 0x20AC,
	}
	for code, r := range spacing {
		cs.set(code, r, false)
	}
	marks := map[uint32]rune{
		0x60: 0x0309, 0x61: 0x0300, 0x62: 0x0301, 0x63: 0x0302, 0x64: 0x0303,
		0x65: 0x0304, 0x66: 0x0306, 0x67: 0x0307, 0x68: 0x0308, 0x69: 0x030C,
		0x6A: 0x030A, 0x6B: 0xFE20, 0x6C: 0xFE21, 0x6D: 0x0315, 0x6E: 0x030B,
		0x6F: 0x0310, 0x70: 0x0327, 0x71: 0x0328, 0x72: 0x0323, 0x73: 0x0324,
		0x74: 0x0325, 0x75: 0x0333, 0x76: 0x0332, 0x77: 0x0326, 0x78: 0x031C,
		0x79: 0x032E, 0x7A: 0xFE22, 0x7B: 0xFE23, 0x7E: 0x0313,
	}
	for code, r := range marks {
		cs.set(code, r, true)
	}
	return cs
}

func greekSymbols() *Charset {
	cs := newCharset(FinalGreekSymbols, "Greek Symbols", false)
	cs.set(0x61, 0x03B1, false)
	cs.set(0x62, 0x03B2, false)
	cs.set(0x63, 0x03B3, false)
	return cs
}

func subscripts() *Charset {
	cs := newCharset(FinalSubscripts, "Subscripts", false)
	for d := uint32(0); d <= 9; d++ {
		cs.set(0x30+d, rune(0x2080+d), false)
	}
	cs.set(0x28, 0x208D, false)
	cs.set(0x29, 0x208E, false)
	cs.set(0x2B, 0x208A, false)
	cs.set(0x2D, 0x208B, false)
	return cs
}

func superscripts() *Charset {
	cs := newCharset(FinalSuperscripts, "Superscripts", false)
	cs.set(0x30, 0x2070, false)
	cs.set(0x31, 0x00B9, false)
	cs.set(0x32, 0x00B2, false)
	cs.set(0x33, 0x00B3, false)
	for d := uint32(4); d <= 9; d++ {
		cs.set(0x30+d, rune(0x2070+d), false)
	}
	cs.set(0x28, 0x207D, false)
	cs.set(0x29, 0x207E, false)
	cs.set(0x2B, 0x207A, false)
	cs.set(0x2D, 0x207B, false)
	return cs
}

// KOI-7 ordering: 0x40-0x5F lower case, 0x60-0x7E upper case.
var cyrillicLower = []rune("юабцдефгхийклмнопярстужвьызшэщчъ")

func basicCyrillic() *Charset {
	cs := newCharset(FinalBasicCyrillic, "Basic Cyrillic", false)
	asciiRange(cs, 0x21, 0x3F)
	for i, r := range cyrillicLower {
		cs.set(0x40+uint32(i), r, false)
		if 0x60+uint32(i) <= 0x7E {
			cs.set(0x60+uint32(i), r-0x20, false)
		}
	}
	return cs
}

func basicHebrew() *Charset {
	cs := newCharset(FinalBasicHebrew, "Basic Hebrew", false)
	asciiRange(cs, 0x21, 0x3F)
	for c := uint32(0x60); c <= 0x7A; c++ {
		cs.set(c, rune(0x05D0+c-0x60), false)
	}
	return cs
}

func basicArabic() *Charset {
	cs := newCharset(FinalBasicArabic, "Basic Arabic", false)
	asciiRange(cs, 0x21, 0x2B)
	asciiRange(cs, 0x2D, 0x2F)
	asciiRange(cs, 0x3A, 0x3A)
	asciiRange(cs, 0x3C, 0x3E)
	cs.set(0x2C, 0x060C, false)
	cs.set(0x3B, 0x061B, false)
	cs.set(0x3F, 0x061F, false)
	for d := uint32(0); d <= 9; d++ {
		cs.set(0x30+d, rune(0x0660+d), false)
	}
	for c := uint32(0x41); c <= 0x5A; c++ {
		cs.set(c, rune(0x0621+c-0x41), false)
	}
	for c := uint32(0x60); c <= 0x72; c++ {
		cs.set(c, rune(0x0640+c-0x60), c >= 0x6B)
	}
	return cs
}

// The full EACC repertoire comes from LoadCodeTables.
func eaccSeed() *Charset {
	cs := newCharset(FinalEACC, "East Asian Character Code (EACC)", true)
	seed := map[uint32]rune{
		0x213021: 0x4E00,
	}
	for code, r := range seed {
		cs.set(code, r, false)
	}
	return cs
}
