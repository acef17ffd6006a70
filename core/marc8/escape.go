package marc8

// ESC introduces a register change.
const ESC = 0x1B

// Register identifies G0 (0x21-0x7E) or G1 (0xA1-0xFE).
type Register int

const (
	G0 Register = iota
	G1
)

// designation is the effect of one escape sequence.
type designation struct {
	register  Register
	final     byte
	multibyte bool
	length    int
}

// parseEscape decodes the escape sequence at the start of b, which must begin
// with ESC. It reports false when the sequence is truncated or its
// intermediate byte is not recognised.
//
//	ESC ( F, ESC , F        G0
//	ESC ) F, ESC - F        G1
//	ESC $ F, ESC $ , F      G0 multibyte
//	ESC $ ) F, ESC $ - F    G1 multibyte
//	ESC g, ESC b, ESC p     G0 greek symbols, subscripts, superscripts
//	ESC s                   G0 ASCII
func parseEscape(b []byte) (designation, bool) {
	if len(b) < 2 || b[0] != ESC {
		return designation{}, false
	}
	switch b[1] {
	case FinalGreekSymbols, FinalSubscripts, FinalSuperscripts:
		return designation{register: G0, final: b[1], length: 2}, true
	case 's':
		return designation{register: G0, final: FinalBasicLatin, length: 2}, true
	case '(', ',':
		if len(b) < 3 {
			return designation{}, false
		}
		return designation{register: G0, final: b[2], length: 3}, true
	case ')', '-':
		if len(b) < 3 {
			return designation{}, false
		}
		return designation{register: G1, final: b[2], length: 3}, true
	case '$':
		if len(b) < 3 {
			return designation{}, false
		}
		switch b[2] {
		case ',':
			if len(b) < 4 {
				return designation{}, false
			}
			return designation{register: G0, final: b[3], multibyte: true, length: 4}, true
		case ')', '-':
			if len(b) < 4 {
				return designation{}, false
			}
			return designation{register: G1, final: b[3], multibyte: true, length: 4}, true
		default:
			return designation{register: G0, final: b[2], multibyte: true, length: 3}, true
		}
	}
	return designation{}, false
}

// escapeFor returns the sequence the encoder writes to designate final.
func escapeFor(final byte, multibyte bool) []byte {
	switch {
	case final == FinalANSEL:
		return []byte{ESC, ')', final}
	case final == FinalGreekSymbols, final == FinalSubscripts, final == FinalSuperscripts:
		return []byte{ESC, final}
	case multibyte:
		return []byte{ESC, '$', final}
	default:
		return []byte{ESC, '(', final}
	}
}
