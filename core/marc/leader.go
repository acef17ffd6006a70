package marc

import (
	"fmt"
	"strconv"
)

// LeaderLength is the fixed size of a MARC21 leader.
const LeaderLength = 24

// Leader positions used by the codecs.
const (
	posRecordLength    = 0
	posStatus          = 5
	posType            = 6
	posCharacterCoding = 9
	posIndicatorCount  = 10
	posSubfieldLength  = 11
	posBaseAddress     = 12
	posEntryMap        = 20
)

// Character coding scheme values (leader position 9).
const (
	CodingMARC8   byte = ' '
	CodingUnicode byte = 'a'
)

// Leader is the 24 byte record header. It is a value type; two leaders are
// equal when their bytes are equal.
type Leader [LeaderLength]byte

// NewLeader returns the leader of an empty, Unicode, language material record
// with zeroed length and base address.
func NewLeader() Leader {
	var l Leader
	copy(l[:], "00000nam a2200000 a 4500")
	return l
}

// ParseLeader builds a Leader from exactly 24 bytes of text.
func ParseLeader(s string) (Leader, error) {
	var l Leader
	if len(s) != LeaderLength {
		return l, fmt.Errorf("leader must be %d bytes, got %d", LeaderLength, len(s))
	}
	copy(l[:], s)
	return l, nil
}

// LeaderFromString builds a Leader from s, padding with spaces or truncating
// to 24 bytes. It reports whether s had to be adjusted.
func LeaderFromString(s string) (Leader, bool) {
	var l Leader
	for i := range l {
		l[i] = ' '
	}
	copy(l[:], s)
	return l, len(s) != LeaderLength
}

func (l Leader) String() string {
	return string(l[:])
}

// RecordLength returns the declared total record length (positions 0-4).
func (l Leader) RecordLength() (int, error) {
	return l.digits(posRecordLength, 5)
}

// BaseAddress returns the declared base address of data (positions 12-16).
func (l Leader) BaseAddress() (int, error) {
	return l.digits(posBaseAddress, 5)
}

// Status returns the record status code.
func (l Leader) Status() byte { return l[posStatus] }

// Type returns the type of record code.
func (l Leader) Type() byte { return l[posType] }

// CharacterCoding returns the character coding scheme flag.
func (l Leader) CharacterCoding() byte { return l[posCharacterCoding] }

// IsUnicode reports whether the payload is declared as UCS/Unicode.
func (l Leader) IsUnicode() bool { return l[posCharacterCoding] == CodingUnicode }

// IndicatorCount returns the indicator count position.
func (l Leader) IndicatorCount() byte { return l[posIndicatorCount] }

// SubfieldCodeLength returns the subfield code length position.
func (l Leader) SubfieldCodeLength() byte { return l[posSubfieldLength] }

// EntryMap returns positions 20-23.
func (l Leader) EntryMap() string { return string(l[posEntryMap:]) }

// SetRecordLength writes n as five zero padded digits at positions 0-4.
func (l *Leader) SetRecordLength(n int) {
	l.setDigits(posRecordLength, 5, n)
}

// SetBaseAddress writes n as five zero padded digits at positions 12-16.
func (l *Leader) SetBaseAddress(n int) {
	l.setDigits(posBaseAddress, 5, n)
}

// SetCharacterCoding sets leader position 9.
func (l *Leader) SetCharacterCoding(c byte) {
	l[posCharacterCoding] = c
}

// SetStructure writes the constant structural positions: indicator count 2,
// subfield code length 2 and entry map 4500.
func (l *Leader) SetStructure() {
	l[posIndicatorCount] = '2'
	l[posSubfieldLength] = '2'
	copy(l[posEntryMap:], "4500")
}

func (l Leader) digits(pos, width int) (int, error) {
	raw := string(l[pos : pos+width])
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, fmt.Errorf("leader positions %d-%d %q are not numeric", pos, pos+width-1, raw)
		}
	}
	return strconv.Atoi(raw)
}

func (l *Leader) setDigits(pos, width, n int) {
	copy(l[pos:pos+width], fmt.Sprintf("%0*d", width, n))
}
