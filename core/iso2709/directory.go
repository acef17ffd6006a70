package iso2709

import (
	"fmt"

	"github.com/FocuswithJustin/JuniperMARC/core/errors"
)

// Structural bytes of a binary record.
const (
	SubfieldDelimiter byte = 0x1F
	FieldTerminator   byte = 0x1E
	RecordTerminator  byte = 0x1D
)

// Directory geometry.
const (
	EntryLength    = 12
	MaxFieldLength = 9999
	MaxFieldStart  = 99999
	MaxRecordSize  = 99999
)

// DirectoryEntry locates one field relative to the base address.
type DirectoryEntry struct {
	Tag    string
	Length int
	Start  int
}

func (e DirectoryEntry) String() string {
	return fmt.Sprintf("%s%04d%05d", e.Tag, e.Length, e.Start)
}

// ParseDirectory splits the directory bytes (without the field terminator)
// into entries. Every entry must be exactly 12 bytes with numeric length and
// start.
func ParseDirectory(dir []byte) ([]DirectoryEntry, error) {
	if len(dir)%EntryLength != 0 {
		return nil, errors.NewMalformedDirectory(-1, "",
			fmt.Sprintf("directory length %d is not a multiple of %d", len(dir), EntryLength))
	}
	entries := make([]DirectoryEntry, 0, len(dir)/EntryLength)
	for i := 0; i < len(dir); i += EntryLength {
		raw := dir[i : i+EntryLength]
		length, ok := digits(raw[3:7])
		if !ok {
			return nil, errors.NewMalformedDirectory(i/EntryLength, string(raw), "field length is not numeric")
		}
		start, ok := digits(raw[7:12])
		if !ok {
			return nil, errors.NewMalformedDirectory(i/EntryLength, string(raw), "field start is not numeric")
		}
		entries = append(entries, DirectoryEntry{Tag: string(raw[:3]), Length: length, Start: start})
	}
	return entries, nil
}

func digits(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
