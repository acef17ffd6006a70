// Package digest fingerprints records by content so duplicates can be found
// across sources and encodings.
package digest

import (
	"encoding/hex"
	"slices"

	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/zeebo/blake3"
)

// Separators of the canonical form. They cannot occur in decoded text
// without being invalid MARC data anyway.
const (
	fieldSep    = 0x1E
	subfieldSep = 0x1F
)

// Options selects what a fingerprint ignores.
type Options struct {
	// IgnoreTags are left out, e.g. "005" so that re-exported copies match.
	IgnoreTags []string
}

// Fingerprint returns the hex BLAKE3 digest of rec's content. The leader's
// length, base address and coding scheme are ignored, so the same record
// read from MARC-8, UTF-8 or XML has one fingerprint.
func Fingerprint(rec *marc.Record, opts *Options) string {
	h := blake3.New()
	h.Write(canonical(rec, opts))
	return hex.EncodeToString(h.Sum(nil))
}

func canonical(rec *marc.Record, opts *Options) []byte {
	l := rec.Leader
	l.SetRecordLength(0)
	l.SetBaseAddress(0)
	l.SetCharacterCoding(' ')

	buf := make([]byte, 0, 512)
	buf = append(buf, l[:]...)
	for _, f := range rec.Fields {
		if opts != nil && slices.Contains(opts.IgnoreTags, f.Tag()) {
			continue
		}
		buf = append(buf, fieldSep)
		buf = append(buf, f.Tag()...)
		switch v := f.(type) {
		case *marc.ControlField:
			buf = append(buf, v.Data...)
		case *marc.DataField:
			buf = append(buf, v.Indicator1, v.Indicator2)
			for _, sf := range v.Subfields {
				buf = append(buf, subfieldSep, sf.Code)
				buf = append(buf, sf.Value...)
			}
		}
	}
	return buf
}

// Set remembers fingerprints and the index of the record that first had
// each one.
type Set struct {
	opts  *Options
	seen  map[string]int
	count int
}

// NewSet returns an empty Set.
func NewSet(opts *Options) *Set {
	return &Set{opts: opts, seen: make(map[string]int)}
}

// Add records rec. It reports whether an earlier record had the same
// fingerprint, and that record's index.
func (s *Set) Add(rec *marc.Record) (first int, dup bool) {
	fp := Fingerprint(rec, s.opts)
	index := s.count
	s.count++
	if first, ok := s.seen[fp]; ok {
		return first, true
	}
	s.seen[fp] = index
	return index, false
}

// Len returns the number of distinct fingerprints.
func (s *Set) Len() int {
	return len(s.seen)
}
