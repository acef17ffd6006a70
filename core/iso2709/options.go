package iso2709

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/FocuswithJustin/JuniperMARC/core/marc8"
	"golang.org/x/text/encoding"
)

// UTF8Handling selects what happens to invalid UTF-8 in Unicode records.
type UTF8Handling int

const (
	// UTF8Replace substitutes U+FFFD and emits an invalid-utf8 diagnostic.
	UTF8Replace UTF8Handling = iota
	// UTF8Strict fails the record with an *errors.EncodingError.
	UTF8Strict
	// UTF8Ignore drops the invalid bytes and emits an invalid-utf8 diagnostic.
	UTF8Ignore
)

func (h UTF8Handling) String() string {
	switch h {
	case UTF8Strict:
		return "strict"
	case UTF8Ignore:
		return "ignore"
	default:
		return "replace"
	}
}

// ParseUTF8Handling parses "replace", "strict" or "ignore".
func ParseUTF8Handling(s string) (UTF8Handling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "replace":
		return UTF8Replace, nil
	case "strict":
		return UTF8Strict, nil
	case "ignore":
		return UTF8Ignore, nil
	default:
		return UTF8Replace, fmt.Errorf("unknown UTF-8 handling: %s", s)
	}
}

// Options configures decoding and encoding. A nil *Options means defaults:
// MARC-8 records converted to Unicode with the built-in tables, invalid
// UTF-8 replaced, diagnostics logged.
type Options struct {
	// Quiet suppresses diagnostics. Recovery is unchanged.
	Quiet bool

	// Diagnostics receives diagnostics instead of the log.
	Diagnostics marc.DiagnosticHandler

	// ForceUTF8 treats every record as Unicode regardless of leader
	// position 9.
	ForceUTF8 bool

	// Charset, when set, decodes and encodes non-Unicode records with this
	// encoding (e.g. charmap.ISO8859_1) instead of MARC-8.
	Charset encoding.Encoding

	// UTF8Handling applies to records decoded as Unicode.
	UTF8Handling UTF8Handling

	// Normalize is applied to every decoded string.
	Normalize marc8.Form

	// Tables overrides the built-in MARC-8 character sets.
	Tables *marc8.Tables
}

func (o *Options) handler() marc.DiagnosticHandler {
	if o == nil {
		return marc.ResolveHandler(false, nil)
	}
	return marc.ResolveHandler(o.Quiet, o.Diagnostics)
}

func (o *Options) marc8Options(h marc.DiagnosticHandler) *marc8.Options {
	m := &marc8.Options{Diagnostics: h, Quiet: h == nil}
	if o != nil {
		m.Tables = o.Tables
		m.Normalize = o.Normalize
	}
	return m
}

func (o *Options) get() Options {
	if o == nil {
		return Options{}
	}
	return *o
}
