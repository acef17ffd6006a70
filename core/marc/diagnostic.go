package marc

import (
	"fmt"

	"github.com/FocuswithJustin/JuniperMARC/internal/logging"
)

// DiagnosticKind classifies a recoverable problem found while decoding or
// encoding a record.
type DiagnosticKind string

const (
	DiagInvalidIndicator  DiagnosticKind = "invalid-indicator"
	DiagIndicatorCount    DiagnosticKind = "indicator-count"
	DiagLengthMismatch    DiagnosticKind = "length-mismatch"
	DiagBaseAddress       DiagnosticKind = "base-address"
	DiagFieldBoundary     DiagnosticKind = "field-boundary"
	DiagUnmappedCharacter DiagnosticKind = "unmapped-character"
	DiagUnknownCharset    DiagnosticKind = "unknown-charset"
	DiagMalformedEscape   DiagnosticKind = "malformed-escape"
	DiagDanglingCombining DiagnosticKind = "dangling-combining"
	DiagUnrepresentable   DiagnosticKind = "unrepresentable-character"
	DiagInvalidUTF8       DiagnosticKind = "invalid-utf8"
	DiagMalformedTag      DiagnosticKind = "malformed-tag"
	DiagMissingAttribute  DiagnosticKind = "missing-attribute"
	DiagLeaderLength      DiagnosticKind = "leader-length"
)

// Diagnostic is a structured, advisory warning. Recovery has already
// happened by the time a Diagnostic is emitted.
type Diagnostic struct {
	Kind    DiagnosticKind
	Tag     string // Field tag, if known
	Code    byte   // Subfield code, if known
	Offset  int    // Byte offset within the record or field, -1 if unknown
	Byte    byte   // Offending byte, if any
	Line    int    // Source line (XML, mnemonic), 0 if unknown
	Message string
}

func (d Diagnostic) String() string {
	s := string(d.Kind)
	if d.Tag != "" {
		s += " tag=" + d.Tag
	}
	if d.Code != 0 {
		s += fmt.Sprintf(" code=%c", d.Code)
	}
	if d.Offset >= 0 {
		s += fmt.Sprintf(" offset=%d", d.Offset)
	}
	if d.Byte != 0 {
		s += fmt.Sprintf(" byte=0x%02x", d.Byte)
	}
	if d.Line > 0 {
		s += fmt.Sprintf(" line=%d", d.Line)
	}
	if d.Message != "" {
		s += ": " + d.Message
	}
	return s
}

// DiagnosticHandler receives diagnostics. A nil handler discards them.
type DiagnosticHandler func(Diagnostic)

// LogDiagnostic is the default handler: it logs each diagnostic at warn level.
func LogDiagnostic(d Diagnostic) {
	args := []any{"offset", d.Offset}
	if d.Byte != 0 {
		args = append(args, "byte", fmt.Sprintf("0x%02x", d.Byte))
	}
	if d.Code != 0 {
		args = append(args, "code", string(d.Code))
	}
	if d.Line > 0 {
		args = append(args, "line", d.Line)
	}
	logging.Diagnostic(string(d.Kind), d.Tag, d.Message, args...)
}

// ResolveHandler picks the handler a codec should use: nil when quiet,
// the given handler when set, LogDiagnostic otherwise.
func ResolveHandler(quiet bool, h DiagnosticHandler) DiagnosticHandler {
	if quiet {
		return nil
	}
	if h != nil {
		return h
	}
	return LogDiagnostic
}

// Emit calls h with d when h is not nil.
func (h DiagnosticHandler) Emit(d Diagnostic) {
	if h != nil {
		h(d)
	}
}

// Collector gathers diagnostics in memory.
type Collector struct {
	Diagnostics []Diagnostic
}

// Handle is a DiagnosticHandler appending to the collector.
func (c *Collector) Handle(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// Count returns how many collected diagnostics have the given kind.
func (c *Collector) Count(kind DiagnosticKind) int {
	n := 0
	for _, d := range c.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
