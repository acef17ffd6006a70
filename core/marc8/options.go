package marc8

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"golang.org/x/text/unicode/norm"
)

// Form names a Unicode normalization form applied to decoded text.
type Form string

const (
	FormNone Form = ""
	FormNFC  Form = "NFC"
	FormNFD  Form = "NFD"
	FormNFKC Form = "NFKC"
	FormNFKD Form = "NFKD"
)

// ParseForm parses a normalization form name. "none" and "" mean no
// normalization.
func ParseForm(s string) (Form, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return FormNone, nil
	case "NFC":
		return FormNFC, nil
	case "NFD":
		return FormNFD, nil
	case "NFKC":
		return FormNFKC, nil
	case "NFKD":
		return FormNFKD, nil
	default:
		return FormNone, fmt.Errorf("unknown normalization form: %s", s)
	}
}

// Apply normalizes s. FormNone returns s unchanged.
func (f Form) Apply(s string) string {
	switch f {
	case FormNFC:
		return norm.NFC.String(s)
	case FormNFD:
		return norm.NFD.String(s)
	case FormNFKC:
		return norm.NFKC.String(s)
	case FormNFKD:
		return norm.NFKD.String(s)
	default:
		return s
	}
}

// Options configures a Decoder or Encoder. A nil *Options means defaults:
// built-in tables, no normalization, diagnostics logged.
type Options struct {
	// Tables overrides the built-in character sets, e.g. with the result of
	// LoadCodeTables.
	Tables *Tables

	// Normalize is applied to decoded text.
	Normalize Form

	// Quiet suppresses diagnostics. Recovery is unchanged.
	Quiet bool

	// Diagnostics receives diagnostics instead of the log.
	Diagnostics marc.DiagnosticHandler
}

func (o *Options) tables() *Tables {
	if o != nil && o.Tables != nil {
		return o.Tables
	}
	return DefaultTables()
}

func (o *Options) handler() marc.DiagnosticHandler {
	if o == nil {
		return marc.ResolveHandler(false, nil)
	}
	return marc.ResolveHandler(o.Quiet, o.Diagnostics)
}

func (o *Options) form() Form {
	if o == nil {
		return FormNone
	}
	return o.Normalize
}
