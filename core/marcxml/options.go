package marcxml

import (
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/FocuswithJustin/JuniperMARC/core/marc8"
)

// Namespace and schema of the MARCXML slim format.
const (
	Namespace      = "http://www.loc.gov/MARC21/slim"
	SchemaInstance = "http://www.w3.org/2001/XMLSchema-instance"
	SchemaLocation = "http://www.loc.gov/MARC21/slim http://www.loc.gov/standards/marcxml/schema/MARC21slim.xsd"
)

// Options configures reading. A nil *Options means a permissive reader that
// logs diagnostics.
type Options struct {
	// Strict uses a strict XML decoder and fails records with missing or
	// invalid required attributes. Otherwise HTML entities and unclosed
	// elements are tolerated and bad fields are dropped or repaired with a
	// diagnostic.
	Strict bool

	// Quiet suppresses diagnostics.
	Quiet bool

	// Diagnostics receives diagnostics instead of the log.
	Diagnostics marc.DiagnosticHandler

	// Normalize is applied to every leader, control field and subfield value.
	Normalize marc8.Form
}

func (o *Options) get() Options {
	if o == nil {
		return Options{}
	}
	return *o
}

func (o *Options) handler() marc.DiagnosticHandler {
	if o == nil {
		return marc.ResolveHandler(false, nil)
	}
	return marc.ResolveHandler(o.Quiet, o.Diagnostics)
}

// WriteOptions configures Marshal and Writer.
type WriteOptions struct {
	// Namespace declares the MARCXML namespace and schema location on the
	// root element.
	Namespace bool

	// Indent pretty prints with two spaces per level.
	Indent bool

	// Quiet suppresses diagnostics for values XML cannot carry.
	Quiet bool

	// Diagnostics receives diagnostics instead of the log.
	Diagnostics marc.DiagnosticHandler
}

func (o *WriteOptions) get() WriteOptions {
	if o == nil {
		return WriteOptions{}
	}
	return *o
}

func (o WriteOptions) handler() marc.DiagnosticHandler {
	return marc.ResolveHandler(o.Quiet, o.Diagnostics)
}
