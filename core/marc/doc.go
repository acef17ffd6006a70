// Package marc defines the record model shared by the MARC21 codecs.
//
// A Record is a Leader plus an ordered list of Fields. A Field is either a
// *ControlField (tag and raw data) or a *DataField (tag, two indicators and
// an ordered list of Subfields). Lookups are linear scans over the field
// list; records are small and field order is significant, so no index is kept.
//
// Records carry no codec state. The binary (core/iso2709), XML
// (core/marcxml) and mnemonic (core/mrk) codecs all produce and consume
// this model, and report recoverable problems as Diagnostic values through a
// DiagnosticHandler.
package marc
