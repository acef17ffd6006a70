// Package errors provides standardized error types and helpers for the MARC codecs.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrMalformedRecord indicates a record whose structure cannot be decoded
	ErrMalformedRecord = errors.New("malformed record")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
	// ErrUnrecoverable marks a failure after which a source cannot be read further
	ErrUnrecoverable = errors.New("source position unrecoverable")
)

// MalformedLeaderError reports a leader whose numeric fields cannot be used.
type MalformedLeaderError struct {
	Leader  string // Raw leader bytes as read
	Message string // What was wrong
}

func (e *MalformedLeaderError) Error() string {
	if e.Leader != "" {
		return fmt.Sprintf("malformed leader %q: %s", e.Leader, e.Message)
	}
	return fmt.Sprintf("malformed leader: %s", e.Message)
}

func (e *MalformedLeaderError) Unwrap() error {
	return ErrMalformedRecord
}

// MalformedDirectoryError reports a directory entry that is not three
// numeric groups, or a directory without a terminator.
type MalformedDirectoryError struct {
	Entry   int    // Index of the offending entry, -1 when not entry specific
	Raw     string // Raw entry bytes
	Message string
}

func (e *MalformedDirectoryError) Error() string {
	if e.Entry >= 0 {
		return fmt.Sprintf("malformed directory entry %d %q: %s", e.Entry, e.Raw, e.Message)
	}
	return fmt.Sprintf("malformed directory: %s", e.Message)
}

func (e *MalformedDirectoryError) Unwrap() error {
	return ErrMalformedRecord
}

// FieldBoundaryError reports a directory entry whose span cannot be resolved
// to a terminated field inside the record.
type FieldBoundaryError struct {
	Tag    string
	Start  int // Absolute offset of the field in the record
	Length int // Declared length
	Reason string
}

func (e *FieldBoundaryError) Error() string {
	return fmt.Sprintf("field %s at %d (length %d): %s", e.Tag, e.Start, e.Length, e.Reason)
}

func (e *FieldBoundaryError) Unwrap() error {
	return ErrMalformedRecord
}

// FieldTooLargeError reports a field that cannot be described by the fixed
// width directory of a binary record.
type FieldTooLargeError struct {
	Tag    string
	Length int // Offending length or offset
	Limit  int // Largest value that fits
	Reason string
}

func (e *FieldTooLargeError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("field %q: %s (%d > %d)", e.Tag, e.Reason, e.Length, e.Limit)
	}
	return fmt.Sprintf("field %q: %s", e.Tag, e.Reason)
}

func (e *FieldTooLargeError) Unwrap() error {
	return ErrInvalidInput
}

// TruncatedRecordError reports a source that ended in the middle of a record.
type TruncatedRecordError struct {
	Declared int // Declared record length
	Read     int // Bytes actually available
}

func (e *TruncatedRecordError) Error() string {
	return fmt.Sprintf("truncated record: declared %d bytes, got %d", e.Declared, e.Read)
}

func (e *TruncatedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// EncodingError reports character data that could not be decoded under a
// strict character handling policy.
type EncodingError struct {
	Tag      string
	Encoding string
	Offset   int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("field %s: invalid %s data at offset %d", e.Tag, e.Encoding, e.Offset)
}

func (e *EncodingError) Unwrap() error {
	return ErrInvalidInput
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "MARCXML", "mnemonic")
	Line    int    // Line number, if known
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// SourceError wraps a failure after which the source it came from cannot be
// read any further. errors.Is(err, ErrUnrecoverable) reports true for it.
type SourceError struct {
	Offset int64 // Byte offset (binary) or line (XML) where reading stopped
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source unreadable after offset %d: %v", e.Offset, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is reports the SourceError as ErrUnrecoverable in addition to its cause.
func (e *SourceError) Is(target error) bool {
	return target == ErrUnrecoverable
}

// Helper functions for creating common errors

// NewMalformedLeader creates a MalformedLeaderError
func NewMalformedLeader(leader, message string) *MalformedLeaderError {
	return &MalformedLeaderError{
		Leader:  leader,
		Message: message,
	}
}

// NewMalformedDirectory creates a MalformedDirectoryError
func NewMalformedDirectory(entry int, raw, message string) *MalformedDirectoryError {
	return &MalformedDirectoryError{
		Entry:   entry,
		Raw:     raw,
		Message: message,
	}
}

// NewFieldTooLarge creates a FieldTooLargeError
func NewFieldTooLarge(tag string, length, limit int, reason string) *FieldTooLargeError {
	return &FieldTooLargeError{
		Tag:    tag,
		Length: length,
		Limit:  limit,
		Reason: reason,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format string, line int, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Line:    line,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Unrecoverable wraps err in a SourceError. If err is nil, returns nil.
func Unrecoverable(offset int64, err error) error {
	if err == nil {
		return nil
	}
	return &SourceError{Offset: offset, Err: err}
}

// IsUnrecoverable reports whether err ends iteration over its source.
func IsUnrecoverable(err error) bool {
	return errors.Is(err, ErrUnrecoverable)
}

// Join wraps errors.Join for convenience
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
