package marc

import (
	"strings"
)

// Field is one variable field of a record: either a *ControlField or a
// *DataField. The set of implementations is closed.
type Field interface {
	// Tag returns the three character field tag.
	Tag() string
	// IsControl reports whether the field is a control field.
	IsControl() bool
	// Value returns the field text: control data, or subfield values joined by spaces.
	Value() string
	// String renders the field as a mnemonic line, e.g. "=245  10$aTitle".
	String() string

	field()
}

// Subfield is one coded element of a data field.
type Subfield struct {
	Code  byte
	Value string
}

// ControlField holds raw data without indicators or subfields (tags 001-009).
type ControlField struct {
	tag  string
	Data string
}

// NewControlField creates a control field.
func NewControlField(tag, data string) *ControlField {
	return &ControlField{tag: tag, Data: data}
}

func (f *ControlField) Tag() string     { return f.tag }
func (f *ControlField) IsControl() bool { return true }
func (f *ControlField) Value() string   { return f.Data }
func (f *ControlField) field()          {}

func (f *ControlField) String() string {
	return "=" + f.tag + "  " + strings.ReplaceAll(f.Data, " ", `\`)
}

// DataField holds two indicators and an ordered list of subfields.
type DataField struct {
	tag        string
	Indicator1 byte
	Indicator2 byte
	Subfields  []Subfield
}

// NewDataField creates a data field. Indicators are single bytes; a zero
// indicator is stored as a space.
func NewDataField(tag string, ind1, ind2 byte, subfields ...Subfield) *DataField {
	if ind1 == 0 {
		ind1 = ' '
	}
	if ind2 == 0 {
		ind2 = ' '
	}
	return &DataField{
		tag:        tag,
		Indicator1: ind1,
		Indicator2: ind2,
		Subfields:  subfields,
	}
}

func (f *DataField) Tag() string     { return f.tag }
func (f *DataField) IsControl() bool { return false }
func (f *DataField) field()          {}

// Value joins subfield values with single spaces.
func (f *DataField) Value() string {
	values := make([]string, 0, len(f.Subfields))
	for _, sf := range f.Subfields {
		values = append(values, sf.Value)
	}
	return strings.Join(values, " ")
}

func (f *DataField) String() string {
	var b strings.Builder
	b.WriteString("=")
	b.WriteString(f.tag)
	b.WriteString("  ")
	b.WriteByte(mnemonicIndicator(f.Indicator1))
	b.WriteByte(mnemonicIndicator(f.Indicator2))
	for _, sf := range f.Subfields {
		b.WriteByte('$')
		b.WriteByte(sf.Code)
		b.WriteString(sf.Value)
	}
	return b.String()
}

// Indicators returns both indicators.
func (f *DataField) Indicators() [2]byte {
	return [2]byte{f.Indicator1, f.Indicator2}
}

// Subfield returns the value of the first subfield with the given code.
func (f *DataField) Subfield(code byte) (string, bool) {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value, true
		}
	}
	return "", false
}

// SubfieldValues returns the values of all subfields whose code is one of
// codes, in field order. With no codes it returns every value.
func (f *DataField) SubfieldValues(codes ...byte) []string {
	var values []string
	for _, sf := range f.Subfields {
		if len(codes) == 0 || containsByte(codes, sf.Code) {
			values = append(values, sf.Value)
		}
	}
	return values
}

// AddSubfield appends a subfield.
func (f *DataField) AddSubfield(code byte, value string) {
	f.Subfields = append(f.Subfields, Subfield{Code: code, Value: value})
}

// DeleteSubfield removes the first subfield with the given code and returns its value.
func (f *DataField) DeleteSubfield(code byte) (string, bool) {
	for i, sf := range f.Subfields {
		if sf.Code == code {
			f.Subfields = append(f.Subfields[:i:i], f.Subfields[i+1:]...)
			return sf.Value, true
		}
	}
	return "", false
}

// IsSubjectField reports whether the field is a 6XX subject access field.
func (f *DataField) IsSubjectField() bool {
	return strings.HasPrefix(f.tag, "6")
}

// IsControlTag reports whether tag names a control field (001-009).
func IsControlTag(tag string) bool {
	if len(tag) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if tag[i] < '0' || tag[i] > '9' {
			return false
		}
	}
	return tag < "010"
}

// FieldsEqual compares two fields structurally.
func FieldsEqual(a, b Field) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag() != b.Tag() {
		return false
	}
	switch fa := a.(type) {
	case *ControlField:
		fb, ok := b.(*ControlField)
		return ok && fa.Data == fb.Data
	case *DataField:
		fb, ok := b.(*DataField)
		if !ok || fa.Indicator1 != fb.Indicator1 || fa.Indicator2 != fb.Indicator2 {
			return false
		}
		if len(fa.Subfields) != len(fb.Subfields) {
			return false
		}
		for i := range fa.Subfields {
			if fa.Subfields[i] != fb.Subfields[i] {
				return false
			}
		}
		return true
	}
	return false
}

func cloneField(f Field) Field {
	switch v := f.(type) {
	case *ControlField:
		return &ControlField{tag: v.tag, Data: v.Data}
	case *DataField:
		c := &DataField{tag: v.tag, Indicator1: v.Indicator1, Indicator2: v.Indicator2}
		c.Subfields = append([]Subfield(nil), v.Subfields...)
		return c
	}
	return f
}

func mnemonicIndicator(b byte) byte {
	if b == ' ' {
		return '\\'
	}
	return b
}

func containsByte(set []byte, b byte) bool {
	for _, c := range set {
		if c == b {
			return true
		}
	}
	return false
}
