package marc

import (
	"sort"
	"strings"
)

// Record is a leader plus an ordered list of fields. Fields appear in
// directory order; control and data fields may interleave.
type Record struct {
	Leader Leader
	Fields []Field
}

// NewRecord returns an empty record with the default leader.
func NewRecord() *Record {
	return &Record{Leader: NewLeader()}
}

// Field returns the first field with the given tag, or nil.
func (r *Record) Field(tag string) Field {
	for _, f := range r.Fields {
		if f.Tag() == tag {
			return f
		}
	}
	return nil
}

// GetFields returns every field whose tag is one of tags, in record order.
// With no tags it returns all fields.
func (r *Record) GetFields(tags ...string) []Field {
	if len(tags) == 0 {
		return append([]Field(nil), r.Fields...)
	}
	var out []Field
	for _, f := range r.Fields {
		for _, t := range tags {
			if f.Tag() == t {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// DataField returns the first data field with the given tag, or nil.
func (r *Record) DataField(tag string) *DataField {
	for _, f := range r.Fields {
		if df, ok := f.(*DataField); ok && df.tag == tag {
			return df
		}
	}
	return nil
}

// ControlField returns the first control field with the given tag, or nil.
func (r *Record) ControlField(tag string) *ControlField {
	for _, f := range r.Fields {
		if cf, ok := f.(*ControlField); ok && cf.tag == tag {
			return cf
		}
	}
	return nil
}

// Value returns the first subfield code value of the first data field
// tagged tag, or "" when either is missing.
func (r *Record) Value(tag string, code byte) string {
	df := r.DataField(tag)
	if df == nil {
		return ""
	}
	v, _ := df.Subfield(code)
	return v
}

// AddField appends fields to the record.
func (r *Record) AddField(fields ...Field) {
	r.Fields = append(r.Fields, fields...)
}

// AddOrderedField inserts each field before the first existing field with a
// greater tag, keeping a tag-sorted record sorted.
func (r *Record) AddOrderedField(fields ...Field) {
	for _, f := range fields {
		i := sort.Search(len(r.Fields), func(i int) bool {
			return r.Fields[i].Tag() > f.Tag()
		})
		r.Fields = append(r.Fields, nil)
		copy(r.Fields[i+1:], r.Fields[i:])
		r.Fields[i] = f
	}
}

// RemoveField removes the given field instances (by identity).
func (r *Record) RemoveField(fields ...Field) {
	kept := r.Fields[:0]
	for _, f := range r.Fields {
		drop := false
		for _, rm := range fields {
			if f == rm {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, f)
		}
	}
	for i := len(kept); i < len(r.Fields); i++ {
		r.Fields[i] = nil
	}
	r.Fields = kept
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := &Record{Leader: r.Leader, Fields: make([]Field, len(r.Fields))}
	for i, f := range r.Fields {
		c.Fields[i] = cloneField(f)
	}
	return c
}

// Equal compares leader, field order, tags, indicators and subfields.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Leader != o.Leader || len(r.Fields) != len(o.Fields) {
		return false
	}
	for i := range r.Fields {
		if !FieldsEqual(r.Fields[i], o.Fields[i]) {
			return false
		}
	}
	return true
}

// String renders the record in mnemonic form: a "=LDR  " line followed by
// one line per field.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString("=LDR  ")
	b.WriteString(strings.ReplaceAll(r.Leader.String(), " ", `\`))
	b.WriteByte('\n')
	for _, f := range r.Fields {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Title returns 245 $a, followed by $b when present.
func (r *Record) Title() string {
	df := r.DataField("245")
	if df == nil {
		return ""
	}
	title, _ := df.Subfield('a')
	if sub, ok := df.Subfield('b'); ok {
		title = strings.TrimSpace(title + " " + sub)
	}
	return title
}

// Author returns the main entry: 100, 110 or 111 as text.
func (r *Record) Author() string {
	for _, tag := range []string{"100", "110", "111"} {
		if df := r.DataField(tag); df != nil {
			return df.Value()
		}
	}
	return ""
}

// ISBN returns the first token of 020 $a.
func (r *Record) ISBN() string {
	v := r.Value("020", 'a')
	if fields := strings.Fields(v); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// Publisher returns 260 $b, falling back to 264 $b.
func (r *Record) Publisher() string {
	return r.firstOf('b', "260", "264")
}

// PubYear returns 260 $c, falling back to 264 $c.
func (r *Record) PubYear() string {
	return r.firstOf('c', "260", "264")
}

// Subjects returns all 6XX fields.
func (r *Record) Subjects() []Field {
	var out []Field
	for _, f := range r.Fields {
		if df, ok := f.(*DataField); ok && df.IsSubjectField() {
			out = append(out, f)
		}
	}
	return out
}

// Notes returns all 5XX fields.
func (r *Record) Notes() []Field {
	var out []Field
	for _, f := range r.Fields {
		if strings.HasPrefix(f.Tag(), "5") {
			out = append(out, f)
		}
	}
	return out
}

func (r *Record) firstOf(code byte, tags ...string) string {
	for _, tag := range tags {
		if v := r.Value(tag, code); v != "" {
			return v
		}
	}
	return ""
}
