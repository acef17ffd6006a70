package marc

import (
	"regexp"
	"strings"
	"testing"
)

func sampleRecord() *Record {
	r := NewRecord()
	r.AddField(
		NewControlField("001", "ocm12345"),
		NewControlField("008", "910926s1957    nyuuun              eng  "),
		NewDataField("020", ' ', ' ', Subfield{'a', "0877790195 (pbk.)"}),
		NewDataField("100", '1', ' ', Subfield{'a', "Charles, Ray,"}, Subfield{'d', "1930-2004."}),
		NewDataField("245", '0', '4',
			Subfield{'a', "The Great Ray Charles"},
			Subfield{'h', "[sound recording]."},
		),
		NewDataField("260", ' ', ' ', Subfield{'a', "New York :"}, Subfield{'b', "Atlantic,"}, Subfield{'c', "[1957]"}),
		NewDataField("500", ' ', ' ', Subfield{'a', "Brief record."}),
		NewDataField("650", ' ', '0', Subfield{'a', "Jazz."}),
		NewDataField("650", ' ', '0', Subfield{'a', "Piano music (Jazz)"}),
	)
	return r
}

func TestLookup(t *testing.T) {
	r := sampleRecord()

	if f := r.Field("245"); f == nil || f.Tag() != "245" {
		t.Fatalf("Field(245) = %v", f)
	}
	if f := r.Field("999"); f != nil {
		t.Errorf("Field(999) = %v, want nil", f)
	}
	if got := len(r.GetFields("650")); got != 2 {
		t.Errorf("GetFields(650) returned %d fields, want 2", got)
	}
	if got := len(r.GetFields("001", "650")); got != 3 {
		t.Errorf("GetFields(001, 650) returned %d fields, want 3", got)
	}
	if got := len(r.GetFields()); got != len(r.Fields) {
		t.Errorf("GetFields() returned %d fields, want %d", got, len(r.Fields))
	}
	if got := r.Value("245", 'a'); got != "The Great Ray Charles" {
		t.Errorf("Value(245, a) = %q", got)
	}
	if got := r.Value("245", 'z'); got != "" {
		t.Errorf("Value(245, z) = %q, want empty", got)
	}
	if got := r.Value("999", 'a'); got != "" {
		t.Errorf("Value(999, a) = %q, want empty", got)
	}
	if cf := r.ControlField("008"); cf == nil || cf.Data != "910926s1957    nyuuun              eng  " {
		t.Errorf("ControlField(008) = %v", cf)
	}
	if r.ControlField("245") != nil {
		t.Error("ControlField(245) should be nil for a data field")
	}
	if r.DataField("001") != nil {
		t.Error("DataField(001) should be nil for a control field")
	}
}

func TestConvenienceAccessors(t *testing.T) {
	r := sampleRecord()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Title", r.Title(), "The Great Ray Charles"},
		{"Author", r.Author(), "Charles, Ray, 1930-2004."},
		{"ISBN", r.ISBN(), "0877790195"},
		{"Publisher", r.Publisher(), "Atlantic,"},
		{"PubYear", r.PubYear(), "[1957]"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if got := len(r.Subjects()); got != 2 {
		t.Errorf("Subjects() returned %d, want 2", got)
	}
	if got := len(r.Notes()); got != 1 {
		t.Errorf("Notes() returned %d, want 1", got)
	}

	r.DataField("245").AddSubfield('b', "a subtitle")
	if got := r.Title(); got != "The Great Ray Charles a subtitle" {
		t.Errorf("Title() with $b = %q", got)
	}

	empty := NewRecord()
	if empty.Title() != "" || empty.Author() != "" || empty.ISBN() != "" || empty.PubYear() != "" {
		t.Error("accessors on an empty record should return empty strings")
	}
}

func TestDataFieldSubfields(t *testing.T) {
	f := NewDataField("752", 0, 0,
		Subfield{'a', "Russian Federation"},
		Subfield{'b', "Kostroma Oblast"},
		Subfield{'d', "Kostroma"},
		Subfield{'a', "second a"},
	)

	if f.Indicator1 != ' ' || f.Indicator2 != ' ' {
		t.Errorf("zero indicators should become spaces, got %q %q", f.Indicator1, f.Indicator2)
	}
	if got := f.SubfieldValues('a'); len(got) != 2 || got[1] != "second a" {
		t.Errorf("SubfieldValues(a) = %q", got)
	}
	if got := f.SubfieldValues(); len(got) != 4 {
		t.Errorf("SubfieldValues() = %q", got)
	}
	if got := f.Value(); got != "Russian Federation Kostroma Oblast Kostroma second a" {
		t.Errorf("Value() = %q", got)
	}

	v, ok := f.DeleteSubfield('b')
	if !ok || v != "Kostroma Oblast" {
		t.Errorf("DeleteSubfield(b) = %q, %v", v, ok)
	}
	if _, ok := f.Subfield('b'); ok {
		t.Error("subfield b should be gone")
	}
	if _, ok := f.DeleteSubfield('z'); ok {
		t.Error("DeleteSubfield(z) should report false")
	}
	if got := f.Indicators(); got != [2]byte{' ', ' '} {
		t.Errorf("Indicators() = %q", got)
	}
	if f.IsSubjectField() {
		t.Error("752 is not a subject field")
	}
}

func TestIsControlTag(t *testing.T) {
	tests := map[string]bool{
		"001": true,
		"008": true,
		"009": true,
		"010": false,
		"245": false,
		"00A": false,
		"01":  false,
		"LDR": false,
	}
	for tag, want := range tests {
		if got := IsControlTag(tag); got != want {
			t.Errorf("IsControlTag(%q) = %v, want %v", tag, got, want)
		}
	}
}

func TestMutation(t *testing.T) {
	r := NewRecord()
	r.AddField(NewControlField("001", "x"), NewDataField("245", '1', '0'), NewDataField("650", ' ', '0'))

	r.AddOrderedField(NewDataField("100", '1', ' '), NewDataField("999", ' ', ' '), NewControlField("003", "DLC"))
	var tags []string
	for _, f := range r.Fields {
		tags = append(tags, f.Tag())
	}
	if got, want := strings.Join(tags, ","), "001,003,100,245,650,999"; got != want {
		t.Errorf("ordered tags = %s, want %s", got, want)
	}

	title := r.Field("245")
	r.RemoveField(title)
	if r.Field("245") != nil {
		t.Error("245 should be removed")
	}
	if len(r.Fields) != 5 {
		t.Errorf("len(Fields) = %d, want 5", len(r.Fields))
	}
}

func TestEqualAndClone(t *testing.T) {
	a := sampleRecord()
	b := a.Clone()

	if !a.Equal(b) {
		t.Fatal("clone should be equal")
	}

	b.DataField("245").Subfields[0].Value = "changed"
	if a.Equal(b) {
		t.Error("changing the clone should not affect equality check result")
	}
	if a.Value("245", 'a') != "The Great Ray Charles" {
		t.Error("clone shares subfield storage with original")
	}

	c := a.Clone()
	c.DataField("245").Indicator1 = '1'
	if a.Equal(c) {
		t.Error("indicator change should break equality")
	}

	d := a.Clone()
	d.Leader[5] = 'c'
	if a.Equal(d) {
		t.Error("leader change should break equality")
	}

	e := a.Clone()
	e.Fields[0], e.Fields[1] = e.Fields[1], e.Fields[0]
	if a.Equal(e) {
		t.Error("field order change should break equality")
	}

	if FieldsEqual(NewControlField("001", "a"), NewDataField("001", ' ', ' ')) {
		t.Error("control and data fields should never be equal")
	}
	var nilRec *Record
	if !nilRec.Equal(nil) || a.Equal(nil) {
		t.Error("nil handling in Equal is wrong")
	}
}

func TestString(t *testing.T) {
	text := sampleRecord().String()

	if !regexp.MustCompile(`^=LDR  `).MatchString(text) {
		t.Errorf("missing leader line: %q", text)
	}
	if !regexp.MustCompile(`\n=\d\d\d `).MatchString(text) {
		t.Errorf("missing numeric tag line: %q", text)
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	want := []string{
		`=LDR  00000nam\a2200000\a\4500`,
		`=001  ocm12345`,
		`=008  910926s1957\\\\nyuuun\\\\\\\\\\\\\\eng\\`,
		`=020  \\$a0877790195 (pbk.)`,
		`=100  1\$aCharles, Ray,$d1930-2004.`,
		`=245  04$aThe Great Ray Charles$h[sound recording].`,
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestLeader(t *testing.T) {
	l, err := ParseLeader("00714cam a2200205 a 4500")
	if err != nil {
		t.Fatalf("ParseLeader failed: %v", err)
	}
	if n, err := l.RecordLength(); err != nil || n != 714 {
		t.Errorf("RecordLength() = %d, %v", n, err)
	}
	if n, err := l.BaseAddress(); err != nil || n != 205 {
		t.Errorf("BaseAddress() = %d, %v", n, err)
	}
	if l.Status() != 'c' || l.Type() != 'a' {
		t.Errorf("Status/Type = %c/%c", l.Status(), l.Type())
	}
	if !l.IsUnicode() || l.CharacterCoding() != CodingUnicode {
		t.Error("leader should be Unicode")
	}
	if l.IndicatorCount() != '2' || l.SubfieldCodeLength() != '2' || l.EntryMap() != "4500" {
		t.Error("structural positions wrong")
	}

	l.SetRecordLength(99999)
	l.SetBaseAddress(37)
	l.SetCharacterCoding(CodingMARC8)
	if got := l.String(); got != "99999cam  2200037 a 4500" {
		t.Errorf("String() = %q", got)
	}

	if _, err := ParseLeader("short"); err == nil {
		t.Error("ParseLeader(short) should fail")
	}

	bad, _ := ParseLeader("0071xcam a2200205 a 4500")
	if _, err := bad.RecordLength(); err == nil {
		t.Error("non-numeric record length should fail")
	}

	padded, adjusted := LeaderFromString("00714cam")
	if !adjusted || padded.String() != "00714cam                " {
		t.Errorf("LeaderFromString padding = %q, %v", padded.String(), adjusted)
	}
	trimmed, adjusted := LeaderFromString("00714cam a2200205 a 4500EXTRA")
	if !adjusted || trimmed.String() != "00714cam a2200205 a 4500" {
		t.Errorf("LeaderFromString truncation = %q, %v", trimmed.String(), adjusted)
	}

	var blank Leader
	copy(blank[:], "                        ")
	blank.SetStructure()
	if blank.EntryMap() != "4500" || blank.IndicatorCount() != '2' {
		t.Errorf("SetStructure() = %q", blank.String())
	}
}

func TestDiagnostics(t *testing.T) {
	var c Collector
	h := ResolveHandler(false, c.Handle)
	h.Emit(Diagnostic{Kind: DiagInvalidIndicator, Tag: "245", Offset: 0, Byte: 0x8c})
	h.Emit(Diagnostic{Kind: DiagInvalidIndicator, Tag: "100", Offset: 1, Byte: 'Z'})
	h.Emit(Diagnostic{Kind: DiagLengthMismatch, Offset: -1})

	if c.Count(DiagInvalidIndicator) != 2 || c.Count(DiagLengthMismatch) != 1 {
		t.Errorf("collected %v", c.Diagnostics)
	}

	if ResolveHandler(true, c.Handle) != nil {
		t.Error("quiet should resolve to a nil handler")
	}
	if ResolveHandler(false, nil) == nil {
		t.Error("default handler should not be nil")
	}
	var quiet DiagnosticHandler
	quiet.Emit(Diagnostic{Kind: DiagLengthMismatch})

	got := Diagnostic{Kind: DiagUnmappedCharacter, Tag: "245", Code: 'a', Offset: 3, Byte: 0xff, Message: "no mapping"}.String()
	want := "unmapped-character tag=245 code=a offset=3 byte=0xff: no mapping"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
