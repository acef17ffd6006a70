package iso2709

import (
	"fmt"
	"strings"
	"testing"

	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/FocuswithJustin/JuniperMARC/core/marc8"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/charmap"
)

type rawField struct {
	tag  string
	body string
}

// rawRecord lays out fields with a correct directory and leader.
func rawRecord(coding byte, fields ...rawField) []byte {
	var dir, data strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&dir, "%s%04d%05d", f.tag, len(f.body)+1, data.Len())
		data.WriteString(f.body)
		data.WriteByte(FieldTerminator)
	}
	dir.WriteByte(FieldTerminator)
	base := marc.LeaderLength + dir.Len()
	total := base + data.Len() + 1
	leader := fmt.Sprintf("%05dnam %c22%05d   4500", total, coding, base)
	return []byte(leader + dir.String() + data.String() + string(RecordTerminator))
}

func collect() (*marc.Collector, *Options) {
	c := &marc.Collector{}
	return c, &Options{Diagnostics: c.Handle}
}

func TestDecode(t *testing.T) {
	data := rawRecord('a',
		rawField{"001", "ocm00001"},
		rawField{"245", "10\x1faTitle :\x1fbsubtitle /\x1fcAuthor."},
		rawField{"650", " 0\x1faSubject\x1fxHistory."},
	)
	c, opts := collect()
	rec, err := Decode(data, opts)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(c.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", c.Diagnostics)
	}
	if got := rec.Leader.String(); got != string(data[:24]) {
		t.Errorf("leader = %q, want %q", got, data[:24])
	}
	if len(rec.Fields) != 3 {
		t.Fatalf("got %d fields, want 3", len(rec.Fields))
	}
	if got := rec.ControlField("001").Data; got != "ocm00001" {
		t.Errorf("001 = %q", got)
	}
	title := rec.DataField("245")
	if title.Indicator1 != '1' || title.Indicator2 != '0' {
		t.Errorf("245 indicators = %q%q", title.Indicator1, title.Indicator2)
	}
	want := []marc.Subfield{
		{Code: 'a', Value: "Title :"},
		{Code: 'b', Value: "subtitle /"},
		{Code: 'c', Value: "Author."},
	}
	if diff := cmp.Diff(want, title.Subfields); diff != "" {
		t.Errorf("245 subfields mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMARC8(t *testing.T) {
	data := rawRecord(' ',
		rawField{"100", "1 \x1faMiros\xb1aw,"},
		rawField{"245", "10\x1faCaf\xe2e \x1b(NDOSTOEWSKIJ\x1fbDA\x1b(B"},
		rawField{"246", "3 \x1faback to ascii"},
	)
	c, opts := collect()
	rec, err := Decode(data, opts)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	tests := []struct {
		tag  string
		code byte
		want string
	}{
		{"100", 'a', "Mirosław,"},
		{"245", 'a', "Cafe\u0301 достоевский"},
		{"245", 'b', "да"},
		{"246", 'a', "back to ascii"},
	}
	for _, tt := range tests {
		if got := rec.Value(tt.tag, tt.code); got != tt.want {
			t.Errorf("%s $%c = %q, want %q", tt.tag, tt.code, got, tt.want)
		}
	}
	if len(c.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", c.Diagnostics)
	}
}

func TestDecodeLenientIndicators(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		ind1, ind2 byte
		kind       marc.DiagnosticKind
	}{
		{"none", "\x1faRussian Federation", ' ', ' ', marc.DiagIndicatorCount},
		{"one", "1\x1faX", '1', ' ', marc.DiagIndicatorCount},
		{"three", "123\x1faX", '1', '2', marc.DiagIndicatorCount},
		{"nul kept", "1\x00\x1faX", '1', 0, marc.DiagInvalidIndicator},
		{"punctuation kept", "#0\x1faX", '#', '0', marc.DiagInvalidIndicator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, opts := collect()
			rec, err := Decode(rawRecord('a', rawField{"752", tt.body}), opts)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			df := rec.DataField("752")
			if df.Indicator1 != tt.ind1 || df.Indicator2 != tt.ind2 {
				t.Errorf("indicators = %q %q, want %q %q", df.Indicator1, df.Indicator2, tt.ind1, tt.ind2)
			}
			if c.Count(tt.kind) != 1 {
				t.Errorf("got diagnostics %v, want one %s", c.Diagnostics, tt.kind)
			}
			if v, _ := df.Subfield('a'); v == "" {
				t.Error("subfield a lost")
			}
		})
	}
}

func TestDecodeSkipsEmptySubfields(t *testing.T) {
	rec, err := Decode(rawRecord('a', rawField{"245", "00\x1f\x1faTitle\x1f"}), &Options{Quiet: true})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []marc.Subfield{{Code: 'a', Value: "Title"}}
	if diff := cmp.Diff(want, rec.DataField("245").Subfields); diff != "" {
		t.Errorf("subfields mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRecoverable(t *testing.T) {
	good := func() []byte {
		return rawRecord('a', rawField{"001", "id1"}, rawField{"245", "10\x1faTitle"})
	}
	tests := []struct {
		name   string
		mangle func([]byte) []byte
		kind   marc.DiagnosticKind
	}{
		{"declared length too long", func(b []byte) []byte {
			copy(b, fmt.Sprintf("%05d", len(b)+10))
			return b
		}, marc.DiagLengthMismatch},
		{"missing record terminator", func(b []byte) []byte {
			b = b[:len(b)-1]
			copy(b, fmt.Sprintf("%05d", len(b)))
			return b
		}, marc.DiagLengthMismatch},
		{"base address off by one", func(b []byte) []byte {
			copy(b[12:17], "00048")
			return b
		}, marc.DiagBaseAddress},
		{"field length too short", func(b []byte) []byte {
			// second directory entry: 245 length 0010 -> 0005
			copy(b[24+12+3:24+12+7], "0005")
			return b
		}, marc.DiagFieldBoundary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, opts := collect()
			rec, err := Decode(tt.mangle(good()), opts)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if rec.Value("245", 'a') != "Title" || rec.ControlField("001").Data != "id1" {
				t.Errorf("fields not recovered:\n%s", rec)
			}
			if c.Count(tt.kind) == 0 {
				t.Errorf("got diagnostics %v, want %s", c.Diagnostics, tt.kind)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	good := func() []byte {
		return rawRecord('a', rawField{"001", "id1"}, rawField{"245", "10\x1faTitle"})
	}
	tests := []struct {
		name   string
		data   []byte
		target interface{}
	}{
		{"short", []byte("00010nam"), new(*errors.MalformedLeaderError)},
		{"length not numeric", func() []byte { b := good(); copy(b, "0x062"); return b }(), new(*errors.MalformedLeaderError)},
		{"base not numeric", func() []byte { b := good(); copy(b[12:], "00a49"); return b }(), new(*errors.MalformedLeaderError)},
		{"base too small", func() []byte { b := good(); copy(b[12:], "00010"); return b }(), new(*errors.MalformedLeaderError)},
		{"base past end", func() []byte { b := good(); copy(b[12:], "09999"); return b }(), new(*errors.MalformedLeaderError)},
		{"directory not numeric", func() []byte { b := good(); b[24+4] = 'x'; return b }(), new(*errors.MalformedDirectoryError)},
		{"directory ragged", func() []byte {
			b := good()
			return append(b[:36:36], append([]byte("245"), b[36:]...)...)
		}(), new(*errors.MalformedDirectoryError)},
		{"field past end", func() []byte { b := good(); copy(b[24+12+7:], "00900"); return b }(), new(*errors.FieldBoundaryError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, &Options{Quiet: true})
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.As(err, tt.target) {
				t.Errorf("error %T (%v) is not %T", err, err, tt.target)
			}
			if !errors.Is(err, errors.ErrMalformedRecord) {
				t.Errorf("error %v does not wrap ErrMalformedRecord", err)
			}
		})
	}
}

func TestDecodeUTF8Handling(t *testing.T) {
	data := rawRecord('a', rawField{"245", "00\x1faBad \xff byte"})
	tests := []struct {
		handling UTF8Handling
		want     string
	}{
		{UTF8Replace, "Bad \uFFFD byte"},
		{UTF8Ignore, "Bad  byte"},
	}
	for _, tt := range tests {
		t.Run(tt.handling.String(), func(t *testing.T) {
			c := &marc.Collector{}
			rec, err := Decode(data, &Options{Diagnostics: c.Handle, UTF8Handling: tt.handling})
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got := rec.Value("245", 'a'); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if c.Count(marc.DiagInvalidUTF8) != 1 {
				t.Errorf("diagnostics = %v", c.Diagnostics)
			}
		})
	}

	_, err := Decode(data, &Options{Quiet: true, UTF8Handling: UTF8Strict})
	var encErr *errors.EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("strict: got %v, want EncodingError", err)
	}
	if encErr.Tag != "245" {
		t.Errorf("EncodingError.Tag = %q", encErr.Tag)
	}
}

func TestDecodeCharsetOptions(t *testing.T) {
	utf8Text := rawRecord(' ', rawField{"245", "00\x1faCaf\u00e9"})
	rec, err := Decode(utf8Text, &Options{Quiet: true, ForceUTF8: true})
	if err != nil {
		t.Fatalf("ForceUTF8: %v", err)
	}
	if got := rec.Value("245", 'a'); got != "Caf\u00e9" {
		t.Errorf("ForceUTF8: got %q", got)
	}

	latin1 := rawRecord(' ', rawField{"245", "00\x1faCaf\xe9"})
	rec, err = Decode(latin1, &Options{Quiet: true, Charset: charmap.ISO8859_1})
	if err != nil {
		t.Fatalf("Charset: %v", err)
	}
	if got := rec.Value("245", 'a'); got != "Caf\u00e9" {
		t.Errorf("Charset: got %q", got)
	}
}

func TestDecodeNormalize(t *testing.T) {
	data := rawRecord(' ', rawField{"245", "00\x1faCaf\xe2e"})
	rec, err := Decode(data, &Options{Quiet: true, Normalize: marc8.FormNFC})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := rec.Value("245", 'a'); got != "Caf\u00e9" {
		t.Errorf("got %q, want precomposed", got)
	}
}

func TestParseUTF8Handling(t *testing.T) {
	tests := []struct {
		in      string
		want    UTF8Handling
		wantErr bool
	}{
		{"", UTF8Replace, false},
		{"Strict", UTF8Strict, false},
		{" ignore ", UTF8Ignore, false},
		{"drop", UTF8Replace, true},
	}
	for _, tt := range tests {
		got, err := ParseUTF8Handling(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseUTF8Handling(%q) = %v, %v", tt.in, got, err)
		}
	}
}
