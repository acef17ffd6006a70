package marc8

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzDecode checks that arbitrary bytes decode to valid UTF-8 without panicking.
func FuzzDecode(f *testing.F) {
	f.Add([]byte("plain ascii"))
	f.Add([]byte("caf\xe2e"))
	f.Add([]byte("\x1b(NDOSTOEWSKIJ\x1b(B"))
	f.Add([]byte("\x1b$1\x21\x30\x21"))
	f.Add([]byte("\x1b$1\x21"))
	f.Add([]byte("\x1b"))
	f.Add([]byte("\xe2\xe3"))
	f.Add([]byte("&#x4E00;&#xD800;"))

	f.Fuzz(func(t *testing.T, data []byte) {
		out := ToUnicode(data, &Options{Quiet: true})
		if !utf8.ValidString(out) {
			t.Errorf("ToUnicode(%q) produced invalid UTF-8 %q", data, out)
		}
	})
}

// FuzzRoundTrip checks that encoding valid text and decoding it again gives
// back the same text up to canonical equivalence. Text that already contains
// character reference syntax has no single MARC-8 form and is skipped.
func FuzzRoundTrip(f *testing.F) {
	f.Add("Mirosław")
	f.Add("café")
	f.Add("Достоевский")
	f.Add("H₂O")
	f.Add("一☃")
	f.Add("\u0301a")

	f.Fuzz(func(t *testing.T, s string) {
		if !utf8.ValidString(s) || strings.Contains(s, "&#") {
			return
		}
		opts := &Options{Quiet: true, Normalize: FormNFC}
		got := ToUnicode(FromUnicode(s, opts), opts)
		if want := FormNFC.Apply(s); got != want {
			t.Errorf("round trip %q = %q, want %q", s, got, want)
		}
	})
}
