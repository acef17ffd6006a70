// Package encoding provides the text escaping shared by the XML and
// mnemonic record writers.
package encoding

import (
	"strings"
	"unicode/utf8"
)

// IsXMLChar reports whether r may appear in an XML 1.0 document.
func IsXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= utf8.MaxRune:
		return true
	}
	return false
}

// ValidXMLText reports whether s is valid UTF-8 made only of XML characters.
func ValidXMLText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !IsXMLChar(r) {
			return false
		}
	}
	return true
}

// EscapeXMLText escapes & < > for element content, and carriage returns
// as character references so parsers do not fold them. Characters XML cannot
// carry, such as leftover escape bytes, C0 controls or invalid UTF-8,
// become U+FFFD.
func EscapeXMLText(s string) string {
	return escapeXML(s, false)
}

// EscapeXMLAttr escapes text for a double quoted attribute value. Tabs and
// line breaks are written as character references so attribute value
// normalization does not turn them into spaces.
func EscapeXMLAttr(s string) string {
	return escapeXML(s, true)
}

func escapeXML(s string, attr bool) string {
	if !needsEscape(s, attr) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case attr && r == '"':
			b.WriteString("&quot;")
		case attr && r == '\t':
			b.WriteString("&#9;")
		case attr && r == '\n':
			b.WriteString("&#10;")
		case r == '\r':
			b.WriteString("&#13;")
		case !IsXMLChar(r):
			b.WriteRune(utf8.RuneError)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsEscape(s string, attr bool) bool {
	if !utf8.ValidString(s) {
		return true
	}
	for _, r := range s {
		switch {
		case r == '&' || r == '<' || r == '>' || r == '\r':
			return true
		case attr && (r == '"' || r == '\t' || r == '\n' || r == '\r'):
			return true
		case !IsXMLChar(r):
			return true
		}
	}
	return false
}

// Mnemonic text escapes, as used by MARCMaker style line formats.
var (
	mnemonicEscaper = strings.NewReplacer(
		"{", "{lcub}",
		"}", "{rcub}",
		"$", "{dollar}",
		`\`, "{bsol}",
	)
	mnemonicUnescaper = strings.NewReplacer(
		"{lcub}", "{",
		"{rcub}", "}",
		"{dollar}", "$",
		"{bsol}", `\`,
	)
)

// EscapeMnemonic protects the characters that delimit subfields and blanks
// in mnemonic text.
func EscapeMnemonic(s string) string {
	return mnemonicEscaper.Replace(s)
}

// UnescapeMnemonic reverses EscapeMnemonic. Unknown {names} are left as is.
func UnescapeMnemonic(s string) string {
	return mnemonicUnescaper.Replace(s)
}
