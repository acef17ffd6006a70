package marc8

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// LC's lossless conversion writes characters outside MARC-8 as hexadecimal
// numeric character references.
var ncrPattern = regexp.MustCompile(`&#x([0-9A-Fa-f]{4,6});`)

func unescapeNCR(s string) string {
	if !strings.Contains(s, "&#x") {
		return s
	}
	return ncrPattern.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseUint(m[3:len(m)-1], 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return m
		}
		return string(rune(n))
	})
}

func ncr(r rune) string {
	return fmt.Sprintf("&#x%04X;", r)
}
