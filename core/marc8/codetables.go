package marc8

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var (
	codeTableExpr = xpath.MustCompile("//codeTable")
	codeExpr      = xpath.MustCompile(".//code")
)

// LoadCodeTables reads the Library of Congress codetables.xml document and
// returns the built-in tables extended with every set it defines. Each
// codeTable's number attribute is the hexadecimal final byte of its escape
// sequence; each code maps a marc value to a ucs (or alt) code point.
func LoadCodeTables(r io.Reader) (*Tables, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, &errors.ParseError{Format: "codetables", Message: err.Error(), Err: err}
	}

	var sets []*Charset
	for _, table := range xmlquery.QuerySelectorAll(doc, codeTableExpr) {
		cs, err := parseCodeTable(table)
		if err != nil {
			return nil, err
		}
		if cs.Len() > 0 {
			sets = append(sets, cs)
		}
	}
	if len(sets) == 0 {
		return nil, errors.NewParse("codetables", 0, "no codeTable elements with codes")
	}
	return DefaultTables().Extend(sets...), nil
}

func parseCodeTable(table *xmlquery.Node) (*Charset, error) {
	number := table.SelectAttr("number")
	final, err := strconv.ParseUint(number, 16, 8)
	if err != nil {
		return nil, errors.NewParse("codetables", table.LineNumber,
			fmt.Sprintf("codeTable %q has invalid number %q", table.SelectAttr("name"), number))
	}
	cs := newCharset(byte(final), table.SelectAttr("name"), false)

	for _, code := range xmlquery.QuerySelectorAll(table, codeExpr) {
		marcHex := childText(code, "marc")
		ucsHex := childText(code, "ucs")
		if ucsHex == "" {
			ucsHex = childText(code, "alt")
		}
		if marcHex == "" || ucsHex == "" {
			continue
		}
		key, err := strconv.ParseUint(marcHex, 16, 32)
		if err != nil {
			return nil, errors.NewParse("codetables", code.LineNumber, fmt.Sprintf("invalid marc value %q", marcHex))
		}
		r, err := strconv.ParseUint(ucsHex, 16, 32)
		if err != nil {
			return nil, errors.NewParse("codetables", code.LineNumber, fmt.Sprintf("invalid ucs value %q", ucsHex))
		}
		if len(marcHex) > 2 {
			cs.Multibyte = true
			key &= 0x7F7F7F
		} else {
			key &= 0x7F
		}
		cs.set(uint32(key), rune(r), childText(code, "isCombining") == "true")
	}
	return cs, nil
}

func childText(n *xmlquery.Node, name string) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			return strings.TrimSpace(c.InnerText())
		}
	}
	return ""
}
