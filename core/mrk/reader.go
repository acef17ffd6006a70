package mrk

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/JuniperMARC/core/encoding"
	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/FocuswithJustin/JuniperMARC/core/marc8"
	"github.com/alecthomas/participle/v2"
)

const format = "mrk"

// maxLineLength bounds a single mnemonic line; a binary record cannot hold
// more than this.
const maxLineLength = 1 << 17

// Options configures the Reader. A nil *Options logs diagnostics.
type Options struct {
	Quiet       bool
	Diagnostics marc.DiagnosticHandler

	// Normalize is applied to every field value after unescaping.
	Normalize marc8.Form
}

func (o *Options) handler() marc.DiagnosticHandler {
	if o == nil {
		return marc.ResolveHandler(false, nil)
	}
	return marc.ResolveHandler(o.Quiet, o.Diagnostics)
}

func (o *Options) form() marc8.Form {
	if o == nil {
		return marc8.FormNone
	}
	return o.Normalize
}

// Reader pulls records from mnemonic text one block at a time.
type Reader struct {
	sc   *bufio.Scanner
	diag marc.DiagnosticHandler
	form marc8.Form
	line int

	// the =LDR line that ended the previous block
	next     string
	nextLine int

	done bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts *Options) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &Reader{sc: sc, diag: opts.handler(), form: opts.form()}
}

// Read returns the next record, or io.EOF once the input is exhausted. A
// block that does not parse yields a *errors.ParseError and reading moves
// on to the next block.
func (r *Reader) Read() (*marc.Record, error) {
	if r.done {
		return nil, io.EOF
	}
	var b strings.Builder
	start := 0
	if r.next != "" {
		b.WriteString(r.next)
		b.WriteByte('\n')
		start = r.nextLine
		r.next = ""
	}
	for r.sc.Scan() {
		r.line++
		text := r.sc.Text()
		if start == 0 {
			if strings.TrimSpace(text) == "" {
				continue
			}
			start = r.line
		} else if strings.HasPrefix(text, "=LDR") {
			r.next, r.nextLine = text, r.line
			break
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	if err := r.sc.Err(); err != nil {
		r.done = true
		return nil, errors.Unrecoverable(int64(r.line), errors.NewIO("read", "", err))
	}
	if start == 0 {
		r.done = true
		return nil, io.EOF
	}
	return r.parse(b.String(), start)
}

func (r *Reader) parse(text string, start int) (*marc.Record, error) {
	blk, err := parseBlock(format, text)
	if err != nil {
		pe := &errors.ParseError{Format: format, Line: start, Message: err.Error(), Err: err}
		var perr participle.Error
		if errors.As(err, &perr) {
			pe.Line = start + perr.Position().Line - 1
			pe.Message = perr.Message()
		}
		return nil, pe
	}

	rec := &marc.Record{}
	rec.Leader = r.leader(blk.Leader, start)
	for _, ln := range blk.Lines {
		if f := r.field(ln.Text, start+ln.Pos.Line-1); f != nil {
			rec.Fields = append(rec.Fields, f)
		}
	}
	return rec, nil
}

func (r *Reader) emit(kind marc.DiagnosticKind, tag string, line int, msg string) {
	r.diag.Emit(marc.Diagnostic{Kind: kind, Tag: tag, Offset: -1, Line: line, Message: msg})
}

// body returns the text after "=TAG" and the separating spaces.
func body(text string) string {
	if len(text) <= 4 {
		return ""
	}
	rest := text[4:]
	for i := 0; i < 2 && strings.HasPrefix(rest, " "); i++ {
		rest = rest[1:]
	}
	return rest
}

func blanks(s string) string {
	return strings.ReplaceAll(s, `\`, " ")
}

func (r *Reader) leader(text string, line int) marc.Leader {
	value := blanks(body(text))
	l, adjusted := marc.LeaderFromString(value)
	if adjusted {
		r.emit(marc.DiagLeaderLength, "", line,
			fmt.Sprintf("leader is %d bytes, want %d; padded or truncated", len(value), marc.LeaderLength))
	}
	return l
}

func (r *Reader) field(text string, line int) marc.Field {
	if len(text) < 4 {
		r.emit(marc.DiagMalformedTag, "", line, fmt.Sprintf("line %q has no tag; dropped", text))
		return nil
	}
	tag := text[1:4]
	rest := body(text)
	if marc.IsControlTag(tag) {
		return marc.NewControlField(tag, r.value(blanks(rest)))
	}

	k := strings.IndexByte(rest, '$')
	if k < 0 {
		k = len(rest)
	}
	ind := [2]byte{' ', ' '}
	if k != 2 {
		r.emit(marc.DiagIndicatorCount, tag, line, fmt.Sprintf("%d indicator character(s)", k))
	}
	copy(ind[:], blanks(rest[:k]))
	f := marc.NewDataField(tag, ind[0], ind[1])

	for i, chunk := range strings.Split(rest[k:], "$") {
		if i == 0 || chunk == "" {
			continue
		}
		f.Subfields = append(f.Subfields, marc.Subfield{Code: chunk[0], Value: r.value(chunk[1:])})
	}
	return f
}

func (r *Reader) value(s string) string {
	return r.form.Apply(encoding.UnescapeMnemonic(s))
}
