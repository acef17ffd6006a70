package main

import (
	"fmt"
	"io"
	"time"

	"github.com/FocuswithJustin/JuniperMARC/core/batch"
	"github.com/FocuswithJustin/JuniperMARC/core/errors"
	"github.com/FocuswithJustin/JuniperMARC/core/iso2709"
	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/FocuswithJustin/JuniperMARC/core/marc8"
	"github.com/FocuswithJustin/JuniperMARC/core/marcxml"
	"github.com/FocuswithJustin/JuniperMARC/core/mrk"
	"github.com/FocuswithJustin/JuniperMARC/internal/digest"
	"github.com/FocuswithJustin/JuniperMARC/internal/logging"
	"github.com/FocuswithJustin/JuniperMARC/internal/source"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ReadFlags configure how input records are decoded.
type ReadFlags struct {
	Inputs    []string `arg:"" optional:"" help:"Input files, - for stdin (default: stdin)"`
	From      string   `default:"auto" enum:"auto,iso2709,xml,mrk" help:"Input format (${enum})"`
	Strict    bool     `help:"Fail records with invalid UTF-8 or XML attributes instead of repairing them"`
	Quiet     bool     `short:"q" help:"Suppress diagnostics"`
	ForceUTF8 bool     `name:"force-utf8" help:"Treat binary records as UTF-8 whatever leader position 9 says"`
	Latin1    bool     `help:"Decode non-Unicode binary records as ISO-8859-1 instead of MARC-8"`
	NFC       bool     `name:"nfc" help:"Normalize decoded text to NFC"`
}

func (f *ReadFlags) inputs() []string {
	if len(f.Inputs) == 0 {
		return []string{source.Stdio}
	}
	return f.Inputs
}

// readerFunc picks the codec for one opened source.
func (f *ReadFlags) readerFunc(g *Globals, src *source.Reader) (batch.ReaderFunc, error) {
	format, err := source.ParseFormat(f.From)
	if err != nil {
		return nil, err
	}
	if format == source.FormatAuto {
		format = src.Format()
	}

	var diag marc.DiagnosticHandler = g.diagnostic
	form := marc8.FormNone
	if f.NFC {
		form = marc8.FormNFC
	}

	switch format {
	case source.FormatISO2709:
		opts := &iso2709.Options{
			Quiet:       f.Quiet,
			Diagnostics: diag,
			ForceUTF8:   f.ForceUTF8,
			Normalize:   form,
			Tables:      g.tables,
		}
		if f.Strict {
			opts.UTF8Handling = iso2709.UTF8Strict
		}
		if f.Latin1 {
			opts.Charset = charmap.ISO8859_1
		}
		return batch.ISO2709(opts), nil
	case source.FormatXML:
		return batch.XML(&marcxml.Options{Strict: f.Strict, Quiet: f.Quiet, Diagnostics: diag, Normalize: form}), nil
	case source.FormatMnemonic:
		return batch.Mnemonic(&mrk.Options{Quiet: f.Quiet, Diagnostics: diag, Normalize: form}), nil
	}
	return nil, fmt.Errorf("%s: cannot detect the record format; use --from", src.Name())
}

// stats summarises a run over all inputs.
type stats struct {
	records  int
	failures int
	sources  map[string]int
}

// each calls fn for every record of every input. Record failures are logged
// and counted; a source that cannot be read further is logged and skipped.
// An error from fn stops the run.
func (f *ReadFlags) each(g *Globals, operation string, fn func(name string, rec *marc.Record) error) (*stats, error) {
	ctx := g.context()
	start := time.Now()
	st := &stats{sources: make(map[string]int)}

	for _, path := range f.inputs() {
		src, err := openInput(g, path)
		if err != nil {
			return st, err
		}
		err = func() error {
			defer src.Close()
			format, err := f.readerFunc(g, src)
			if err != nil {
				return err
			}
			rr, err := format(src)
			if err != nil {
				return err
			}
			index := 0
			for rec, err := range batch.Records(rr) {
				index++
				if err != nil {
					st.failures++
					if errors.IsUnrecoverable(err) {
						logging.ErrorContext(ctx, "source_abandoned", "source", src.Name(), "error", err.Error())
						return nil
					}
					logging.RecordError(ctx, src.Name(), index, err)
					continue
				}
				st.records++
				st.sources[src.Name()]++
				if err := fn(src.Name(), rec); err != nil {
					return err
				}
			}
			return nil
		}()
		if err != nil {
			return st, err
		}
	}

	logging.BatchSummary(ctx, operation, st.records, st.failures, time.Since(start),
		"sources", len(f.inputs()), "diagnostics", g.diagnostics)
	return st, nil
}

func openInput(g *Globals, path string) (*source.Reader, error) {
	if path == source.Stdio && g.stdin != nil {
		return source.NewReader("stdin", g.stdin, nil)
	}
	return source.Open(path)
}

// WriteFlags configure the output stream.
type WriteFlags struct {
	Out       string `short:"o" default:"-" help:"Output file, - for stdout; .xz and .gz compress"`
	To        string `default:"iso2709" enum:"iso2709,xml,mrk" help:"Output format (${enum})"`
	Namespace bool   `help:"Declare the MARC21 slim namespace on XML output"`
	Indent    bool   `help:"Indent XML output"`
	Unicode   bool   `help:"Mark binary output as UTF-8 (leader position 9) instead of keeping each record's coding"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type recordWriter interface {
	Write(rec *marc.Record) error
	Count() int
	Close() error
}

// output opens the destination and the record writer over it. Closing the
// returned writer does not close the destination.
func (w *WriteFlags) output(g *Globals) (recordWriter, io.Closer, error) {
	var dst io.Writer
	var closer io.Closer = nopCloser{}
	if w.Out == source.Stdio || w.Out == "" {
		dst = g.out()
	} else {
		f, err := source.Create(w.Out)
		if err != nil {
			return nil, nil, err
		}
		dst, closer = f, f
	}

	format, err := source.ParseFormat(w.To)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	switch format {
	case source.FormatXML:
		return marcxml.NewWriter(dst, &marcxml.WriteOptions{Namespace: w.Namespace, Indent: w.Indent, Diagnostics: g.diagnostic}), closer, nil
	case source.FormatMnemonic:
		return mrk.NewWriter(dst), closer, nil
	default:
		return iso2709.NewWriter(dst, &iso2709.Options{Tables: g.tables, Diagnostics: g.diagnostic}), closer, nil
	}
}

func (w *WriteFlags) prepare(rec *marc.Record) *marc.Record {
	if w.Unicode && !rec.Leader.IsUnicode() {
		rec.Leader.SetCharacterCoding(marc.CodingUnicode)
	}
	return rec
}

func closeAll(rw recordWriter, dst io.Closer) error {
	err := rw.Close()
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return err
}

// ConvertCmd converts records between formats.
type ConvertCmd struct {
	ReadFlags
	WriteFlags
}

func (c *ConvertCmd) Run(g *Globals) error {
	rw, dst, err := c.output(g)
	if err != nil {
		return err
	}
	st, err := c.each(g, "convert", func(_ string, rec *marc.Record) error {
		return rw.Write(c.prepare(rec))
	})
	if cerr := closeAll(rw, dst); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	logging.InfoContext(g.context(), "converted", "records", rw.Count(), "failures", st.failures, "to", c.To)
	return nil
}

// DumpCmd prints records in mnemonic form.
type DumpCmd struct {
	ReadFlags
	Tags []string `short:"t" sep:"," help:"Only print fields with these tags"`
}

func (c *DumpCmd) Run(g *Globals) error {
	out := g.out()
	_, err := c.each(g, "dump", func(_ string, rec *marc.Record) error {
		if len(c.Tags) > 0 {
			filtered := &marc.Record{Leader: rec.Leader}
			filtered.AddField(rec.GetFields(c.Tags...)...)
			rec = filtered
		}
		_, err := fmt.Fprintln(out, rec.String())
		return err
	})
	return err
}

// CountCmd counts records per source.
type CountCmd struct {
	ReadFlags
}

func (c *CountCmd) Run(g *Globals) error {
	st, err := c.each(g, "count", func(string, *marc.Record) error { return nil })
	if err != nil {
		return err
	}
	out := g.out()
	for _, path := range c.inputs() {
		name := path
		if path == source.Stdio {
			name = "stdin"
		}
		fmt.Fprintf(out, "%d\t%s\n", st.sources[name], name)
	}
	if len(c.inputs()) > 1 {
		fmt.Fprintf(out, "%d\ttotal\n", st.records)
	}
	if st.failures > 0 {
		fmt.Fprintf(out, "%d\tfailed\n", st.failures)
	}
	return nil
}

// DedupeCmd keeps the first copy of every distinct record.
type DedupeCmd struct {
	ReadFlags
	WriteFlags
	IgnoreTags []string `name:"ignore-tags" sep:"," default:"005" help:"Tags left out of the comparison"`
}

func (c *DedupeCmd) Run(g *Globals) error {
	rw, dst, err := c.output(g)
	if err != nil {
		return err
	}
	set := digest.NewSet(&digest.Options{IgnoreTags: c.IgnoreTags})
	ctx := g.context()
	index := 0
	dups := 0
	_, err = c.each(g, "dedupe", func(name string, rec *marc.Record) error {
		index++
		first, dup := set.Add(rec)
		if dup {
			dups++
			logging.LoggerFromContext(ctx).Debug("duplicate_record",
				"source", name, "record", index, "first", first+1)
			return nil
		}
		return rw.Write(c.prepare(rec))
	})
	if cerr := closeAll(rw, dst); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	logging.InfoContext(ctx, "deduplicated", "kept", rw.Count(), "duplicates", dups)
	return nil
}

// Marc8Cmd converts raw text between MARC-8 and UTF-8.
type Marc8Cmd struct {
	Input  string `arg:"" optional:"" default:"-" help:"Input file, - for stdin"`
	Out    string `short:"o" default:"-" help:"Output file, - for stdout"`
	Encode bool   `help:"Convert UTF-8 to MARC-8 instead"`
	NFC    bool   `name:"nfc" help:"Normalize decoded text to NFC (ignored with --encode)"`
	Quiet  bool   `short:"q" help:"Suppress diagnostics"`
}

func (c *Marc8Cmd) Run(g *Globals) error {
	src, err := openInput(g, c.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	var dst io.Writer = g.out()
	var closer io.Closer = nopCloser{}
	if c.Out != source.Stdio {
		f, err := source.Create(c.Out)
		if err != nil {
			return err
		}
		dst, closer = f, f
	}

	opts := &marc8.Options{Tables: g.tables, Quiet: c.Quiet, Diagnostics: g.diagnostic}
	var t transform.Transformer = marc8.NewTransformer(opts)
	switch {
	case c.Encode:
		t = marc8.NewEncodeTransformer(opts)
	case c.NFC:
		t = transform.Chain(t, norm.NFC)
	}
	_, err = io.Copy(dst, transform.NewReader(src, t))
	if cerr := closer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.NewIO("convert", src.Name(), err)
	}
	return nil
}
