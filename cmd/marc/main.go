// Command marc converts, inspects and de-duplicates MARC21 records in
// binary, MARCXML and mnemonic form.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/FocuswithJustin/JuniperMARC/core/marc"
	"github.com/FocuswithJustin/JuniperMARC/core/marc8"
	"github.com/FocuswithJustin/JuniperMARC/internal/logging"
	"github.com/alecthomas/kong"
	"github.com/google/uuid"
)

const version = "0.1.0"

// Globals holds flags and state shared by every command.
type Globals struct {
	LogLevel   string `name:"log-level" default:"warn" enum:"debug,info,warn,error" env:"MARC_LOG_LEVEL" help:"Log level (${enum})"`
	LogFormat  string `name:"log-format" default:"text" enum:"text,json" env:"MARC_LOG_FORMAT" help:"Log format (${enum})"`
	CodeTables string `name:"code-tables" type:"existingfile" help:"Library of Congress codetables.xml extending the MARC-8 character sets"`

	ctx         context.Context
	stdin       io.Reader
	stdout      io.Writer
	tables      *marc8.Tables
	diagnostics int
}

// CLI defines the command-line interface for marc.
var CLI struct {
	Globals

	Convert ConvertCmd `cmd:"" help:"Convert records between formats"`
	Dump    DumpCmd    `cmd:"" help:"Print records in readable mnemonic form"`
	Count   CountCmd   `cmd:"" help:"Count records per source"`
	Dedupe  DedupeCmd  `cmd:"" help:"Write the first copy of every distinct record"`
	Marc8   Marc8Cmd   `cmd:"" name:"marc8" help:"Convert text between MARC-8 and UTF-8"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// setup prepares logging, the run ID and the MARC-8 tables.
func (g *Globals) setup(ctx context.Context) error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)

	g.ctx = logging.WithRunID(ctx, uuid.NewString())
	if g.stdin == nil {
		g.stdin = os.Stdin
	}
	if g.stdout == nil {
		g.stdout = os.Stdout
	}

	if g.CodeTables != "" {
		f, err := os.Open(g.CodeTables)
		if err != nil {
			return fmt.Errorf("open code tables: %w", err)
		}
		defer f.Close()
		if g.tables, err = marc8.LoadCodeTables(f); err != nil {
			return err
		}
	}
	return nil
}

func (g *Globals) context() context.Context {
	if g.ctx == nil {
		return context.Background()
	}
	return g.ctx
}

func (g *Globals) out() io.Writer {
	if g.stdout == nil {
		return os.Stdout
	}
	return g.stdout
}

// diagnostic counts and logs a codec diagnostic.
func (g *Globals) diagnostic(d marc.Diagnostic) {
	g.diagnostics++
	marc.LogDiagnostic(d)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.out(), "marc version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("marc"),
		kong.Description("MARC21 record conversion and inspection"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(CLI.Globals.setup(context.Background()))
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
