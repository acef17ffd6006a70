package mrk

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// block is one record's worth of lines.
type block struct {
	Leader string  `@Leader`
	Lines  []*line `@@*`
}

type line struct {
	Pos  lexer.Position
	Text string `@Line`
}

// mnemonicLexer splits a block into lines. Anything that is neither a
// field line nor whitespace is a lexing error.
var mnemonicLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Leader", Pattern: `=LDR[^\r\n]*`},
	{Name: "Line", Pattern: `=[^\r\n]*`},
	{Name: "Newline", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

var blockParser = participle.MustBuild[block](
	participle.Lexer(mnemonicLexer),
	participle.Elide("Newline", "Whitespace"),
)

func parseBlock(name, text string) (*block, error) {
	return blockParser.ParseString(name, text)
}
