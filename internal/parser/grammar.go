package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var schemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*[\s\S]*?\*/`},
	{Name: "String", Pattern: `"(\\"|[^"])*"|'(\\'|[^'])*'`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][\w.]*`},
	{Name: "Punct", Pattern: `[{};=]`},
	{Name: "Whitespace", Pattern: `[ \r\n\t]+`},
})

type fileAST struct {
	Entries []*entryAST `parser:"@@*"`
}

type entryAST struct {
	Syntax  *syntaxAST  `parser:"  @@"`
	Package *packageAST `parser:"| @@"`
	Message *messageAST `parser:"| @@"`
	Comment *commentAST `parser:"| @@"`
}

type syntaxAST struct {
	Version string `parser:"'syntax' '=' @String ';'?"`
}

type packageAST struct {
	Name string `parser:"'package' @Ident ';'?"`
}

type messageAST struct {
	Pos     lexer.Position
	Name    string       `parser:"'message' @Ident"`
	Header  *commentAST  `parser:"@@? '{'"`
	Members []*memberAST `parser:"@@* '}' ';'?"`
}

type memberAST struct {
	Field   *fieldAST   `parser:"  @@"`
	Comment *commentAST `parser:"| @@"`
}

type fieldAST struct {
	Pos      lexer.Position
	Repeated bool   `parser:"@'repeated'?"`
	Type     string `parser:"@Ident"`
	Name     string `parser:"@Ident"`
	Number   *int   `parser:"('=' @Int)? ';'?"`
}

type commentAST struct {
	Pos  lexer.Position
	Text string `parser:"@Comment"`
}

func newGrammar() *participle.Parser[fileAST] {
	return participle.MustBuild[fileAST](
		participle.Lexer(schemaLexer),
		participle.Elide("Whitespace"),
	)
}
