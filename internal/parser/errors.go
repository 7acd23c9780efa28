package parser

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrParse is matched by every *ParseError
var ErrParse = errors.New("parse error")

// ParseError reports a schema that cannot be turned into an entity
type ParseError struct {
	Filename string
	Line     int
	Column   int
	Msg      string
}

func (e *ParseError) Error() string {
	name := e.Filename
	if name == "" {
		name = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", name, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s: %s", name, e.Msg)
}

// Is reports whether target is ErrParse
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func errorAt(pos lexer.Position, format string, args ...any) *ParseError {
	return &ParseError{
		Filename: pos.Filename,
		Line:     pos.Line,
		Column:   pos.Column,
		Msg:      fmt.Sprintf(format, args...),
	}
}

// wrapGrammarError converts participle lexer and grammar failures into a *ParseError
func wrapGrammarError(filename string, err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &ParseError{
			Filename: filename,
			Line:     pos.Line,
			Column:   pos.Column,
			Msg:      perr.Message(),
		}
	}
	return &ParseError{Filename: filename, Msg: err.Error()}
}
