// Package parser turns schema DSL text into a schema.Entity.
//
// The accepted language is a restricted subset of protobuf:
//
//	syntax = "proto3";
//	package game;
//	message Player { // @table(players)
//	    uint64 roleId = 1;       // @id
//	    int32 level = 2;
//	    repeated uint64 items;   // @fixed(8)
//	    repeated string tags;
//	}
//
// Annotations are read from comments that sit on the same line as the field
// or, for @table, on the message header line.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tordrt/entitygen/internal/schema"
)

const (
	annotationFixed = "fixed"
	annotationID    = "id"
	annotationTable = "table"
)

var (
	annotationRe = regexp.MustCompile(`@(\w+)(?:\(([^)]*)\))?`)
	tableNameRe  = regexp.MustCompile(`^[A-Za-z_][\w.]*$`)
)

type options struct {
	requireIdentifier bool
}

// Option configures Parse
type Option func(*options)

// RequireIdentifier makes Parse fail when no field is marked with @id
func RequireIdentifier() Option {
	return func(o *options) { o.requireIdentifier = true }
}

// ParseString parses schema text that did not come from a file
func ParseString(src string, opts ...Option) (*schema.Entity, error) {
	return Parse("", []byte(src), opts...)
}

// Parse parses one schema file into its entity
func Parse(filename string, src []byte, opts ...Option) (*schema.Entity, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	ast, err := newGrammar().ParseBytes(filename, src)
	if err != nil {
		return nil, wrapGrammarError(filename, err)
	}

	return buildEntity(filename, ast, cfg)
}

func buildEntity(filename string, ast *fileAST, cfg options) (*schema.Entity, error) {
	var msg *messageAST
	for _, entry := range ast.Entries {
		if entry.Message == nil {
			continue
		}
		if msg != nil {
			return nil, errorAt(entry.Message.Pos,
				"duplicate message %q: only one message per file is supported (%q declared at line %d)",
				entry.Message.Name, msg.Name, msg.Pos.Line)
		}
		msg = entry.Message
	}
	if msg == nil {
		return nil, &ParseError{Filename: filename, Msg: "no message declaration found"}
	}

	entity := &schema.Entity{Name: msg.Name}
	if msg.Header != nil {
		if err := applyEntityAnnotations(entity, msg.Header); err != nil {
			return nil, err
		}
	}

	for _, member := range msg.Members {
		switch {
		case member.Field != nil:
			field, err := buildField(member.Field)
			if err != nil {
				return nil, err
			}
			entity.Fields = append(entity.Fields, field)

		case member.Comment != nil:
			line := member.Comment.Pos.Line
			if len(entity.Fields) == 0 && line == msg.Pos.Line {
				if err := applyEntityAnnotations(entity, member.Comment); err != nil {
					return nil, err
				}
				continue
			}
			if n := len(entity.Fields); n > 0 && entity.Fields[n-1].Line == line {
				if err := applyFieldAnnotations(&entity.Fields[n-1], member.Comment); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := checkIdentifier(msg, entity, cfg); err != nil {
		return nil, err
	}

	return entity, nil
}

func buildField(f *fieldAST) (schema.Field, error) {
	// a field may be named repeated, but a type may not
	if f.Type == "repeated" {
		return schema.Field{}, errorAt(f.Pos, "malformed repeated field: expected 'repeated <type> <name>'")
	}

	field := schema.Field{
		SourceType:  f.Type,
		Name:        f.Name,
		Cardinality: schema.Single,
		Line:        f.Pos.Line,
	}
	if f.Repeated {
		field.Cardinality = schema.RepeatedDynamic
	}
	return field, nil
}

type annotation struct {
	name string
	arg  string
	set  bool // arg was given in parentheses
}

func annotations(text string) []annotation {
	var out []annotation
	for _, m := range annotationRe.FindAllStringSubmatchIndex(text, -1) {
		a := annotation{name: text[m[2]:m[3]]}
		if m[4] >= 0 {
			a.arg = strings.TrimSpace(text[m[4]:m[5]])
			a.set = true
		}
		out = append(out, a)
	}
	return out
}

func applyFieldAnnotations(field *schema.Field, c *commentAST) error {
	for _, a := range annotations(c.Text) {
		switch a.name {
		case annotationFixed:
			// @fixed only changes repeated fields
			if field.Cardinality == schema.Single {
				continue
			}
			n, err := strconv.Atoi(a.arg)
			if err != nil || n < 1 {
				return errorAt(c.Pos, "invalid @fixed(%s) on field %q: capacity must be a positive integer", a.arg, field.Name)
			}
			field.Cardinality = schema.RepeatedFixed
			field.Capacity = n

		case annotationID:
			if a.set {
				return errorAt(c.Pos, "@id on field %q takes no arguments", field.Name)
			}
			field.Identifier = true
		}
	}
	return nil
}

func applyEntityAnnotations(entity *schema.Entity, c *commentAST) error {
	for _, a := range annotations(c.Text) {
		if a.name != annotationTable {
			continue
		}
		if !tableNameRe.MatchString(a.arg) {
			return errorAt(c.Pos, "invalid @table(%s) on message %q", a.arg, entity.Name)
		}
		entity.Table = a.arg
	}
	return nil
}

func checkIdentifier(msg *messageAST, entity *schema.Entity, cfg options) error {
	var marked []string
	for _, f := range entity.Fields {
		if f.Identifier {
			marked = append(marked, f.Name)
		}
	}

	switch {
	case len(marked) > 1:
		return errorAt(msg.Pos, "message %q marks more than one identifier field with @id: %s",
			entity.Name, strings.Join(marked, ", "))
	case len(marked) == 0 && cfg.requireIdentifier:
		return errorAt(msg.Pos, "message %q has no field marked with @id", entity.Name)
	}
	return nil
}
