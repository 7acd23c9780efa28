package emitter

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/tordrt/entitygen/internal/schema"
	"github.com/tordrt/entitygen/internal/sqlgen"
	"github.com/tordrt/entitygen/internal/typemap"
)

//go:embed templates/*
var templatesFS embed.FS

type cppEmitter struct {
	opts  Options
	types typemap.Mapping
	tmpl  *template.Template
}

type cppField struct {
	Type string
	Name string
}

type cppHeader struct {
	DBHeader   string
	Executor   string
	Namespace  string
	StructName string
	BaseClass  string
	Fields     []cppField
	SaveSQL    string
	Values     string
	DeleteSQL  string
	Identifier string
}

func newCPPEmitter(opts Options, types typemap.Mapping) (*cppEmitter, error) {
	tmpl, err := template.New("header.h.tmpl").Option("missingkey=error").ParseFS(templatesFS, "templates/header.h.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse header template: %w", err)
	}
	return &cppEmitter{opts: opts, types: types, tmpl: tmpl}, nil
}

func (c *cppEmitter) Language() string      { return TargetCPP }
func (c *cppEmitter) FileExtension() string { return ".h" }

// Emit renders the header declaring the entity struct
func (c *cppEmitter) Emit(e *schema.Entity, table string) ([]byte, error) {
	frags := sqlgen.Build(e, sqlgen.Brace)
	identifier, _ := e.Identifier(c.opts.IdentifierField)

	data := cppHeader{
		DBHeader:   "cfl/db/db_mysql.h",
		Executor:   "cfl::db::MySQLUtil",
		Namespace:  c.opts.Namespace,
		StructName: TypeName(e, c.opts.Suffix),
		BaseClass:  c.opts.BaseClass,
		Fields:     make([]cppField, 0, len(e.Fields)),
		SaveSQL:    sqlgen.Upsert(c.opts.Dialect, table, c.opts.KeyColumn, frags),
		Values:     frags.ValueList(),
		DeleteSQL:  sqlgen.SoftDelete(c.opts.Dialect, table, c.opts.DeleteFlag, c.opts.KeyColumn, sqlgen.Brace(0)),
		Identifier: identifier,
	}
	if c.opts.Dialect == sqlgen.SQLite {
		data.DBHeader = "cfl/db/db_sqlite.h"
		data.Executor = "cfl::db::SQLiteUtil"
	}

	for _, f := range e.Fields {
		data.Fields = append(data.Fields, cppField{Type: c.declaredType(f), Name: f.Name})
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", data.StructName, err)
	}
	return buf.Bytes(), nil
}

func (c *cppEmitter) declaredType(f schema.Field) string {
	scalar, _ := c.types.Resolve(f.SourceType)
	switch f.Cardinality {
	case schema.RepeatedFixed:
		return fmt.Sprintf("std::array<%s, %d>", scalar, f.Capacity)
	case schema.RepeatedDynamic:
		return fmt.Sprintf("std::vector<%s>", scalar)
	default:
		return scalar
	}
}
