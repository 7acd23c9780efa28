package emitter

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/tordrt/entitygen/internal/schema"
	"github.com/tordrt/entitygen/internal/sqlgen"
	"github.com/tordrt/entitygen/internal/typemap"
)

type goEmitter struct {
	opts  Options
	types typemap.Mapping
}

func newGoEmitter(opts Options, types typemap.Mapping) *goEmitter {
	return &goEmitter{opts: opts, types: types}
}

func (g *goEmitter) Language() string      { return TargetGo }
func (g *goEmitter) FileExtension() string { return ".go" }

// Emit renders a Go file with the entity struct and its persistence methods
func (g *goEmitter) Emit(e *schema.Entity, table string) ([]byte, error) {
	typeName := TypeName(e, g.opts.Suffix)
	frags := sqlgen.Build(e, g.opts.Dialect.Placeholder())
	saveSQL := sqlgen.Upsert(g.opts.Dialect, table, g.opts.KeyColumn, frags)
	deleteSQL := sqlgen.SoftDelete(g.opts.Dialect, table, g.opts.DeleteFlag, g.opts.KeyColumn, g.opts.Dialect.Placeholder()(0))

	f := jen.NewFile(g.opts.Package)
	f.HeaderComment("Code generated by entitygen. DO NOT EDIT.")

	f.Commentf("%s is generated from the %s message.", typeName, e.Name)
	f.Type().Id(typeName).StructFunc(func(grp *jen.Group) {
		for _, field := range e.Fields {
			grp.Id(exportedName(field.Name)).Add(g.declaredType(field)).Tag(map[string]string{"db": field.Name})
		}
	})

	receiver := jen.Id("o").Op("*").Id(typeName)
	ctxParam := jen.Id("ctx").Qual("context", "Context")
	dbParam := jen.Id("db").Op("*").Qual("database/sql", "DB")

	f.Commentf("Save replaces or inserts the row in %s and reports whether a row was affected.", table)
	f.Func().Params(receiver.Clone()).Id("Save").Params(ctxParam.Clone(), dbParam.Clone()).
		Params(jen.Bool(), jen.Error()).
		BlockFunc(func(grp *jen.Group) {
			args := []jen.Code{jen.Id("ctx"), jen.Id("db"), jen.Lit(saveSQL)}
			for _, field := range e.Fields {
				member := jen.Id("o").Dot(exportedName(field.Name))
				if field.Cardinality == schema.Single {
					args = append(args, member)
					continue
				}
				// sequences are stored as JSON documents
				local := inflect.CamelizeDownFirst(field.Name) + "JSON"
				grp.List(jen.Id(local), jen.Err()).Op(":=").Qual("encoding/json", "Marshal").Call(member)
				grp.If(jen.Err().Op("!=").Nil()).Block(
					jen.Return(jen.False(), jen.Qual("fmt", "Errorf").Call(jen.Lit("failed to encode "+field.Name+": %w"), jen.Err())),
				)
				args = append(args, jen.Id(local))
			}
			grp.Return(jen.Id("o").Dot("exec").Call(args...))
		})

	identifier, declared := e.Identifier(g.opts.IdentifierField)
	deleteParams := []jen.Code{ctxParam.Clone(), dbParam.Clone()}
	key := jen.Id("o").Dot(exportedName(identifier))
	if !declared {
		// the entity has no identifier member, so the caller supplies the key
		deleteParams = append(deleteParams, jen.Id(identifier).Interface())
		key = jen.Id(identifier)
	}

	f.Commentf("Delete flags the row in %s as deleted and reports whether a row was affected.", table)
	f.Func().Params(receiver.Clone()).Id("Delete").Params(deleteParams...).
		Params(jen.Bool(), jen.Error()).
		Block(
			jen.Return(jen.Id("o").Dot("exec").Call(jen.Id("ctx"), jen.Id("db"), jen.Lit(deleteSQL), key)),
		)

	f.Func().Params(receiver.Clone()).Id("exec").
		Params(ctxParam.Clone(), dbParam.Clone(), jen.Id("query").String(), jen.Id("args").Op("...").Interface()).
		Params(jen.Bool(), jen.Error()).
		Block(
			jen.List(jen.Id("res"), jen.Err()).Op(":=").Id("db").Dot("ExecContext").Call(jen.Id("ctx"), jen.Id("query"), jen.Id("args").Op("...")),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.False(), jen.Err())),
			jen.List(jen.Id("n"), jen.Err()).Op(":=").Id("res").Dot("RowsAffected").Call(),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.False(), jen.Err())),
			jen.Return(jen.Id("n").Op(">").Lit(0), jen.Nil()),
		)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", typeName, err)
	}
	return buf.Bytes(), nil
}

func (g *goEmitter) declaredType(f schema.Field) jen.Code {
	scalar, _ := g.types.Resolve(f.SourceType)
	switch f.Cardinality {
	case schema.RepeatedFixed:
		return jen.Index(jen.Lit(f.Capacity)).Id(scalar)
	case schema.RepeatedDynamic:
		return jen.Index().Id(scalar)
	default:
		return jen.Id(scalar)
	}
}

// exportedName returns the struct member for a field. Names clashing with the
// generated methods get a Field suffix.
func exportedName(name string) string {
	n := inflect.Camelize(name)
	switch n {
	case "Save", "Delete":
		return n + "Field"
	}
	return n
}
