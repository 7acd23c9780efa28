package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/entitygen/internal/schema"
)

const playerSchema = `syntax = "proto3";
package game.data;

message Player {
    int32 level;
    repeated uint64 items; // @fixed(8)
    string nickname;
}
`

func TestParsePlayer(t *testing.T) {
	entity, err := ParseString(playerSchema)
	require.NoError(t, err)

	assert.Equal(t, "Player", entity.Name)
	assert.Empty(t, entity.Table)
	assert.Equal(t, []schema.Field{
		{SourceType: "int32", Name: "level", Cardinality: schema.Single, Line: 5},
		{SourceType: "uint64", Name: "items", Cardinality: schema.RepeatedFixed, Capacity: 8, Line: 6},
		{SourceType: "string", Name: "nickname", Cardinality: schema.Single, Line: 7},
	}, entity.Fields)
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []schema.Field
	}{
		{
			name: "dynamic repeated field",
			src:  "message M {\n repeated string tags;\n}",
			want: []schema.Field{
				{SourceType: "string", Name: "tags", Cardinality: schema.RepeatedDynamic, Line: 2},
			},
		},
		{
			name: "fixed annotation with spaces",
			src:  "message M {\n repeated int64 slots; // capacity @fixed( 4 ) slots\n}",
			want: []schema.Field{
				{SourceType: "int64", Name: "slots", Cardinality: schema.RepeatedFixed, Capacity: 4, Line: 2},
			},
		},
		{
			name: "fixed annotation ignored on scalar field",
			src:  "message M {\n int32 level; // @fixed(3)\n}",
			want: []schema.Field{
				{SourceType: "int32", Name: "level", Cardinality: schema.Single, Line: 2},
			},
		},
		{
			name: "annotation on the next line does not apply",
			src:  "message M {\n repeated int32 a;\n // @fixed(3)\n}",
			want: []schema.Field{
				{SourceType: "int32", Name: "a", Cardinality: schema.RepeatedDynamic, Line: 2},
			},
		},
		{
			name: "field numbers and missing terminators",
			src:  "message M {\n uint64 roleId = 1\n bool online = 2;\n}",
			want: []schema.Field{
				{SourceType: "uint64", Name: "roleId", Cardinality: schema.Single, Line: 2},
				{SourceType: "bool", Name: "online", Cardinality: schema.Single, Line: 3},
			},
		},
		{
			name: "custom types pass through",
			src:  "message M {\n ItemObject main;\n repeated game.Item bag; // @fixed(2)\n}",
			want: []schema.Field{
				{SourceType: "ItemObject", Name: "main", Cardinality: schema.Single, Line: 2},
				{SourceType: "game.Item", Name: "bag", Cardinality: schema.RepeatedFixed, Capacity: 2, Line: 3},
			},
		},
		{
			name: "identifier annotation",
			src:  "message M {\n uint64 uid; // @id\n int32 level;\n}",
			want: []schema.Field{
				{SourceType: "uint64", Name: "uid", Cardinality: schema.Single, Identifier: true, Line: 2},
				{SourceType: "int32", Name: "level", Cardinality: schema.Single, Line: 3},
			},
		},
		{
			name: "block comments and blank lines are skipped",
			src:  "/* header\n comment */\n\nmessage M {\n\n /* note */\n int32 a;\n}\n",
			want: []schema.Field{
				{SourceType: "int32", Name: "a", Cardinality: schema.Single, Line: 7},
			},
		},
		{
			name: "message without fields",
			src:  "message Empty {}",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity, err := ParseString(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, entity.Fields)
		})
	}
}

func TestParseTableAnnotation(t *testing.T) {
	entity, err := ParseString("message Role { // @table(t_role)\n uint64 roleId;\n}")
	require.NoError(t, err)
	assert.Equal(t, "Role", entity.Name)
	assert.Equal(t, "t_role", entity.Table)

	entity, err = ParseString("message Role // @table(t_role)\n{\n uint64 roleId;\n}")
	require.NoError(t, err)
	assert.Equal(t, "t_role", entity.Table)
	require.Len(t, entity.Fields, 1)

	// only the header line is consulted
	entity, err = ParseString("message Role {\n // @table(t_role)\n uint64 roleId;\n}")
	require.NoError(t, err)
	assert.Empty(t, entity.Table)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		opts     []Option
		wantLine int
	}{
		{name: "empty input", src: ""},
		{name: "only directives", src: "syntax = \"proto3\";\npackage game;\n"},
		{name: "field with a single token", src: "message M {\n int32;\n}", wantLine: 2},
		{name: "repeated without name", src: "message M {\n repeated uint64;\n}", wantLine: 2},
		{name: "duplicate message", src: "message A {\n int32 a;\n}\nmessage B {\n int32 b;\n}", wantLine: 4},
		{name: "zero capacity", src: "message M {\n repeated int32 a; // @fixed(0)\n}", wantLine: 2},
		{name: "non numeric capacity", src: "message M {\n repeated int32 a; // @fixed(n)\n}", wantLine: 2},
		{name: "two identifiers", src: "message M {\n int32 a; // @id\n int32 b; // @id\n}", wantLine: 1},
		{name: "identifier required", src: "message M {\n int32 a;\n}", opts: []Option{RequireIdentifier()}, wantLine: 1},
		{name: "nested message", src: "message M {\n message N {\n }\n}", wantLine: 2},
		{name: "unclosed message", src: "message M {\n int32 a;\n"},
		{name: "unknown character", src: "message M {\n int32 a [packed=true];\n}"},
		{name: "invalid table name", src: "message M { // @table(1x)\n int32 a;\n}", wantLine: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity, err := Parse("broken.proto", []byte(tt.src), tt.opts...)
			require.Error(t, err)
			assert.Nil(t, entity)
			assert.True(t, errors.Is(err, ErrParse), "error %v should match ErrParse", err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "broken.proto", perr.Filename)
			if tt.wantLine > 0 {
				assert.Equal(t, tt.wantLine, perr.Line, "error: %v", err)
			}
		})
	}
}

func TestParseFieldNamedRepeated(t *testing.T) {
	entity, err := ParseString("message Flags {\n bool repeated;\n repeated int32 repeated; // @fixed(2)\n}")
	require.NoError(t, err)
	assert.Equal(t, []schema.Field{
		{SourceType: "bool", Name: "repeated", Cardinality: schema.Single, Line: 2},
		{SourceType: "int32", Name: "repeated", Cardinality: schema.RepeatedFixed, Capacity: 2, Line: 3},
	}, entity.Fields)
}

func TestParseIdentifierRequiredSatisfied(t *testing.T) {
	entity, err := ParseString("message M {\n uint64 uid; // @id\n}", RequireIdentifier())
	require.NoError(t, err)
	name, declared := entity.Identifier("roleId")
	assert.Equal(t, "uid", name)
	assert.True(t, declared)
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Filename: "a.proto", Line: 3, Column: 7, Msg: "boom"}
	assert.Equal(t, "a.proto:3:7: boom", err.Error())

	err = &ParseError{Msg: "no message declaration found"}
	assert.Equal(t, "<input>: no message declaration found", err.Error())
}

func TestParseOrderPreserved(t *testing.T) {
	entity, err := ParseString("message M {\n int32 c;\n int32 a;\n int32 b;\n int32 a;\n}")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "a"}, entity.Columns())
}
