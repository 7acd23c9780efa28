package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tordrt/entitygen/internal/schema"
)

func player() *schema.Entity {
	return &schema.Entity{
		Name: "Player",
		Fields: []schema.Field{
			{SourceType: "uint64", Name: "roleId"},
			{SourceType: "int32", Name: "level"},
			{SourceType: "string", Name: "nickname"},
		},
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name  string
		table *schema.Table
		want  []Finding
	}{
		{
			name: "in sync",
			table: &schema.Table{
				Name: "player",
				Columns: []schema.Column{
					{Name: "id", Type: "bigint"},
					{Name: "roleId", Type: "bigint"},
					{Name: "level", Type: "int"},
					{Name: "nickname", Type: "varchar(64)"},
					{Name: "isdelete", Type: "tinyint"},
				},
				PrimaryKey: []string{"id"},
			},
		},
		{
			name: "case insensitive",
			table: &schema.Table{
				Name: "player",
				Columns: []schema.Column{
					{Name: "ID"}, {Name: "ROLEID"}, {Name: "Level"}, {Name: "NickName"}, {Name: "IsDelete"},
				},
				PrimaryKey: []string{"ID"},
			},
		},
		{
			name: "missing and extra columns",
			table: &schema.Table{
				Name: "player",
				Columns: []schema.Column{
					{Name: "id", Type: "bigint"},
					{Name: "roleId", Type: "bigint"},
					{Name: "gold", Type: "int"},
					{Name: "isdelete", Type: "tinyint"},
				},
				PrimaryKey: []string{"id"},
			},
			want: []Finding{
				{Kind: MissingColumn, Column: "level", Type: "int32"},
				{Kind: MissingColumn, Column: "nickname", Type: "string"},
				{Kind: ExtraColumn, Column: "gold", Type: "int"},
			},
		},
		{
			name: "missing key and flag",
			table: &schema.Table{
				Name:    "player",
				Columns: []schema.Column{{Name: "roleId"}, {Name: "level"}, {Name: "nickname"}},
			},
			want: []Finding{
				{Kind: MissingKey, Column: "id"},
				{Kind: MissingFlag, Column: "isdelete"},
			},
		},
		{
			name: "key outside primary key",
			table: &schema.Table{
				Name: "player",
				Columns: []schema.Column{
					{Name: "id", Type: "bigint"}, {Name: "roleId"}, {Name: "level"}, {Name: "nickname"}, {Name: "isdelete"},
				},
				PrimaryKey: []string{"roleId"},
			},
			want: []Finding{{Kind: KeyNotPrimaryKey, Column: "id", Type: "bigint"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Compare(player(), tt.table, "id", "isdelete")
			assert.Equal(t, "Player", r.Entity)
			assert.Equal(t, "player", r.Table)
			assert.Equal(t, tt.want, r.Findings)
			assert.Equal(t, len(tt.want) > 0, r.HasDrift())
		})
	}
}

func TestBlocking(t *testing.T) {
	r := Report{Findings: []Finding{
		{Kind: ExtraColumn, Column: "gold"},
		{Kind: MissingColumn, Column: "level"},
		{Kind: KeyNotPrimaryKey, Column: "id"},
		{Kind: MissingFlag, Column: "isdelete"},
	}}

	assert.Equal(t, []Finding{
		{Kind: MissingColumn, Column: "level"},
		{Kind: MissingFlag, Column: "isdelete"},
	}, r.Blocking())
}

func TestCompareWithoutKeyOrFlag(t *testing.T) {
	table := &schema.Table{Name: "player", Columns: []schema.Column{{Name: "roleId"}, {Name: "level"}, {Name: "nickname"}}}
	r := Compare(player(), table, "", "")
	assert.False(t, r.HasDrift())
}
