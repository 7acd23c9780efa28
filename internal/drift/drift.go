// Package drift compares an entity with the live table its Save and Delete
// statements run against.
package drift

import (
	"strings"

	"github.com/tordrt/entitygen/internal/schema"
)

// Kind classifies a finding
type Kind string

const (
	MissingColumn    Kind = "missing_column"
	ExtraColumn      Kind = "extra_column"
	MissingKey       Kind = "missing_key"
	MissingFlag      Kind = "missing_delete_flag"
	KeyNotPrimaryKey Kind = "key_not_primary_key"
)

// Finding is one difference between the entity and the table
type Finding struct {
	Kind   Kind
	Column string
	Type   string // declared schema type for MissingColumn, column type otherwise
}

// Blocking reports whether the generated statements fail against the table
// because of f. Extra columns and a key outside the primary key only change
// upsert semantics.
func (f Finding) Blocking() bool {
	switch f.Kind {
	case MissingColumn, MissingKey, MissingFlag:
		return true
	default:
		return false
	}
}

// Report lists the findings for one entity
type Report struct {
	Entity     string
	Table      string
	KeyColumn  string
	DeleteFlag string
	Findings   []Finding
}

// HasDrift reports whether any finding was recorded
func (r *Report) HasDrift() bool {
	return len(r.Findings) > 0
}

// Blocking returns the findings that break the generated statements
func (r *Report) Blocking() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Blocking() {
			out = append(out, f)
		}
	}
	return out
}

// Compare checks e against table. Column names match case-insensitively.
// Findings are ordered: missing columns in field order, then key and flag
// checks, then extra columns in table order.
func Compare(e *schema.Entity, table *schema.Table, key, flag string) Report {
	r := Report{Entity: e.Name, Table: table.Name, KeyColumn: key, DeleteFlag: flag}

	declared := make(map[string]bool, len(e.Fields)+2)
	for _, f := range e.Fields {
		declared[strings.ToLower(f.Name)] = true
		if !table.HasColumn(f.Name) {
			r.Findings = append(r.Findings, Finding{Kind: MissingColumn, Column: f.Name, Type: f.SourceType})
		}
	}

	if key != "" {
		declared[strings.ToLower(key)] = true
		switch {
		case !table.HasColumn(key):
			r.Findings = append(r.Findings, Finding{Kind: MissingKey, Column: key})
		case !table.InPrimaryKey(key):
			r.Findings = append(r.Findings, Finding{Kind: KeyNotPrimaryKey, Column: key, Type: columnType(table, key)})
		}
	}

	if flag != "" {
		declared[strings.ToLower(flag)] = true
		if !table.HasColumn(flag) {
			r.Findings = append(r.Findings, Finding{Kind: MissingFlag, Column: flag})
		}
	}

	for _, col := range table.Columns {
		if !declared[strings.ToLower(col.Name)] {
			r.Findings = append(r.Findings, Finding{Kind: ExtraColumn, Column: col.Name, Type: col.Type})
		}
	}

	return r
}

func columnType(t *schema.Table, name string) string {
	for _, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return col.Type
		}
	}
	return ""
}
