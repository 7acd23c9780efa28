package schema

import "strings"

// Cardinality describes how many values a field holds
type Cardinality int

const (
	// Single is a scalar field
	Single Cardinality = iota
	// RepeatedDynamic is an unbounded ordered sequence
	RepeatedDynamic
	// RepeatedFixed is an ordered sequence with a fixed capacity
	RepeatedFixed
)

func (c Cardinality) String() string {
	switch c {
	case Single:
		return "single"
	case RepeatedDynamic:
		return "repeated"
	case RepeatedFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Field represents one field of a message
type Field struct {
	SourceType  string // type name as written in the schema
	Name        string
	Cardinality Cardinality
	Capacity    int  // set only for RepeatedFixed, always >= 1
	Identifier  bool // marked with @id
	Line        int
}

// Entity represents a single declared message
type Entity struct {
	Name   string
	Table  string // from @table(...), empty when not annotated
	Fields []Field
}

// Columns returns the field names in declaration order
func (e *Entity) Columns() []string {
	columns := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		columns = append(columns, f.Name)
	}
	return columns
}

// Identifier returns the field that identifies a row.
// A field marked with @id wins; otherwise the field named conventional is used.
// The name is returned even when no such field exists so callers can still
// reference the conventional member.
func (e *Entity) Identifier(conventional string) (name string, declared bool) {
	for _, f := range e.Fields {
		if f.Identifier {
			return f.Name, true
		}
	}
	for _, f := range e.Fields {
		if f.Name == conventional {
			return f.Name, true
		}
	}
	return conventional, false
}

// Table represents a database table read back from a live database
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
}

// Column represents a table column
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// HasColumn reports whether the table has the column, ignoring case
func (t *Table) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return true
		}
	}
	return false
}

// InPrimaryKey reports whether the column is part of the primary key, ignoring case
func (t *Table) InPrimaryKey(name string) bool {
	for _, pk := range t.PrimaryKey {
		if strings.EqualFold(pk, name) {
			return true
		}
	}
	return false
}
