// Package sqlgen builds the SQL statements embedded into generated code.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tordrt/entitygen/internal/schema"
)

// Dialect selects the upsert flavour and placeholder style
type Dialect string

const (
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Defaults shared by every dialect
const (
	DefaultKeyColumn  = "id"
	DefaultDeleteFlag = "isdelete"
)

// ParseDialect validates a dialect name. An empty name selects MySQL.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(name))); d {
	case "":
		return MySQL, nil
	case MySQL, SQLite, Postgres:
		return d, nil
	case "postgresql":
		return Postgres, nil
	case "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q (must be mysql, sqlite or postgres)", name)
	}
}

// Placeholder renders the positional placeholder for the zero-based argument i
type Placeholder func(i int) string

// Question renders "?" placeholders
func Question(int) string { return "?" }

// Dollar renders "$1", "$2", ... placeholders
func Dollar(i int) string { return "$" + strconv.Itoa(i+1) }

// Brace renders "{}" placeholders for fmt-style executors
func Brace(int) string { return "{}" }

// Placeholder returns the native placeholder style of d
func (d Dialect) Placeholder() Placeholder {
	if d == Postgres {
		return Dollar
	}
	return Question
}

// Fragments are the per-field pieces of the save statement.
// All three slices have one entry per field, in declaration order.
type Fragments struct {
	Columns      []string
	Placeholders []string
	Values       []string
}

// Build computes the fragments of e using ph for placeholders
func Build(e *schema.Entity, ph Placeholder) Fragments {
	f := Fragments{
		Columns:      make([]string, 0, len(e.Fields)),
		Placeholders: make([]string, 0, len(e.Fields)),
		Values:       make([]string, 0, len(e.Fields)),
	}
	for i, field := range e.Fields {
		f.Columns = append(f.Columns, field.Name)
		f.Placeholders = append(f.Placeholders, ph(i))
		f.Values = append(f.Values, field.Name)
	}
	return f
}

// ColumnList joins the columns with ", "
func (f Fragments) ColumnList() string { return strings.Join(f.Columns, ", ") }

// PlaceholderList joins the placeholders with ", "
func (f Fragments) PlaceholderList() string { return strings.Join(f.Placeholders, ", ") }

// ValueList joins the value sources with ", "
func (f Fragments) ValueList() string { return strings.Join(f.Values, ", ") }

// Upsert returns the replace-or-insert statement for table.
// key is the conflict target used by postgres.
func Upsert(d Dialect, table, key string, f Fragments) string {
	var b strings.Builder

	switch d {
	case SQLite:
		b.WriteString("INSERT OR REPLACE INTO ")
	case Postgres:
		b.WriteString("INSERT INTO ")
	default:
		b.WriteString("REPLACE INTO ")
	}
	b.WriteString(table)

	if len(f.Columns) == 0 && d != MySQL {
		b.WriteString(" DEFAULT VALUES")
	} else {
		fmt.Fprintf(&b, " (%s) VALUES (%s)", f.ColumnList(), f.PlaceholderList())
	}

	if d == Postgres {
		b.WriteString(conflictClause(key, f.Columns))
	}
	return b.String()
}

func conflictClause(key string, columns []string) string {
	if len(columns) == 0 {
		return " ON CONFLICT DO NOTHING"
	}

	updates := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == key {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	if len(updates) == 0 {
		return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", key)
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(updates, ", "))
}

// SoftDelete returns the statement flagging the row identified by key as deleted
func SoftDelete(d Dialect, table, flag, key, placeholder string) string {
	truth := "1"
	if d == Postgres {
		truth = "TRUE"
	}
	return fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s", table, flag, truth, key, placeholder)
}
