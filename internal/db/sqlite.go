package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/entitygen/internal/schema"
)

// SQLiteReader reads table metadata through PRAGMA table_info
type SQLiteReader struct {
	db *sql.DB
}

// OpenSQLite opens the database file at path
func OpenSQLite(ctx context.Context, path string) (*SQLiteReader, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	return NewSQLiteReader(db), nil
}

// NewSQLiteReader creates a reader on an open connection
func NewSQLiteReader(db *sql.DB) *SQLiteReader {
	return &SQLiteReader{db: db}
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	return r.db.Close()
}

// ReadTable returns the columns and primary key of the named table.
// table_info lists the primary key position of every column, so one query
// serves both.
func (r *SQLiteReader) ReadTable(ctx context.Context, name string) (*schema.Table, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	table := &schema.Table{Name: name}
	pkOrder := map[int]string{}

	for rows.Next() {
		var cid, notNull, pk int
		var colName, colType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
		}

		table.Columns = append(table.Columns, schema.Column{
			Name:     colName,
			Type:     colType,
			Nullable: notNull == 0,
		})
		if pk > 0 {
			pkOrder[pk] = colName
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}

	if len(table.Columns) == 0 {
		return nil, notFound(name)
	}
	for i := 1; i <= len(pkOrder); i++ {
		table.PrimaryKey = append(table.PrimaryKey, pkOrder[i])
	}
	return table, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
