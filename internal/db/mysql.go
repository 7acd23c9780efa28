package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/tordrt/entitygen/internal/schema"
)

// MySQLReader reads table metadata from information_schema
type MySQLReader struct {
	db         *sql.DB
	schemaName string
}

// OpenMySQL connects to MySQL
func OpenMySQL(ctx context.Context, dsn, schemaName string) (*MySQLReader, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	return NewMySQLReader(db, schemaName), nil
}

// NewMySQLReader creates a reader on an open connection
func NewMySQLReader(db *sql.DB, schemaName string) *MySQLReader {
	return &MySQLReader{db: db, schemaName: schemaName}
}

// Close closes the database connection
func (r *MySQLReader) Close() error {
	return r.db.Close()
}

// ReadTable returns the columns and primary key of the named table
func (r *MySQLReader) ReadTable(ctx context.Context, name string) (*schema.Table, error) {
	columns, err := r.readColumns(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	if len(columns) == 0 {
		return nil, notFound(name)
	}

	pk, err := r.readPrimaryKey(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", name, err)
	}

	return &schema.Table{Name: name, Columns: columns, PrimaryKey: pk}, nil
}

func (r *MySQLReader) readColumns(ctx context.Context, name string) ([]schema.Column, error) {
	query := `
		SELECT column_name, column_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := r.db.QueryContext(ctx, query, r.schemaName, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (r *MySQLReader) readPrimaryKey(ctx context.Context, name string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	rows, err := r.db.QueryContext(ctx, query, r.schemaName, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var pk []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		pk = append(pk, col)
	}

	return pk, rows.Err()
}

// DatabaseName returns the database selected by a MySQL DSN
func DatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("MySQL DSN does not name a database")
	}
	return cfg.DBName, nil
}
