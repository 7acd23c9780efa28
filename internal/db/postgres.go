package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/entitygen/internal/schema"
)

const varcharType = "varchar"

// PostgresReader reads table metadata from information_schema
type PostgresReader struct {
	conn       *pgx.Conn
	schemaName string
}

// OpenPostgres connects to PostgreSQL
func OpenPostgres(ctx context.Context, connString, schemaName string) (*PostgresReader, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresReader{conn: conn, schemaName: schemaName}, nil
}

// Close closes the database connection
func (r *PostgresReader) Close() error {
	return r.conn.Close(context.Background())
}

// ReadTable returns the columns and primary key of the named table
func (r *PostgresReader) ReadTable(ctx context.Context, name string) (*schema.Table, error) {
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

func (r *PostgresReader) readColumns(ctx context.Context, name string) ([]schema.Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable, udt_name, character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := r.conn.Query(ctx, query, r.schemaName, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var dataType, nullable, udtName string
		var charMaxLength *int

		if err := rows.Scan(&col.Name, &dataType, &nullable, &udtName, &charMaxLength); err != nil {
			return nil, err
		}
		col.Type = normalizePostgresType(dataType, udtName, charMaxLength)
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (r *PostgresReader) readPrimaryKey(ctx context.Context, name string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`

	rows, err := r.conn.Query(ctx, query, r.schemaName, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// normalizePostgresType shortens the verbose information_schema type names
func normalizePostgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return varcharType
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "ARRAY":
		// udt_name of an array carries an underscore prefix, e.g. "_int8" for bigint[]
		if len(udtName) > 0 && udtName[0] == '_' {
			return normalizeUdtName(udtName[1:]) + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "bool":
		return "boolean"
	default:
		return udtName
	}
}
