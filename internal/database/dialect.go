package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Dialect adapts queries written with ? placeholders to a specific SQL
// backend. Every repository query goes through Rebind; inserts that need the
// server-generated id go through InsertReturningID because each backend has a
// different way of reporting it.
type Dialect interface {
	Name() string
	// Rebind rewrites ? placeholders into the backend's parameter syntax.
	Rebind(query string) string
	// InsertReturningID executes an insert inside tx and returns the
	// server-generated integer id of the new row.
	InsertReturningID(ctx context.Context, tx *sql.Tx, table string, columns []string, args ...any) (int64, error)
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return string(ProviderPostgres) }

func (postgresDialect) Rebind(query string) string {
	return rebindNumbered(query, "$")
}

func (d postgresDialect) InsertReturningID(ctx context.Context, tx *sql.Tx, table string, columns []string, args ...any) (int64, error) {
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns)),
	)

	var id int64
	if err := tx.QueryRowContext(ctx, d.Rebind(query), args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return id, nil
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return string(ProviderMySQL) }

// Rebind is a no-op: MySQL uses ? placeholders natively.
func (mysqlDialect) Rebind(query string) string { return query }

func (mysqlDialect) InsertReturningID(ctx context.Context, tx *sql.Tx, table string, columns []string, args ...any) (int64, error) {
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns)),
	)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read generated id for %s: %w", table, err)
	}
	return id, nil
}

type sqlserverDialect struct{}

func (sqlserverDialect) Name() string { return string(ProviderSQLServer) }

func (sqlserverDialect) Rebind(query string) string {
	return rebindNumbered(query, "@p")
}

func (d sqlserverDialect) InsertReturningID(ctx context.Context, tx *sql.Tx, table string, columns []string, args ...any) (int64, error) {
	// OUTPUT must appear before VALUES, so the insert is assembled here
	// rather than rewritten from a generic statement.
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) OUTPUT INSERTED.id VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns)),
	)

	var id int64
	if err := tx.QueryRowContext(ctx, d.Rebind(query), args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return id, nil
}

// rebindNumbered replaces each ? with prefix plus its 1-based position.
func rebindNumbered(query, prefix string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteString(prefix)
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
