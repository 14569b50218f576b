package database

import (
	"fmt"
	"strings"
)

// Provider identifies one of the supported SQL backends.
type Provider string

const (
	ProviderPostgres  Provider = "postgres"
	ProviderMySQL     Provider = "mysql"
	ProviderSQLServer Provider = "sqlserver"
)

// DefaultProvider is used when no provider is configured at all.
const DefaultProvider = ProviderPostgres

// ParseProvider maps a configuration string to a Provider. An unrecognized
// value is a configuration error and must be surfaced at startup, never
// silently replaced with a default.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderPostgres:
		return ProviderPostgres, nil
	case ProviderMySQL:
		return ProviderMySQL, nil
	case ProviderSQLServer:
		return ProviderSQLServer, nil
	case "":
		return DefaultProvider, nil
	default:
		return "", fmt.Errorf("unknown database provider %q (expected one of: postgres, mysql, sqlserver)", s)
	}
}

// DriverName returns the database/sql driver name for the provider.
func (p Provider) DriverName() string {
	switch p {
	case ProviderMySQL:
		return "mysql"
	case ProviderSQLServer:
		return "sqlserver"
	default:
		return "pgx"
	}
}

// GooseDialect returns the goose migration dialect for the provider.
func (p Provider) GooseDialect() string {
	switch p {
	case ProviderMySQL:
		return "mysql"
	case ProviderSQLServer:
		return "mssql"
	default:
		return "postgres"
	}
}

// Dialect returns the SQL dialect used to adapt queries to the provider.
func (p Provider) Dialect() Dialect {
	switch p {
	case ProviderMySQL:
		return mysqlDialect{}
	case ProviderSQLServer:
		return sqlserverDialect{}
	default:
		return postgresDialect{}
	}
}
