package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect selects placeholder and catalog syntax.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

func ParseDialect(driver string) Dialect {
	if strings.EqualFold(strings.TrimSpace(driver), string(Postgres)) {
		return Postgres
	}
	return MySQL
}

// Rebind rewrites ? placeholders to $1..$n for Postgres. Question marks
// inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
			b.WriteRune(r)
		case r == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NullIfEmpty helps store optional strings as NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (d Dialect) HasTable(ctx context.Context, q QueryRower, table string) bool {
	schema := "DATABASE()"
	if d == Postgres {
		schema = "current_schema()"
	}
	var name sql.NullString
	err := q.QueryRowContext(ctx, d.Rebind(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = `+schema+`
		  AND table_name = ?
		LIMIT 1
	`), table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// IsDuplicateKey reports a unique constraint violation from either driver.
func IsDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
