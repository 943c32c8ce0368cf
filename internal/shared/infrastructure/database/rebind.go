package database

import (
	"strconv"
	"strings"
)

// Rebind rewrites ? placeholders into $1, $2, ... for PostgreSQL.
// Queries for other drivers are returned unchanged. Question marks inside
// single-quoted literals are left alone.
func Rebind(driver Driver, query string) string {
	if driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			b.WriteByte(c)
		case c == '?' && !inLiteral:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
