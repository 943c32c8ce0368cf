package database

import "strings"

// Driver represents a database backend type.
type Driver string

const (
	// DriverPostgres represents PostgreSQL database.
	DriverPostgres Driver = "postgres"
	// DriverSQLite represents SQLite database.
	DriverSQLite Driver = "sqlite"
	// DriverMemory keeps all state in process memory and has no SQL connection.
	DriverMemory Driver = "memory"
)

// String returns the string representation of the driver.
func (d Driver) String() string {
	return string(d)
}

// DetectDriver parses a connection string and returns the driver type.
// Empty URLs and "memory" select the in-memory store.
func DetectDriver(url string) Driver {
	if url == "" || url == "memory" || url == "memory://" {
		return DriverMemory
	}

	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return DriverPostgres
	}

	if strings.HasPrefix(url, "sqlite://") ||
		strings.HasPrefix(url, "file:") ||
		strings.HasSuffix(url, ".db") ||
		strings.HasSuffix(url, ".sqlite") ||
		strings.HasSuffix(url, ".sqlite3") {
		return DriverSQLite
	}

	return DriverPostgres
}

// SQLitePathFromURL strips the sqlite:// scheme from a SQLite URL.
// file: URIs and plain paths are returned unchanged.
func SQLitePathFromURL(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}

// IsInMemorySQLite reports whether the SQLite path names a private in-memory database.
func IsInMemorySQLite(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

// IsValid returns true if the driver is a known type.
func (d Driver) IsValid() bool {
	switch d {
	case DriverPostgres, DriverSQLite, DriverMemory:
		return true
	default:
		return false
	}
}
