// Package migrations holds the embedded schema and applies it at startup.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var schemaFS embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version TEXT PRIMARY KEY
)`

// Run applies every pending .up.sql file for the connection's driver, in
// file-name order. Applied versions are recorded in schema_migrations.
func Run(ctx context.Context, conn database.Connection) error {
	dir, err := dirFor(conn.Driver())
	if err != nil {
		return err
	}

	files, err := upFiles(dir)
	if err != nil {
		return err
	}

	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	for _, file := range files {
		version := strings.TrimSuffix(file, ".up.sql")
		if applied[version] {
			continue
		}
		if err := apply(ctx, conn, dir, file, version); err != nil {
			return err
		}
	}

	return nil
}

// Versions lists the migration versions embedded for a driver.
func Versions(driver database.Driver) ([]string, error) {
	dir, err := dirFor(driver)
	if err != nil {
		return nil, err
	}
	files, err := upFiles(dir)
	if err != nil {
		return nil, err
	}
	versions := make([]string, len(files))
	for i, f := range files {
		versions[i] = strings.TrimSuffix(f, ".up.sql")
	}
	return versions, nil
}

func dirFor(driver database.Driver) (string, error) {
	switch driver {
	case database.DriverSQLite:
		return "sqlite", nil
	case database.DriverPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

func upFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(schemaFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func appliedVersions(ctx context.Context, conn database.Connection) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, conn database.Connection, dir, file, version string) error {
	body, err := schemaFS.ReadFile(dir + "/" + file)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", file, err)
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", file, err)
	}

	for _, stmt := range splitStatements(string(body)) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}

	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to record migration %s: %w", file, err)
	}

	return tx.Commit(ctx)
}

// splitStatements breaks a migration file on semicolons. Migrations must not
// contain semicolons inside literals or function bodies.
func splitStatements(body string) []string {
	var stmts []string
	for _, part := range strings.Split(body, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
