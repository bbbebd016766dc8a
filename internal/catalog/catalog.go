// Package catalog stores exported stored procedure definitions in SQLite
// and serves them to the indexing pipeline. It is the local stand-in for
// the production database's procedure catalog.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrNotFound is returned when a requested procedure doesn't exist
	ErrNotFound = errors.New("procedure not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS procedures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	schema_name TEXT NOT NULL,
	procedure_name TEXT NOT NULL,
	definition TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	modified_at TIMESTAMP NOT NULL,
	UNIQUE(schema_name, procedure_name)
);
`

// ProcedureInfo identifies one catalog entry without its definition text.
type ProcedureInfo struct {
	Schema   string
	Name     string
	Created  time.Time
	Modified time.Time
}

// QualifiedName returns the schema-qualified procedure name, which doubles
// as the index record id.
func (p ProcedureInfo) QualifiedName() string {
	return p.Schema + "." + p.Name
}

// Catalog is a SQLite-backed procedure catalog.
type Catalog struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (and if needed initializes) a catalog database at path.
// Use ":memory:" for an ephemeral catalog.
func Open(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}

	return &Catalog{db: db, log: logger}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Upsert inserts or replaces a procedure definition.
func (c *Catalog) Upsert(ctx context.Context, schemaName, procedureName, definition string) error {
	if definition == "" {
		return fmt.Errorf("upsert %s.%s: definition cannot be empty", schemaName, procedureName)
	}

	query := `
		INSERT INTO procedures (schema_name, procedure_name, definition, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(schema_name, procedure_name) DO UPDATE SET
			definition = excluded.definition,
			modified_at = excluded.modified_at
	`
	now := time.Now().UTC()
	if _, err := c.db.ExecContext(ctx, query, schemaName, procedureName, definition, now, now); err != nil {
		return fmt.Errorf("upsert procedure %s.%s: %w", schemaName, procedureName, err)
	}
	return nil
}

// List enumerates catalog entries. With uiOnly set, only procedures whose
// definition references the sp_api_* surface or modal constructs are
// returned, matching how the production catalog is filtered.
func (c *Catalog) List(ctx context.Context, uiOnly bool) ([]ProcedureInfo, error) {
	query := `
		SELECT schema_name, procedure_name, created_at, modified_at
		FROM procedures
	`
	if uiOnly {
		query += ` WHERE definition LIKE '%sp_api_%' OR definition LIKE '%modal%'`
	}
	query += ` ORDER BY schema_name, procedure_name`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	procedures := []ProcedureInfo{}
	for rows.Next() {
		var info ProcedureInfo
		if err := rows.Scan(&info.Schema, &info.Name, &info.Created, &info.Modified); err != nil {
			return nil, fmt.Errorf("scan procedure row: %w", err)
		}
		procedures = append(procedures, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	c.log.Info("listed procedures", "count", len(procedures), "ui_only", uiOnly)
	return procedures, nil
}

// GetDefinition returns the T-SQL definition for one procedure.
func (c *Catalog) GetDefinition(ctx context.Context, schemaName, procedureName string) (string, error) {
	query := `
		SELECT definition FROM procedures
		WHERE schema_name = ? AND procedure_name = ?
	`
	var definition string
	err := c.db.QueryRowContext(ctx, query, schemaName, procedureName).Scan(&definition)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s.%s", ErrNotFound, schemaName, procedureName)
	}
	if err != nil {
		return "", fmt.Errorf("get definition %s.%s: %w", schemaName, procedureName, err)
	}
	return definition, nil
}

// Count returns the number of catalog entries.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM procedures`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count procedures: %w", err)
	}
	return count, nil
}
