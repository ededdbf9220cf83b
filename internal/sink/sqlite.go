package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/google/price-visibility-booster/pkg/feeds"
	"github.com/google/price-visibility-booster/pkg/logging"
)

// metadataTable tracks the last-updated timestamp per data table.
const metadataTable = "run_metadata"

// SQLiteSink writes each table into a SQLite database file. Tables are
// dropped and recreated on every write, so each run fully replaces the last.
type SQLiteSink struct {
	db   *sql.DB
	path string
}

// NewSQLiteSink opens (or creates) the database file at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	return &SQLiteSink{db: db, path: path}, nil
}

// Name implements Destination.
func (s *SQLiteSink) Name() string { return "sqlite" }

// Close releases the database handle.
func (s *SQLiteSink) Close() error { return s.db.Close() }

// Write implements Destination. All tables of the set land in one
// transaction, so readers never observe a half-replaced run.
func (s *SQLiteSink) Write(ctx context.Context, set feeds.TableSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (table_name TEXT PRIMARY KEY, last_updated TEXT NOT NULL)",
		metadataTable)); err != nil {
		return fmt.Errorf("create metadata table: %w", err)
	}

	for _, table := range tables(set) {
		tableCtx := logging.WithTable(ctx, table.Name)
		if err := writeSQLTable(tableCtx, tx, table); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			"INSERT INTO %s (table_name, last_updated) VALUES (?, ?) "+
				"ON CONFLICT(table_name) DO UPDATE SET last_updated = excluded.last_updated",
			metadataTable), table.Name, table.LastUpdated()); err != nil {
			return fmt.Errorf("record metadata for %s: %w", table.Name, err)
		}
		logging.Ctx(tableCtx).Info().Int("rows", len(table.Rows)).
			Msg("Table written")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// writeSQLTable drops, recreates, and fills one table.
func writeSQLTable(ctx context.Context, tx *sql.Tx, table feeds.Table) error {
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table.Name); err != nil {
		return fmt.Errorf("drop %s: %w", table.Name, err)
	}

	columns := make([]string, len(table.Headers))
	for i, header := range table.Headers {
		columns[i] = header + " " + columnType(table, i)
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", table.Name, strings.Join(columns, ", "))
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("create %s: %w", table.Name, err)
	}

	if len(table.Rows) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(table.Headers)), ", ")
	insert, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table.Name, strings.Join(table.Headers, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert for %s: %w", table.Name, err)
	}
	defer insert.Close()

	for _, row := range table.Rows {
		if _, err := insert.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert into %s: %w", table.Name, err)
		}
	}
	return nil
}

// columnType infers a column's affinity from the first row, defaulting to
// TEXT for empty tables and string cells.
func columnType(table feeds.Table, column int) string {
	if len(table.Rows) == 0 || column >= len(table.Rows[0]) {
		return "TEXT"
	}
	switch table.Rows[0][column].(type) {
	case float64:
		return "REAL"
	case int, int64:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
