// Package load upserts the processed table into a local SQLite database.
package load

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/farhanali/weather-etl/internal/dataset"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const tableName = "weather_data"

// StorageError is a connection or write failure against the store. A failed
// load leaves the store at its pre-call state.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Open opens (creating if needed) the SQLite database file and verifies the
// connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StorageError{Op: "create database dir", Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &StorageError{Op: "ping", Err: err}
	}

	return db, nil
}

// EnsureSchema creates the weather table if it does not exist: city and time
// as the unique key, one REAL column per configured variable. It is
// idempotent and safe to call on every run.
func EnsureSchema(ctx context.Context, db *sql.DB, variables []string) error {
	cols := make([]string, 0, len(variables)+2)
	cols = append(cols, `"city" TEXT NOT NULL`, `"time" TEXT NOT NULL`)
	for _, v := range variables {
		cols = append(cols, fmt.Sprintf("%q REAL", v))
	}
	cols = append(cols, `PRIMARY KEY ("city", "time")`)

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", tableName, strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return &StorageError{Op: "ensure schema", Err: err}
	}
	return nil
}

// Run upserts every row of the table keyed by (city, time) inside one
// transaction, so loading the same table twice cannot duplicate rows and a
// failed load commits nothing. Returns the number of rows written.
func Run(ctx context.Context, databaseFile string, table *dataset.Table, logger *zap.Logger) (int, error) {
	db, err := Open(ctx, databaseFile)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if err := EnsureSchema(ctx, db, table.Variables); err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &StorageError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertStatement(table.Variables))
	if err != nil {
		return 0, &StorageError{Op: "prepare upsert", Err: err}
	}
	defer stmt.Close()

	args := make([]any, len(table.Variables)+2)
	for _, row := range table.Rows {
		args[0] = row.City
		args[1] = row.Time
		for i, v := range row.Values {
			args[i+2] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, &StorageError{Op: fmt.Sprintf("upsert row (%s, %s)", row.City, row.Time), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &StorageError{Op: "commit", Err: err}
	}

	logger.Info("Loaded processed table into store",
		zap.String("database", databaseFile),
		zap.String("table", tableName),
		zap.Int("rows", len(table.Rows)))

	return len(table.Rows), nil
}

func upsertStatement(variables []string) string {
	cols := []string{`"city"`, `"time"`}
	placeholders := []string{"?", "?"}
	updates := make([]string, 0, len(variables))
	for _, v := range variables {
		cols = append(cols, fmt.Sprintf("%q", v))
		placeholders = append(placeholders, "?")
		updates = append(updates, fmt.Sprintf("%q = excluded.%q", v, v))
	}

	return fmt.Sprintf(
		`INSERT INTO %q (%s) VALUES (%s) ON CONFLICT ("city", "time") DO UPDATE SET %s`,
		tableName,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}

// ReadTable reads the store back into the processed table shape. The
// visualizer uses it so charts come from the same data the load stage
// committed.
func ReadTable(ctx context.Context, databaseFile string, variables []string) (*dataset.Table, error) {
	db, err := Open(ctx, databaseFile)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	cols := []string{`"city"`, `"time"`}
	for _, v := range variables {
		cols = append(cols, fmt.Sprintf("%q", v))
	}
	query := fmt.Sprintf(`SELECT %s FROM %q ORDER BY "city", "time"`, strings.Join(cols, ", "), tableName)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}
	defer rows.Close()

	table := &dataset.Table{Variables: variables}
	for rows.Next() {
		row := dataset.Row{Values: make([]*float64, len(variables))}
		dest := make([]any, 0, len(variables)+2)
		dest = append(dest, &row.City, &row.Time)
		for i := range row.Values {
			dest = append(dest, &row.Values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &StorageError{Op: "scan", Err: err}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate", Err: err}
	}

	return table, nil
}
