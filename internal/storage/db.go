package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
)

var ErrRunNotFound = errors.New("run not found")

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  module TEXT NOT NULL,
  catalogCount INTEGER NOT NULL,
  deliveryCount INTEGER NOT NULL,
  summaryJson TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_traceId ON runs(traceId);

CREATE TABLE IF NOT EXISTS run_rows (
  runId INTEGER NOT NULL,
  rowNo INTEGER NOT NULL,
  lineNo INTEGER NOT NULL,
  supplier TEXT NOT NULL,
  articleId TEXT NOT NULL,
  description TEXT NOT NULL,
  quantity REAL NOT NULL,
  sourceUnit TEXT NOT NULL,
  matchedMaterial TEXT NOT NULL,
  matchedCategory TEXT NOT NULL,
  similarity REAL NOT NULL,
  referenceUnit TEXT NOT NULL,
  materialCo2e REAL NOT NULL,
  transportCo2e REAL NOT NULL,
  totalCo2e REAL NOT NULL,
  status TEXT NOT NULL,
  converted INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY(runId, rowNo),
  FOREIGN KEY(runId) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun stores a run and its rows in one transaction and returns the
// new run id. Rows are kept in slice order; line numbers need not be unique.
func (d *DB) InsertRun(run internal.RunRecord, rows []internal.ReportRow) (int64, error) {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return 0, err
	}
	timingsJSON, err := json.Marshal(run.Timings)
	if err != nil {
		return 0, err
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
INSERT INTO runs (traceId, module, catalogCount, deliveryCount, summaryJson, timingsJson, createdAt)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, run.Module, run.CatalogCount, run.DeliveryCount, string(summaryJSON), string(timingsJSON), createdAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
INSERT INTO run_rows (
  runId, rowNo, lineNo, supplier, articleId, description, quantity, sourceUnit,
  matchedMaterial, matchedCategory, similarity, referenceUnit,
  materialCo2e, transportCo2e, totalCo2e, status, converted
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.Exec(
			runID, i+1, r.LineNo, r.Supplier, r.ArticleID, r.Description, r.Quantity, r.SourceUnit,
			r.MatchedMaterial, r.MatchedCategory, r.Similarity, r.ReferenceUnit,
			r.MaterialCO2e, r.TransportCO2e, r.TotalCO2e, r.Status, boolInt(r.Converted),
		); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", r.LineNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns the newest runs first.
func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT id, traceId, module, catalogCount, deliveryCount, summaryJson, timingsJson, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) GetRun(id int64) (internal.RunRecord, error) {
	row := d.conn.QueryRow(`
SELECT id, traceId, module, catalogCount, deliveryCount, summaryJson, timingsJson, createdAt
FROM runs WHERE id = ?
`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return internal.RunRecord{}, fmt.Errorf("%w: id=%d", ErrRunNotFound, id)
	}
	return run, err
}

// GetRunRows returns the rows of a run in line order.
func (d *DB) GetRunRows(id int64) ([]internal.ReportRow, error) {
	if _, err := d.GetRun(id); err != nil {
		return nil, err
	}
	rows, err := d.conn.Query(`
SELECT lineNo, supplier, articleId, description, quantity, sourceUnit,
       matchedMaterial, matchedCategory, similarity, referenceUnit,
       materialCo2e, transportCo2e, totalCo2e, status, converted
FROM run_rows WHERE runId = ? ORDER BY rowNo ASC
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.ReportRow{}
	for rows.Next() {
		var r internal.ReportRow
		var converted int
		if err := rows.Scan(
			&r.LineNo, &r.Supplier, &r.ArticleID, &r.Description, &r.Quantity, &r.SourceUnit,
			&r.MatchedMaterial, &r.MatchedCategory, &r.Similarity, &r.ReferenceUnit,
			&r.MaterialCO2e, &r.TransportCO2e, &r.TotalCO2e, &r.Status, &converted,
		); err != nil {
			return nil, err
		}
		r.Converted = converted != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (internal.RunRecord, error) {
	var run internal.RunRecord
	var summaryJSON, timingsJSON, createdAt string
	if err := s.Scan(&run.ID, &run.TraceID, &run.Module, &run.CatalogCount, &run.DeliveryCount, &summaryJSON, &timingsJSON, &createdAt); err != nil {
		return internal.RunRecord{}, err
	}
	if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
		return internal.RunRecord{}, fmt.Errorf("run %d summary: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(timingsJSON), &run.Timings); err != nil {
		return internal.RunRecord{}, fmt.Errorf("run %d timings: %w", run.ID, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		run.CreatedAt = t
	}
	return run, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
