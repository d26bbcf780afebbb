package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists render history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			ticker          TEXT NOT NULL,
			years           INTEGER,
			horizon         INTEGER,
			rows            INTEGER,
			last_close      REAL,
			forecast_close  REAL,
			percent         REAL,
			change_ok       INTEGER,
			columns_ok      TEXT,
			columns_failed  TEXT,
			error           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON forecast_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ticker ON forecast_runs(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	changeOK := 0
	if evt.ChangeOK {
		changeOK = 1
	}
	_, err := r.db.Exec(`INSERT INTO forecast_runs
		(timestamp, ticker, years, horizon, rows, last_close, forecast_close, percent,
		 change_ok, columns_ok, columns_failed, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.UnixNano(), evt.Ticker, evt.Years, evt.Horizon, evt.Rows,
		evt.LastClose, evt.ForecastClose, evt.Percent, changeOK,
		strings.Join(evt.ColumnsOK, ","), strings.Join(evt.ColumnsFailed, ","), evt.Error,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT timestamp, ticker, years, horizon, rows, last_close,
		forecast_close, percent, change_ok, columns_ok, columns_failed, error
		FROM forecast_runs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunEvent
	for rows.Next() {
		var (
			evt            RunEvent
			ts             int64
			changeOK       int
			okCols, failed string
		)
		if err := rows.Scan(&ts, &evt.Ticker, &evt.Years, &evt.Horizon, &evt.Rows,
			&evt.LastClose, &evt.ForecastClose, &evt.Percent, &changeOK,
			&okCols, &failed, &evt.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		evt.Timestamp = time.Unix(0, ts)
		evt.ChangeOK = changeOK == 1
		evt.ColumnsOK = splitList(okCols)
		evt.ColumnsFailed = splitList(failed)
		out = append(out, evt)
	}
	return out, rows.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
