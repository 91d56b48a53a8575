package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/govscope/govscope/pkg/graph"
	"github.com/govscope/govscope/pkg/scoring"
	"github.com/govscope/govscope/pkg/violations"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS score_runs (
  run_id           TEXT PRIMARY KEY,
  started_at       DATETIME NOT NULL,
  finished_at      DATETIME NOT NULL,
  overall          REAL NOT NULL,
  monitor_field    TEXT,
  requests         INTEGER NOT NULL DEFAULT 0,
  partial_failures INTEGER NOT NULL DEFAULT 0,
  total_users      INTEGER NOT NULL DEFAULT 0,
  orphaned_users   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS dimension_scores (
  run_id    TEXT NOT NULL REFERENCES score_runs(run_id),
  dimension TEXT NOT NULL,
  score     REAL NOT NULL,
  coverage  REAL NOT NULL,
  compliant INTEGER NOT NULL,
  total     INTEGER NOT NULL,
  PRIMARY KEY (run_id, dimension)
);
CREATE TABLE IF NOT EXISTS violations (
  id             INTEGER PRIMARY KEY,
  run_id         TEXT NOT NULL REFERENCES score_runs(run_id),
  type           TEXT NOT NULL,
  entity_id      TEXT,
  entity_name    TEXT,
  workspace_id   TEXT,
  workspace_name TEXT,
  admin_name     TEXT,
  admin_email    TEXT,
  detail         TEXT,
  failing        INTEGER NOT NULL DEFAULT 0,
  total          INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_violations_run ON violations(run_id, type);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// StoreMetrics persists one cycle's scores and violations in a single
// transaction, so a run is either fully recorded or not at all.
func (d *DB) StoreMetrics(ctx context.Context, snap *graph.Snapshot, summary *scoring.Summary, vs []violations.Violation) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO score_runs(run_id, started_at, finished_at, overall, monitor_field, requests, partial_failures, total_users, orphaned_users) VALUES(?,?,?,?,?,?,?,?,?)`,
		snap.RunID, snap.StartedAt.UTC().Format(time.RFC3339Nano), snap.FinishedAt.UTC().Format(time.RFC3339Nano), summary.Overall, summary.MonitorField,
		snap.Telemetry.Requests, snap.Telemetry.PartialFailures,
		summary.Users.Total, summary.Users.Orphaned)
	if err != nil {
		return err
	}

	dims := []struct {
		name string
		ds   scoring.DimensionScore
	}{
		{"documentation", summary.Documentation},
		{"testing", summary.Testing},
		{"monitoring", summary.Monitoring},
		{"organization", scoring.DimensionScore{Score: summary.Organization.Score, Coverage: summary.Organization.NamingScore}},
	}
	for _, dim := range dims {
		_, err = tx.ExecContext(ctx, `INSERT INTO dimension_scores(run_id, dimension, score, coverage, compliant, total) VALUES(?,?,?,?,?,?)`,
			snap.RunID, dim.name, dim.ds.Score, dim.ds.Coverage, dim.ds.Compliant, dim.ds.Total)
		if err != nil {
			return err
		}
	}

	for _, v := range vs {
		_, err = tx.ExecContext(ctx, `INSERT INTO violations(run_id, type, entity_id, entity_name, workspace_id, workspace_name, admin_name, admin_email, detail, failing, total) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
			snap.RunID, string(v.Type), v.EntityID, v.EntityName, v.WorkspaceID, v.WorkspaceName,
			v.Admin.Name, v.Admin.Email, v.Detail, v.Failing, v.Total)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
