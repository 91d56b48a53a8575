package storage

import (
	"context"
	"database/sql"
	"time"
)

// RunRecord is a stored scoring cycle.
type RunRecord struct {
	RunID           string
	StartedAt       time.Time
	FinishedAt      time.Time
	Overall         float64
	MonitorField    string
	Requests        int64
	PartialFailures int
	TotalUsers      int
	OrphanedUsers   int
}

// DimensionRecord is one stored dimension of a run.
type DimensionRecord struct {
	Dimension string
	Score     float64
	Coverage  float64
	Compliant int
	Total     int
}

// ViolationRecord is one stored violation of a run.
type ViolationRecord struct {
	Type          string
	EntityID      string
	EntityName    string
	WorkspaceName string
	AdminName     string
	AdminEmail    string
	Detail        string
	Failing       int
	Total         int
}

// LatestRun returns the most recently finished run, or sql.ErrNoRows when
// the database is empty.
func (d *DB) LatestRun(ctx context.Context) (*RunRecord, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT run_id, started_at, finished_at, overall, monitor_field, requests, partial_failures, total_users, orphaned_users FROM score_runs ORDER BY finished_at DESC LIMIT 1`)
	var r RunRecord
	var field sql.NullString
	var startedAt, finishedAt string
	if err := row.Scan(&r.RunID, &startedAt, &finishedAt, &r.Overall, &field, &r.Requests, &r.PartialFailures, &r.TotalUsers, &r.OrphanedUsers); err != nil {
		return nil, err
	}
	r.MonitorField = field.String
	r.StartedAt = parseStoredTime(startedAt)
	r.FinishedAt = parseStoredTime(finishedAt)
	return &r, nil
}

// parseStoredTime accepts the formats sqlite hands back for DATETIME
// columns depending on how the value was inserted.
func parseStoredTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func (d *DB) ListDimensions(ctx context.Context, runID string) ([]DimensionRecord, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT dimension, score, coverage, compliant, total FROM dimension_scores WHERE run_id = ? ORDER BY dimension`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DimensionRecord
	for rows.Next() {
		var r DimensionRecord
		if err := rows.Scan(&r.Dimension, &r.Score, &r.Coverage, &r.Compliant, &r.Total); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ListViolations(ctx context.Context, runID string) ([]ViolationRecord, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT type, entity_id, entity_name, workspace_name, admin_name, admin_email, detail, failing, total FROM violations WHERE run_id = ? ORDER BY type, entity_name`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ViolationRecord
	for rows.Next() {
		var r ViolationRecord
		var entityID, entityName, wsName, adminName, adminEmail, detail sql.NullString
		if err := rows.Scan(&r.Type, &entityID, &entityName, &wsName, &adminName, &adminEmail, &detail, &r.Failing, &r.Total); err != nil {
			return nil, err
		}
		r.EntityID = entityID.String
		r.EntityName = entityName.String
		r.WorkspaceName = wsName.String
		r.AdminName = adminName.String
		r.AdminEmail = adminEmail.String
		r.Detail = detail.String
		out = append(out, r)
	}
	return out, rows.Err()
}
