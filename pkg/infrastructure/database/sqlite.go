package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

const executionsSchema = `
CREATE TABLE IF NOT EXISTS executions (
	execution_id TEXT PRIMARY KEY,
	service TEXT NOT NULL,
	status INTEGER NOT NULL,
	trigger_type TEXT NOT NULL DEFAULT '',
	timestamp TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT,
	inputs_json TEXT NOT NULL DEFAULT '',
	outputs_json TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT ''
);`

// executionColumns are the fields UpdateExecution may set.
var executionColumns = map[string]bool{
	"status":        true,
	"trigger_type":  true,
	"timestamp":     true,
	"start_time":    true,
	"end_time":      true,
	"inputs_json":   true,
	"outputs_json":  true,
	"error_message": true,
}

// SQLiteAdapter records executions in a local SQLite file, for runs outside GCP.
type SQLiteAdapter struct {
	DB *sql.DB
}

// OpenSQLite opens (or creates) the execution log at path.
// ":memory:" gives a throwaway database.
func OpenSQLite(path string) (*SQLiteAdapter, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open execution log: %w", err)
	}
	// One connection keeps ":memory:" a single database and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(executionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create executions table: %w", err)
	}
	return &SQLiteAdapter{DB: db}, nil
}

func (a *SQLiteAdapter) Close() error {
	return a.DB.Close()
}

func (a *SQLiteAdapter) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	var endTime interface{}
	if record.EndTime != nil {
		endTime = formatTime(*record.EndTime)
	}
	_, err := a.DB.ExecContext(ctx, `
		INSERT OR REPLACE INTO executions
			(execution_id, service, status, trigger_type, timestamp, start_time, end_time, inputs_json, outputs_json, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ExecutionID, record.Service, int32(record.Status), record.TriggerType,
		formatTime(record.Timestamp), formatTime(record.StartTime), endTime,
		record.InputsJSON, record.OutputsJSON, record.ErrorMessage)
	return err
}

func (a *SQLiteAdapter) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		if !executionColumns[k] {
			return fmt.Errorf("unknown execution field %q", k)
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)+1)
	for _, k := range keys {
		sets = append(sets, k+" = ?")
		v := data[k]
		if t, ok := v.(time.Time); ok {
			v = formatTime(t)
		}
		args = append(args, v)
	}
	args = append(args, id)

	res, err := a.DB.ExecContext(ctx, "UPDATE executions SET "+strings.Join(sets, ", ")+" WHERE execution_id = ?", args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("execution %s not found", id)
	}
	return nil
}

// GetExecution reads one record back.
func (a *SQLiteAdapter) GetExecution(ctx context.Context, id string) (*types.ExecutionRecord, error) {
	var (
		r                    types.ExecutionRecord
		status               int32
		timestamp, startTime string
		endTime              sql.NullString
	)
	err := a.DB.QueryRowContext(ctx, `
		SELECT execution_id, service, status, trigger_type, timestamp, start_time, end_time, inputs_json, outputs_json, error_message
		FROM executions WHERE execution_id = ?`, id).
		Scan(&r.ExecutionID, &r.Service, &status, &r.TriggerType, &timestamp, &startTime, &endTime, &r.InputsJSON, &r.OutputsJSON, &r.ErrorMessage)
	if err != nil {
		return nil, err
	}
	r.Status = types.ExecutionStatus(status)
	r.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
	r.StartTime, _ = time.Parse(time.RFC3339Nano, startTime)
	if endTime.Valid {
		if t, err := time.Parse(time.RFC3339Nano, endTime.String); err == nil {
			r.EndTime = &t
		}
	}
	return &r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
