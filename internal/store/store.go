// Package store persists comparison runs in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("store: run not found")

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides a PostgreSQL-backed run repository.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// RunSummary is the list view of a stored run.
type RunSummary struct {
	RunID     string    `json:"runId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Reported  int       `json:"reported"`
	Unmatched int       `json:"unmatched"`
}

// Schema creates the tables used by the store.
const Schema = `
CREATE TABLE IF NOT EXISTS ui_diff_runs (
    id                UUID PRIMARY KEY,
    name              TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL,
    dom_node_count    INTEGER NOT NULL,
    design_node_count INTEGER NOT NULL,
    reported          INTEGER NOT NULL,
    passed            JSONB NOT NULL,
    unmatched         JSONB NOT NULL,
    discarded         JSONB NOT NULL,
    flagged           JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS ui_diff_records (
    run_id           UUID NOT NULL REFERENCES ui_diff_runs(id) ON DELETE CASCADE,
    position         INTEGER NOT NULL,
    dom_node_id      TEXT NOT NULL,
    design_node_id   TEXT NOT NULL,
    design_node_name TEXT NOT NULL,
    width            INTEGER NOT NULL,
    height           INTEGER NOT NULL,
    margin_left      INTEGER NOT NULL,
    margin_right     INTEGER NOT NULL,
    margin_top       INTEGER NOT NULL,
    margin_bottom    INTEGER NOT NULL,
    confidence       DOUBLE PRECISION NOT NULL,
    record           JSONB NOT NULL,
    PRIMARY KEY (run_id, position)
);
`

var recordColumns = []string{
	"run_id", "position", "dom_node_id", "design_node_id", "design_node_name",
	"width", "height", "margin_left", "margin_right", "margin_top", "margin_bottom",
	"confidence", "record",
}

const sqlUpsertRun = `
        INSERT INTO ui_diff_runs (id, name, created_at, dom_node_count, design_node_count, reported, passed, unmatched, discarded, flagged)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            created_at = EXCLUDED.created_at,
            dom_node_count = EXCLUDED.dom_node_count,
            design_node_count = EXCLUDED.design_node_count,
            reported = EXCLUDED.reported,
            passed = EXCLUDED.passed,
            unmatched = EXCLUDED.unmatched,
            discarded = EXCLUDED.discarded,
            flagged = EXCLUDED.flagged;
    `

const sqlDeleteRecords = `DELETE FROM ui_diff_records WHERE run_id = $1;`

const sqlSelectRun = `
        SELECT name, created_at, dom_node_count, design_node_count, passed, unmatched, discarded, flagged
        FROM ui_diff_runs
        WHERE id = $1;
    `

const sqlSelectRecords = `
        SELECT record
        FROM ui_diff_records
        WHERE run_id = $1
        ORDER BY position ASC;
    `

const sqlListRuns = `
        SELECT id, name, created_at, reported, jsonb_array_length(unmatched)
        FROM ui_diff_runs
        ORDER BY created_at DESC
        LIMIT $1;
    `

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun writes a run and its records in one transaction. Saving a run id
// twice replaces the earlier copy.
func (s *Store) SaveRun(ctx context.Context, result *schemas.DiffResult) error {
	lists, err := encodeLists(result.Passed, result.Unmatched, result.Discarded, result.Flagged)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlUpsertRun,
		result.RunID, result.Name, result.CreatedAt.UTC(),
		result.DomNodeCount, result.DesignNodeCount, len(result.Records),
		lists[0], lists[1], lists[2], lists[3],
	); err != nil {
		return fmt.Errorf("failed to upsert run %s: %w", result.RunID, err)
	}
	if _, err := tx.Exec(ctx, sqlDeleteRecords, result.RunID); err != nil {
		return fmt.Errorf("failed to clear records of run %s: %w", result.RunID, err)
	}
	if len(result.Records) > 0 {
		if err := s.persistRecords(ctx, tx, result.RunID, result.Records); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Saved run.", zap.String("run_id", result.RunID), zap.Int("records", len(result.Records)))
	return nil
}

func (s *Store) persistRecords(ctx context.Context, tx pgx.Tx, runID string, records []schemas.DiffRecord) error {
	rows := make([][]interface{}, len(records))
	for i, rec := range records {
		body, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", rec.DomNodeID, err)
		}
		rows[i] = []interface{}{
			runID, i, rec.DomNodeID, rec.DesignNodeID, rec.DesignNodeName,
			rec.Diff.Width, rec.Diff.Height,
			rec.Diff.MarginLeft, rec.Diff.MarginRight, rec.Diff.MarginTop, rec.Diff.MarginBottom,
			rec.Match.Confidence, body,
		}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"ui_diff_records"}, recordColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy records: %w", err)
	}
	if int(copyCount) != len(records) {
		return fmt.Errorf("mismatch in copied records count: expected %d, got %d", len(records), copyCount)
	}
	return nil
}

// GetRun loads a stored run with its records in their original order.
func (s *Store) GetRun(ctx context.Context, runID string) (*schemas.DiffResult, error) {
	rows, err := s.pool.Query(ctx, sqlSelectRun, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	result := &schemas.DiffResult{RunID: runID}
	found := false
	for rows.Next() {
		var passed, unmatched, discarded, flagged []byte
		if err := rows.Scan(&result.Name, &result.CreatedAt, &result.DomNodeCount, &result.DesignNodeCount,
			&passed, &unmatched, &discarded, &flagged); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if err := decodeLists(
			[]*[]string{&result.Passed, &result.Unmatched, &result.Discarded, &result.Flagged},
			[][]byte{passed, unmatched, discarded, flagged},
		); err != nil {
			rows.Close()
			return nil, err
		}
		found = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	result.CreatedAt = result.CreatedAt.UTC()

	records, err := s.pool.Query(ctx, sqlSelectRecords, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer records.Close()

	result.Records = []schemas.DiffRecord{}
	for records.Next() {
		var body []byte
		if err := records.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		var rec schemas.DiffRecord
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		result.Records = append(result.Records, rec)
	}
	if err := records.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return result, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, sqlListRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Name, &r.CreatedAt, &r.Reported, &r.Unmatched); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return runs, nil
}

// encodeLists renders id lists as JSON arrays; nil becomes [].
func encodeLists(lists ...[]string) ([][]byte, error) {
	out := make([][]byte, len(lists))
	for i, l := range lists {
		if l == nil {
			l = []string{}
		}
		b, err := json.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("failed to encode id list: %w", err)
		}
		out[i] = b
	}
	return out, nil
}

func decodeLists(dst []*[]string, raw [][]byte) error {
	for i, b := range raw {
		*dst[i] = []string{}
		if len(b) == 0 {
			continue
		}
		if err := json.Unmarshal(b, dst[i]); err != nil {
			return fmt.Errorf("failed to decode id list: %w", err)
		}
	}
	return nil
}
