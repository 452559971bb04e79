package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-tools/internal/loader"
	"github.com/jonathan/resume-tools/internal/pipeline"
)

var _ pipeline.Recorder = (*DB)(nil)

const (
	insertRunSQL = `INSERT INTO runs (id, operation, model, params, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`
	insertInputSQL = `INSERT INTO run_inputs (run_id, role, source, format, content_hash, chars)
		 VALUES ($1, $2, $3, $4, $5, $6)`
	insertArtifactSQL = `INSERT INTO run_artifacts (id, run_id, position, step, content_type, content)
		 VALUES ($1, $2, $3, $4, $5, $6)`
	selectRunSQL = `SELECT id, operation, model, params, started_at, completed_at, created_at
		 FROM runs WHERE id = $1`
	selectInputsSQL = `SELECT role, source, format, content_hash, chars
		 FROM run_inputs WHERE run_id = $1 ORDER BY role`
	selectArtifactsSQL = `SELECT id, run_id, position, step, content_type, content, created_at
		 FROM run_artifacts WHERE run_id = $1 ORDER BY position`
	listRunsSQL = `SELECT id, operation, model, params, started_at, completed_at, created_at
		 FROM runs ORDER BY started_at DESC LIMIT $1`
)

// RecordRun stores a completed run with its inputs and artifacts in one transaction.
func (db *DB) RecordRun(ctx context.Context, record *pipeline.Record) error {
	if record == nil {
		return errors.New("cannot record nil run")
	}

	params := record.Params
	if params == nil {
		params = map[string]string{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal run params: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, insertRunSQL,
		record.ID, string(record.Operation), record.Model, paramsJSON, record.StartedAt, record.CompletedAt,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, in := range record.Inputs {
		if _, err := tx.Exec(ctx, insertInputSQL,
			record.ID, in.Role, in.Source, string(in.Format), in.Hash, in.Chars,
		); err != nil {
			return fmt.Errorf("failed to insert %s input: %w", in.Role, err)
		}
	}

	for i, a := range record.Artifacts {
		if _, err := tx.Exec(ctx, insertArtifactSQL,
			uuid.New(), record.ID, i, a.Step, a.ContentType, a.Content,
		); err != nil {
			return fmt.Errorf("failed to insert artifact %s: %w", a.Step, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run and its inputs. It returns nil when no run has the ID.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx, selectRunSQL, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := db.pool.Query(ctx, selectInputsSQL, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run inputs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var in pipeline.Input
		var format string
		if err := rows.Scan(&in.Role, &in.Source, &format, &in.Hash, &in.Chars); err != nil {
			return nil, fmt.Errorf("failed to scan run input: %w", err)
		}
		in.Format = loader.Format(format)
		run.Inputs = append(run.Inputs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run inputs: %w", err)
	}
	return run, nil
}

// ListArtifacts retrieves a run's artifacts in the order the steps produced them.
func (db *DB) ListArtifacts(ctx context.Context, runID uuid.UUID) ([]Artifact, error) {
	rows, err := db.pool.Query(ctx, selectArtifactsSQL, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.RunID, &a.Position, &a.Step, &a.ContentType, &a.Content, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read artifacts: %w", err)
	}
	return artifacts, nil
}

// ListRuns retrieves the most recent runs without their inputs.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := db.pool.Query(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	var params []byte
	if err := row.Scan(&run.ID, &run.Operation, &run.Model, &params, &run.StartedAt, &run.CompletedAt, &run.CreatedAt); err != nil {
		return nil, err
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &run.Params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run params: %w", err)
		}
	}
	return &run, nil
}
