package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Outcome values recorded for a run.
const (
	OutcomePass = "pass"
	OutcomeFail = "fail"
)

// Run is one finished check of a model.
type Run struct {
	ID          string
	Model       string
	Iterations  int
	Complete    bool
	StopReason  string
	Outcome     string
	Violation   string
	Fingerprint string
	Elapsed     time.Duration
	Seq         int64
}

// RecordRun appends r to the run history and returns its seq. Recording
// the same run id twice is a no-op that returns seq 0.
func (s *Store) RecordRun(ctx context.Context, r Run) (int64, error) {
	var seq int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		next, err := nextSeq(ctx, tx)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO runs
			(id, model, iterations, complete, stop_reason, outcome, violation, fingerprint, elapsed_ms, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			r.ID,
			r.Model,
			r.Iterations,
			r.Complete,
			r.StopReason,
			r.Outcome,
			r.Violation,
			r.Fingerprint,
			r.Elapsed.Milliseconds(),
			next,
		)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			seq = next
		}
		return nil
	})
	return seq, err
}

// ListRuns returns recorded runs in seq order. An empty model lists every
// model; a positive limit keeps only the most recent runs.
func (s *Store) ListRuns(ctx context.Context, model string, limit int) ([]Run, error) {
	query := `
		SELECT id, model, iterations, complete, stop_reason, outcome, violation, fingerprint, elapsed_ms, seq
		FROM runs
		WHERE (? = '' OR model = ?)
		ORDER BY seq DESC, id COLLATE BINARY ASC
	`
	args := []any{model, model}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r         Run
			elapsedMS int64
		)
		if err := rows.Scan(&r.ID, &r.Model, &r.Iterations, &r.Complete, &r.StopReason,
			&r.Outcome, &r.Violation, &r.Fingerprint, &elapsedMS, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	// Newest were selected first so LIMIT keeps them; report oldest first.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return runs, nil
}
