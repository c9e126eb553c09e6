package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/skein/internal/checkpoint"
	"github.com/roach88/skein/internal/rt"
)

// Checkpoint is the saved exploration state of one model.
type Checkpoint struct {
	Model     string
	Iteration int
	Path      rt.PathSnapshot

	// Fingerprint is the trace fingerprint of the run the path is
	// positioned at.
	Fingerprint string
	Seq         int64
}

// SaveCheckpoint stores snap as the latest checkpoint of model, replacing
// any previous one.
func (s *Store) SaveCheckpoint(ctx context.Context, model string, snap rt.PathSnapshot, iteration int) error {
	data, err := checkpoint.Encode(snap)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	fp, err := checkpoint.Fingerprint(snap)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		seq, err := nextSeq(ctx, tx)
		if err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO checkpoints (model, iteration, path, fingerprint, seq)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(model) DO UPDATE SET
				iteration = excluded.iteration,
				path = excluded.path,
				fingerprint = excluded.fingerprint,
				seq = excluded.seq
		`, model, iteration, string(data), fp, seq)
		if err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		return nil
	})
}

// LoadCheckpoint returns the checkpoint of model and whether one exists.
func (s *Store) LoadCheckpoint(ctx context.Context, model string) (Checkpoint, bool, error) {
	var (
		cp   Checkpoint
		data string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT model, iteration, path, fingerprint, seq
		FROM checkpoints
		WHERE model = ?
	`, model).Scan(&cp.Model, &cp.Iteration, &data, &cp.Fingerprint, &cp.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load checkpoint: %w", err)
	}

	cp.Path, err = checkpoint.Decode([]byte(data))
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load checkpoint %q: %w", model, err)
	}
	return cp, true, nil
}

// DeleteCheckpoint removes the checkpoint of model, if any.
func (s *Store) DeleteCheckpoint(ctx context.Context, model string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE model = ?`, model); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// ModelCheckpointer keeps one model's exploration path in the store.
type ModelCheckpointer struct {
	store *Store
	model string
}

// Checkpointer returns a checkpointer for model.
func (s *Store) Checkpointer(model string) *ModelCheckpointer {
	return &ModelCheckpointer{store: s, model: model}
}

// Load returns the saved path of the model.
func (c *ModelCheckpointer) Load(ctx context.Context) (rt.PathSnapshot, bool, error) {
	cp, ok, err := c.store.LoadCheckpoint(ctx, c.model)
	if err != nil || !ok {
		return rt.PathSnapshot{}, false, err
	}
	return cp.Path, true, nil
}

// Save stores the path of the model.
func (c *ModelCheckpointer) Save(ctx context.Context, snap rt.PathSnapshot, iteration int) error {
	return c.store.SaveCheckpoint(ctx, c.model, snap, iteration)
}
