package persistence

import (
	"context"
	"time"

	"github.com/aruvell/marksub/internal/translator"
)

// SaveCheckpoints upserts one batch worth of recovered translations for a
// run. All items land in a single transaction so a crash cannot leave a
// batch half-recorded.
func (s *SQLiteStore) SaveCheckpoints(ctx context.Context, runID string, items []translator.CheckpointItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, item := range items {
		if _, err = tx.ExecContext(
			ctx,
			`INSERT INTO run_checkpoints (run_id, pos, text, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(run_id, pos) DO UPDATE SET
				text=excluded.text,
				updated_at=excluded.updated_at`,
			runID,
			item.Pos,
			item.Text,
			now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadCheckpoints returns every recovered translation for a run ordered
// by position.
func (s *SQLiteStore) LoadCheckpoints(ctx context.Context, runID string) ([]translator.CheckpointItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT pos, text
		 FROM run_checkpoints
		 WHERE run_id = ?
		 ORDER BY pos ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]translator.CheckpointItem, 0)
	for rows.Next() {
		var item translator.CheckpointItem
		if err := rows.Scan(&item.Pos, &item.Text); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// RunCheckpoints adapts the store to the pipeline checkpoint interface.
type RunCheckpoints struct {
	store *SQLiteStore
}

func (s *SQLiteStore) Checkpoints() RunCheckpoints {
	return RunCheckpoints{store: s}
}

func (r RunCheckpoints) Load(ctx context.Context, runID string) ([]translator.CheckpointItem, error) {
	return r.store.LoadCheckpoints(ctx, runID)
}

func (r RunCheckpoints) Save(ctx context.Context, runID string, items []translator.CheckpointItem) error {
	return r.store.SaveCheckpoints(ctx, runID, items)
}
