package repository

import (
	"context"
	"time"

	"github.com/telewarm/warmup-engine-go/internal/database"
	"github.com/telewarm/warmup-engine-go/internal/model"
)

type SyncStateRepository interface {
	Get(ctx context.Context) (*model.SyncState, error)
	Advance(ctx context.Context, at time.Time) error
}

type syncStateRepo struct {
	db *database.DB
}

func NewSyncStateRepository(db *database.DB) SyncStateRepository {
	return &syncStateRepo{db: db}
}

func (r *syncStateRepo) Get(ctx context.Context) (*model.SyncState, error) {
	var state model.SyncState
	err := r.db.GetContext(ctx, &state, `
		SELECT * FROM sync_state WHERE id = 1
	`)
	return HandleNotFound(&state, err)
}

func (r *syncStateRepo) Advance(ctx context.Context, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (id, last_synced_at, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE
		SET last_synced_at = EXCLUDED.last_synced_at, updated_at = NOW()
	`, at)
	return err
}
