package repository

import (
	"context"
	"time"

	"github.com/telewarm/warmup-engine-go/internal/database"
	"github.com/telewarm/warmup-engine-go/internal/model"
)

type ActionHistoryRepository interface {
	Record(ctx context.Context, sessionID string, actionType model.ActionType, detail string) error
	FindBySessionID(ctx context.Context, sessionID string, limit, offset int) ([]model.ActionHistoryEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type actionHistoryRepo struct {
	db *database.DB
}

func NewActionHistoryRepository(db *database.DB) ActionHistoryRepository {
	return &actionHistoryRepo{db: db}
}

func (r *actionHistoryRepo) Record(ctx context.Context, sessionID string, actionType model.ActionType, detail string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO action_history (session_id, action_type, detail)
		VALUES ($1, $2, $3)
	`, sessionID, actionType, detail)
	return err
}

func (r *actionHistoryRepo) FindBySessionID(ctx context.Context, sessionID string, limit, offset int) ([]model.ActionHistoryEntry, error) {
	var entries []model.ActionHistoryEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM action_history
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *actionHistoryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM action_history WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
