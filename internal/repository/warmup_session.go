package repository

import (
	"context"
	"encoding/json"

	"github.com/telewarm/warmup-engine-go/internal/database"
	"github.com/telewarm/warmup-engine-go/internal/model"
)

type WarmupSessionRepository interface {
	Create(ctx context.Context, params model.CreateWarmupSessionParams) (*model.WarmupSession, error)
	Finalize(ctx context.Context, params model.FinalizeWarmupSessionParams) (*model.WarmupSession, error)
	FindByID(ctx context.Context, id string) (*model.WarmupSession, error)
	FindBySessionID(ctx context.Context, sessionID string, limit, offset int) ([]model.WarmupSession, error)
	CountInFlight(ctx context.Context, sessionID string) (int, error)
}

type warmupSessionRepo struct {
	db *database.DB
}

func NewWarmupSessionRepository(db *database.DB) WarmupSessionRepository {
	return &warmupSessionRepo{db: db}
}

func (r *warmupSessionRepo) Create(ctx context.Context, params model.CreateWarmupSessionParams) (*model.WarmupSession, error) {
	plan := params.Plan
	if plan == nil {
		plan = json.RawMessage(`[]`)
	}

	var ws model.WarmupSession
	err := r.db.GetContext(ctx, &ws, `
		INSERT INTO warmup_sessions (id, session_id, stage, status, planned_count, plan)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.ID, params.SessionID, params.Stage, model.WarmupStatusInProgress,
		countPlanned(plan), plan)
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *warmupSessionRepo) Finalize(ctx context.Context, params model.FinalizeWarmupSessionParams) (*model.WarmupSession, error) {
	var ws model.WarmupSession
	err := r.db.GetContext(ctx, &ws, `
		UPDATE warmup_sessions SET
			status = $2,
			completed_count = $3,
			failed_count = $4,
			summary = $5,
			finished_at = NOW()
		WHERE id = $1 AND status = $6
		RETURNING *
	`, params.ID, params.Status, params.CompletedCount, params.FailedCount,
		params.Summary, model.WarmupStatusInProgress)
	return HandleNotFound(&ws, err)
}

func (r *warmupSessionRepo) FindByID(ctx context.Context, id string) (*model.WarmupSession, error) {
	var ws model.WarmupSession
	err := r.db.GetContext(ctx, &ws, `
		SELECT * FROM warmup_sessions WHERE id = $1
	`, id)
	return HandleNotFound(&ws, err)
}

func (r *warmupSessionRepo) FindBySessionID(ctx context.Context, sessionID string, limit, offset int) ([]model.WarmupSession, error) {
	var sessions []model.WarmupSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM warmup_sessions
		WHERE session_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *warmupSessionRepo) CountInFlight(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM warmup_sessions
		WHERE session_id = $1 AND status = $2
	`, sessionID, model.WarmupStatusInProgress)
	return count, err
}

func countPlanned(plan json.RawMessage) int {
	var actions []json.RawMessage
	if err := json.Unmarshal(plan, &actions); err != nil {
		return 0
	}
	return len(actions)
}
