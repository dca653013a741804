package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/telewarm/warmup-engine-go/internal/config"
	"github.com/telewarm/warmup-engine-go/internal/database"
	"github.com/telewarm/warmup-engine-go/internal/model"
)

type AccountRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) (*model.Account, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Account, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	Update(ctx context.Context, sessionID string, params model.UpdateAccountParams) (*model.Account, error)

	// ListWarmupCandidates returns accounts that pass the coarse SQL
	// eligibility filter. Callers re-classify each account before acting;
	// flags can change between the query and the cycle.
	ListWarmupCandidates(ctx context.Context) ([]model.Account, error)

	SetFirstWarmup(ctx context.Context, sessionID string, at time.Time) error
	SetLastWarmup(ctx context.Context, sessionID string, at time.Time) error
	SetStage(ctx context.Context, sessionID string, stage int) error

	// Reconciliation set replacement. Each call is all-or-nothing: the
	// reset and the chunked re-apply share one transaction.
	ReplaceFrozenSet(ctx context.Context, sessionIDs []string) error
	ReplaceDeletedSet(ctx context.Context, sessionIDs []string) error
	ApplyPermanentBans(ctx context.Context, sessionIDs []string) error
	ReplaceHelperSet(ctx context.Context, sessionIDs []string) error
}

type accountRepo struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE session_id = $1
	`, sessionID)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts`)
	return count, err
}

func (r *accountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO accounts (session_id, min_daily_activity, max_daily_activity, warmup_start_delay_until)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.SessionID, params.MinDailyActivity, params.MaxDailyActivity, params.StartDelayUntil)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) Update(ctx context.Context, sessionID string, params model.UpdateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			is_active = COALESCE($2, is_active),
			llm_generation_disabled = COALESCE($3, llm_generation_disabled),
			min_daily_activity = COALESCE($4, min_daily_activity),
			max_daily_activity = COALESCE($5, max_daily_activity),
			updated_at = NOW()
		WHERE session_id = $1
		RETURNING *
	`, sessionID, params.IsActive, params.LLMGenerationDisabled,
		params.MinDailyActivity, params.MaxDailyActivity)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) ListWarmupCandidates(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM accounts
		WHERE is_active = TRUE
		  AND is_deleted = FALSE
		  AND is_frozen = FALSE
		  AND llm_generation_disabled = FALSE
		  AND NOT (is_banned = TRUE AND unban_date IS NULL)
		ORDER BY last_warmup_date ASC NULLS FIRST
	`)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) SetFirstWarmup(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET first_warmup_date = $2, updated_at = NOW()
		WHERE session_id = $1 AND first_warmup_date IS NULL
	`, sessionID, at)
	return err
}

func (r *accountRepo) SetLastWarmup(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET last_warmup_date = $2, updated_at = NOW()
		WHERE session_id = $1
	`, sessionID, at)
	return err
}

func (r *accountRepo) SetStage(ctx context.Context, sessionID string, stage int) error {
	// warmup_stage is monotonic non-decreasing; GREATEST guards against
	// a stale caller racing a newer write.
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET warmup_stage = GREATEST(warmup_stage, $2), updated_at = NOW()
		WHERE session_id = $1
	`, sessionID, stage)
	return err
}

func (r *accountRepo) ReplaceFrozenSet(ctx context.Context, sessionIDs []string) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE accounts SET is_frozen = FALSE, updated_at = NOW()
			WHERE is_frozen = TRUE
		`); err != nil {
			return err
		}
		return execChunkedIn(ctx, tx, `
			UPDATE accounts SET is_frozen = TRUE, updated_at = NOW()
			WHERE session_id IN (?)
		`, sessionIDs)
	})
}

func (r *accountRepo) ReplaceDeletedSet(ctx context.Context, sessionIDs []string) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE accounts SET is_deleted = FALSE, updated_at = NOW()
			WHERE is_deleted = TRUE
		`); err != nil {
			return err
		}
		return execChunkedIn(ctx, tx, `
			UPDATE accounts SET is_deleted = TRUE, updated_at = NOW()
			WHERE session_id IN (?)
		`, sessionIDs)
	})
}

func (r *accountRepo) ApplyPermanentBans(ctx context.Context, sessionIDs []string) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Anything currently banned but absent from the permanent set
		// gets a far-future unban date so it reads as temporary.
		if _, err := tx.ExecContext(ctx, `
			UPDATE accounts SET unban_date = $1, updated_at = NOW()
			WHERE is_banned = TRUE AND unban_date IS NULL
		`, config.FarFutureUnban); err != nil {
			return err
		}
		return execChunkedIn(ctx, tx, `
			UPDATE accounts SET is_banned = TRUE, unban_date = NULL, updated_at = NOW()
			WHERE session_id IN (?)
		`, sessionIDs)
	})
}

func (r *accountRepo) ReplaceHelperSet(ctx context.Context, sessionIDs []string) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE accounts SET is_helper = FALSE, updated_at = NOW()
			WHERE is_helper = TRUE
		`); err != nil {
			return err
		}
		return execChunkedIn(ctx, tx, `
			UPDATE accounts SET is_helper = TRUE, updated_at = NOW()
			WHERE session_id IN (?)
		`, sessionIDs)
	})
}

// execChunkedIn expands and runs an IN-list update in chunks so a large id
// set never exceeds the driver's parameter limit.
func execChunkedIn(ctx context.Context, tx *sqlx.Tx, query string, ids []string) error {
	for _, chunk := range Chunk(ids, config.BulkUpdateChunkSize) {
		q, args, err := sqlx.In(query, chunk)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
			return err
		}
	}
	return nil
}
