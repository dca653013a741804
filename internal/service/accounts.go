package service

import (
	"context"
	"math/rand"
	"time"

	apperrors "github.com/telewarm/warmup-engine-go/internal/errors"
	"github.com/telewarm/warmup-engine-go/internal/model"
	"github.com/telewarm/warmup-engine-go/internal/repository"
)

// AccountService is the ops-facing surface over the account store.
type AccountService struct {
	accounts      repository.AccountRepository
	sessions      repository.WarmupSessionRepository
	history       repository.ActionHistoryRepository
	maxStartDelay time.Duration
}

func NewAccountService(
	accounts repository.AccountRepository,
	sessions repository.WarmupSessionRepository,
	history repository.ActionHistoryRepository,
	maxStartDelay time.Duration,
) *AccountService {
	return &AccountService{
		accounts:      accounts,
		sessions:      sessions,
		history:       history,
		maxStartDelay: maxStartDelay,
	}
}

type RegisterAccountInput struct {
	SessionID        string `json:"sessionId"`
	MinDailyActivity int    `json:"minDailyActivity"`
	MaxDailyActivity int    `json:"maxDailyActivity"`
}

// Register creates a new account with a randomized first-run delay so fresh
// batches do not all start warming at the same instant.
func (s *AccountService) Register(ctx context.Context, input RegisterAccountInput) (*model.Account, error) {
	if input.SessionID == "" {
		return nil, apperrors.MissingRequired("sessionId")
	}
	if input.MinDailyActivity < 1 {
		return nil, apperrors.InvalidInput("minDailyActivity", "must be at least 1")
	}
	if input.MaxDailyActivity < input.MinDailyActivity {
		return nil, apperrors.InvalidInput("maxDailyActivity", "must be >= minDailyActivity")
	}

	existing, err := s.accounts.FindBySessionID(ctx, input.SessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("Account")
	}

	account, err := s.accounts.Create(ctx, model.CreateAccountParams{
		SessionID:        input.SessionID,
		MinDailyActivity: input.MinDailyActivity,
		MaxDailyActivity: input.MaxDailyActivity,
		StartDelayUntil:  RandomStartDelay(time.Now(), s.maxStartDelay),
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, sessionID string) (*model.Account, error) {
	account, err := s.accounts.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context, limit, offset int) ([]model.Account, int, error) {
	accounts, err := s.accounts.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	total, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	return accounts, total, nil
}

func (s *AccountService) Update(ctx context.Context, sessionID string, params model.UpdateAccountParams) (*model.Account, error) {
	if params.MinDailyActivity != nil && *params.MinDailyActivity < 1 {
		return nil, apperrors.InvalidInput("minDailyActivity", "must be at least 1")
	}

	account, err := s.accounts.Update(ctx, sessionID, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}
	return account, nil
}

func (s *AccountService) WarmupSessions(ctx context.Context, sessionID string, limit, offset int) ([]model.WarmupSession, error) {
	sessions, err := s.sessions.FindBySessionID(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return sessions, nil
}

func (s *AccountService) ActionHistory(ctx context.Context, sessionID string, limit, offset int) ([]model.ActionHistoryEntry, error) {
	entries, err := s.history.FindBySessionID(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return entries, nil
}

// RandomStartDelay picks the first-run gate for a new account, uniform in
// [now, now+max].
func RandomStartDelay(now time.Time, max time.Duration) time.Time {
	if max <= 0 {
		return now
	}
	return now.Add(time.Duration(rand.Int63n(int64(max))))
}
