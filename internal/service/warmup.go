package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/telewarm/warmup-engine-go/internal/errors"
	"github.com/telewarm/warmup-engine-go/internal/model"
	"github.com/telewarm/warmup-engine-go/internal/repository"
	"github.com/telewarm/warmup-engine-go/internal/sse"
)

// EventPublisher pushes warmup lifecycle events onto the ops stream.
// *sse.Broker satisfies it; a nil publisher disables events.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// WarmupService runs complete warmup cycles: plan, execute, persist the
// session record, advance account progression. Every cycle holds the
// account's exclusive lease for its whole duration.
type WarmupService struct {
	accounts repository.AccountRepository
	sessions repository.WarmupSessionRepository
	plans    *PlanService
	executor *Executor
	leases   LeaseManager
	policy   *SchedulePolicy
	events   EventPublisher
}

func NewWarmupService(
	accounts repository.AccountRepository,
	sessions repository.WarmupSessionRepository,
	plans *PlanService,
	executor *Executor,
	leases LeaseManager,
	policy *SchedulePolicy,
	events EventPublisher,
) *WarmupService {
	return &WarmupService{
		accounts: accounts,
		sessions: sessions,
		plans:    plans,
		executor: executor,
		leases:   leases,
		policy:   policy,
		events:   events,
	}
}

// RunCycle executes one scheduled warmup cycle for the account, returning
// CycleInProgress when another cycle already holds the lease.
func (s *WarmupService) RunCycle(ctx context.Context, account *model.Account) (*model.WarmupSession, error) {
	acquired, err := s.leases.Acquire(ctx, account.SessionID)
	if err != nil {
		return nil, fmt.Errorf("acquire lease: %w", err)
	}
	if !acquired {
		return nil, apperrors.CycleInProgress(account.SessionID)
	}
	defer s.leases.Release(context.WithoutCancel(ctx), account.SessionID)

	return s.runLocked(ctx, account, uuid.NewString())
}

// TriggerNow starts a manual warmup cycle for the account. Eligibility and
// the lease are checked synchronously so the caller gets a definite answer;
// the cycle itself runs in the background and the lease is released when it
// finishes. Returns the id of the warmup session being created.
func (s *WarmupService) TriggerNow(ctx context.Context, sessionID string) (string, error) {
	account, err := s.accounts.FindBySessionID(ctx, sessionID)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if account == nil {
		return "", apperrors.NotFound("Account")
	}

	if skip, reason := Classify(account); skip {
		return "", apperrors.NotEligible(string(reason))
	}

	acquired, err := s.leases.Acquire(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("acquire lease: %w", err)
	}
	if !acquired {
		return "", apperrors.CycleInProgress(sessionID)
	}

	runID := uuid.NewString()

	go func() {
		bg := context.Background()
		defer s.leases.Release(bg, sessionID)

		if _, err := s.runLocked(bg, account, runID); err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("manual warmup cycle failed")
		}
	}()

	return runID, nil
}

// runLocked performs the cycle body. The caller must hold the account lease.
func (s *WarmupService) runLocked(ctx context.Context, account *model.Account, runID string) (*model.WarmupSession, error) {
	dailyCount := drawDailyCount(account.MinDailyActivity, account.MaxDailyActivity)
	plan := s.plans.BuildPlan(ctx, account.SessionID, account.WarmupStage, dailyCount)

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}

	ws, err := s.sessions.Create(ctx, model.CreateWarmupSessionParams{
		ID:        runID,
		SessionID: account.SessionID,
		Stage:     account.WarmupStage,
		Plan:      planJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create warmup session: %w", err)
	}

	s.publish(ctx, sse.EventCycleStarted, map[string]any{
		"sessionId":       account.SessionID,
		"warmupSessionId": ws.ID,
		"stage":           account.WarmupStage,
		"plannedCount":    len(plan),
	})

	log.Info().
		Str("sessionId", account.SessionID).
		Str("warmupSessionId", ws.ID).
		Int("stage", account.WarmupStage).
		Int("plannedCount", len(plan)).
		Msg("warmup cycle started")

	summary := s.executor.Execute(ctx, account.SessionID, plan)

	// A cycle with some failed steps is still a successful cycle; only a
	// plan where nothing landed counts as failed.
	status := model.WarmupStatusCompleted
	if summary.Total > 0 && summary.Successful == 0 {
		status = model.WarmupStatusFailed
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}

	final, err := s.sessions.Finalize(ctx, model.FinalizeWarmupSessionParams{
		ID:             ws.ID,
		Status:         status,
		CompletedCount: summary.Successful,
		FailedCount:    summary.Failed,
		Summary:        summaryJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("finalize warmup session: %w", err)
	}
	if final == nil {
		// Already finalized elsewhere; the lease should make this impossible.
		log.Warn().Str("warmupSessionId", ws.ID).Msg("warmup session was not in progress at finalize")
		final = ws
	}

	if err := s.recordProgress(ctx, account); err != nil {
		return final, err
	}

	eventType := sse.EventCycleCompleted
	if status == model.WarmupStatusFailed {
		eventType = sse.EventCycleFailed
	}
	s.publish(ctx, eventType, map[string]any{
		"sessionId":       account.SessionID,
		"warmupSessionId": final.ID,
		"successful":      summary.Successful,
		"failed":          summary.Failed,
	})

	log.Info().
		Str("sessionId", account.SessionID).
		Str("warmupSessionId", final.ID).
		Str("status", string(status)).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("warmup cycle finished")

	return final, nil
}

// recordProgress updates the account's progression fields after a cycle:
// first/last warmup timestamps and the recomputed stage. The stage write is
// skipped when nothing changed.
func (s *WarmupService) recordProgress(ctx context.Context, account *model.Account) error {
	now := time.Now()

	first := account.FirstWarmupDate
	if first == nil {
		if err := s.accounts.SetFirstWarmup(ctx, account.SessionID, now); err != nil {
			return fmt.Errorf("set first warmup: %w", err)
		}
		first = &now
	}

	if stage := s.policy.StageFor(first, now); stage != account.WarmupStage {
		if err := s.accounts.SetStage(ctx, account.SessionID, stage); err != nil {
			return fmt.Errorf("set stage: %w", err)
		}
	}

	if err := s.accounts.SetLastWarmup(ctx, account.SessionID, now); err != nil {
		return fmt.Errorf("set last warmup: %w", err)
	}

	return nil
}

func (s *WarmupService) publish(ctx context.Context, eventType string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, data); err != nil {
		log.Debug().Err(err).Str("eventType", eventType).Msg("failed to publish warmup event")
	}
}
