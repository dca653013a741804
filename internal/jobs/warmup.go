package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/telewarm/warmup-engine-go/internal/config"
	apperrors "github.com/telewarm/warmup-engine-go/internal/errors"
	"github.com/telewarm/warmup-engine-go/internal/repository"
	"github.com/telewarm/warmup-engine-go/internal/service"
)

const retentionSweepInterval = time.Hour

// WarmupScheduler is the driving loop. On every tick it reconciles when
// due, walks the eligible fleet and runs a cycle for each account whose
// scheduled time has arrived. Accounts are processed sequentially, one at a
// time; the per-account lease inside WarmupService keeps a concurrent
// manual trigger from doubling up on the same account.
type WarmupScheduler struct {
	accounts   repository.AccountRepository
	history    repository.ActionHistoryRepository
	warmup     *service.WarmupService
	reconciler *service.Reconciler
	policy     *service.SchedulePolicy

	tick             time.Duration
	reconcileEnabled bool
	retention        time.Duration

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	lastSweep time.Time
}

func NewWarmupScheduler(
	accounts repository.AccountRepository,
	history repository.ActionHistoryRepository,
	warmup *service.WarmupService,
	reconciler *service.Reconciler,
	policy *service.SchedulePolicy,
	tick time.Duration,
	reconcileEnabled bool,
	retention time.Duration,
) *WarmupScheduler {
	return &WarmupScheduler{
		accounts:         accounts,
		history:          history,
		warmup:           warmup,
		reconciler:       reconciler,
		policy:           policy,
		tick:             tick,
		reconcileEnabled: reconcileEnabled,
		retention:        retention,
	}
}

// Start launches the loop. Starting an already-running scheduler is a
// warning-level no-op.
func (s *WarmupScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn().Msg("warmup scheduler already running, start ignored")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.run(ctx, done)
	log.Info().Dur("tick", s.tick).Bool("reconcile", s.reconcileEnabled).Msg("warmup scheduler started")
}

// Stop cancels the loop and waits for the in-flight tick to finish, so a
// partially-started cycle is never silently abandoned mid-flight. Stopping
// a stopped scheduler is a warning-level no-op.
func (s *WarmupScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		log.Warn().Msg("warmup scheduler not running, stop ignored")
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	cancel()
	<-done
	log.Info().Msg("warmup scheduler stopped")
}

// Running reports the scheduler state.
func (s *WarmupScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *WarmupScheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	// Cold-start consistency: reconcile once before the first tick so the
	// loop never schedules against stale flags from a previous run.
	if s.reconcileEnabled && s.reconciler != nil {
		if err := s.reconciler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("initial reconciliation failed")
		}
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.tickOnce(ctx); err != nil {
				// Storage trouble: back off briefly and let the next tick
				// retry. The process must keep converging, not die.
				log.Error().Err(err).Dur("backoff", config.StorageBackoff).Msg("scheduler tick failed, backing off")
				select {
				case <-ctx.Done():
					return
				case <-time.After(config.StorageBackoff):
				}
			}
		}
	}
}

func (s *WarmupScheduler) tickOnce(ctx context.Context) error {
	now := time.Now()

	if s.reconcileEnabled && s.reconciler != nil {
		due, err := s.reconciler.Due(ctx, now)
		if err != nil {
			return err
		}
		if due {
			if err := s.reconciler.Run(ctx); err != nil {
				// A failed pass retries wholesale once it is due again.
				log.Error().Err(err).Msg("reconciliation failed")
			}
		}
	}

	s.sweepHistory(ctx, now)

	candidates, err := s.accounts.ListWarmupCandidates(ctx)
	if err != nil {
		return err
	}

	var ran, skipped int
	for i := range candidates {
		if ctx.Err() != nil {
			return nil
		}

		account := &candidates[i]

		// Flags may have moved since the query; re-classify before acting.
		if skip, reason := service.Classify(account); skip {
			log.Debug().
				Str("sessionId", account.SessionID).
				Str("reason", string(reason)).
				Msg("account skipped")
			skipped++
			continue
		}

		decision := s.policy.ShouldRun(account, time.Now())
		if !decision.Run {
			continue
		}

		if _, err := s.warmup.RunCycle(ctx, account); err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeCycleInProgress {
				log.Debug().Str("sessionId", account.SessionID).Msg("cycle already in progress, skipping")
				continue
			}
			log.Error().Err(err).Str("sessionId", account.SessionID).Msg("warmup cycle failed")
			continue
		}
		ran++
	}

	if ran > 0 || skipped > 0 {
		log.Info().
			Int("candidates", len(candidates)).
			Int("ran", ran).
			Int("skipped", skipped).
			Msg("scheduler tick completed")
	}

	return nil
}

// sweepHistory trims old action-history rows roughly once an hour. Audit
// data only; losing it never affects scheduling.
func (s *WarmupScheduler) sweepHistory(ctx context.Context, now time.Time) {
	if s.retention <= 0 || now.Sub(s.lastSweep) < retentionSweepInterval {
		return
	}
	s.lastSweep = now

	count, err := s.history.DeleteOlderThan(ctx, now.Add(-s.retention))
	if err != nil {
		log.Error().Err(err).Msg("failed to trim action history")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("trimmed action history")
	}
}
