package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/telewarm/warmup-engine-go/internal/repository"
	"github.com/telewarm/warmup-engine-go/internal/sor"
	"github.com/telewarm/warmup-engine-go/internal/sse"
)

// Reconciler pulls authoritative frozen/deleted/banned status from the
// system of record and overwrites the local flags. Every pass is a full
// resync: each sub-sync fetches the complete remote set first and then
// applies it in one transaction, so a failed fetch never leaves flags half
// updated. The cursor only advances when all core sub-syncs succeed, which
// makes a failed pass retry wholesale on the next due tick.
type Reconciler struct {
	registry  sor.Client
	accounts  repository.AccountRepository
	syncState repository.SyncStateRepository
	interval  time.Duration
	events    EventPublisher
}

func NewReconciler(registry sor.Client, accounts repository.AccountRepository, syncState repository.SyncStateRepository, interval time.Duration, events EventPublisher) *Reconciler {
	return &Reconciler{
		registry:  registry,
		accounts:  accounts,
		syncState: syncState,
		interval:  interval,
		events:    events,
	}
}

// Due reports whether a reconciliation pass should run now. An empty cursor
// always counts as due.
func (r *Reconciler) Due(ctx context.Context, now time.Time) (bool, error) {
	state, err := r.syncState.Get(ctx)
	if err != nil {
		return false, err
	}
	if state == nil || state.LastSyncedAt == nil {
		return true, nil
	}
	return now.Sub(*state.LastSyncedAt) >= r.interval, nil
}

// Run executes one full reconciliation pass. The three core sub-syncs are
// independent; a failure in one does not block the others.
func (r *Reconciler) Run(ctx context.Context) error {
	start := time.Now()

	var errs []error
	errs = append(errs, r.subSync(ctx, "frozen", r.registry.FrozenSessions, r.accounts.ReplaceFrozenSet))
	errs = append(errs, r.subSync(ctx, "deleted", r.registry.DeletedSessions, r.accounts.ReplaceDeletedSet))
	errs = append(errs, r.subSync(ctx, "banned", r.registry.PermanentlyBannedSessions, r.accounts.ApplyPermanentBans))

	// Helper accounts are synced on the same cadence but sit outside core
	// scheduling, so a helper failure does not hold the cursor back.
	if err := r.subSync(ctx, "helper", r.registry.HelperSessions, r.accounts.ReplaceHelperSet); err != nil {
		log.Warn().Err(err).Msg("helper account sync failed")
	}

	if err := errors.Join(errs...); err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("reconciliation pass incomplete, cursor not advanced")
		return err
	}

	if err := r.syncState.Advance(ctx, time.Now()); err != nil {
		return fmt.Errorf("advance sync cursor: %w", err)
	}

	if r.events != nil {
		if err := r.events.Publish(ctx, sse.EventReconciled, map[string]any{
			"elapsedMs": time.Since(start).Milliseconds(),
		}); err != nil {
			log.Debug().Err(err).Msg("failed to publish reconcile event")
		}
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("reconciliation pass completed")
	return nil
}

func (r *Reconciler) subSync(
	ctx context.Context,
	name string,
	fetch func(context.Context) ([]string, error),
	apply func(context.Context, []string) error,
) error {
	ids, err := fetch(ctx)
	if err != nil {
		return fmt.Errorf("%s sync: fetch: %w", name, err)
	}

	if err := apply(ctx, ids); err != nil {
		return fmt.Errorf("%s sync: apply: %w", name, err)
	}

	log.Debug().Str("sync", name).Int("remoteCount", len(ids)).Msg("sub-sync applied")
	return nil
}
