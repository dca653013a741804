package service

import (
	"github.com/telewarm/warmup-engine-go/internal/model"
)

// Classify decides whether an account is excluded from warmup scheduling.
// Rules are evaluated in fixed priority order; the first match wins. The
// check is pure and is re-run on every scheduling tick because lifecycle
// flags change underneath us via reconciliation and admin action.
//
// A banned account with a non-null unban date is deliberately schedulable:
// temporary bans lift on their own and the account should keep warming.
func Classify(a *model.Account) (skip bool, reason model.SkipReason) {
	switch {
	case a.IsDeleted:
		return true, model.SkipReasonDeleted
	case a.IsFrozen:
		return true, model.SkipReasonFrozen
	case a.IsBanned && a.UnbanDate == nil:
		return true, model.SkipReasonBannedForever
	case a.LLMGenerationDisabled:
		return true, model.SkipReasonManuallyDisabled
	case !a.IsActive:
		return true, model.SkipReasonInactive
	default:
		return false, ""
	}
}
