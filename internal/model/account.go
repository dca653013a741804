package model

import (
	"time"
)

// Account is one warmup-managed messaging account. Keyed by the backend
// session id; lifecycle flags are overwritten by reconciliation, progression
// fields only ever move forward.
type Account struct {
	ID                    int64      `db:"id" json:"id"`
	SessionID             string     `db:"session_id" json:"sessionId"`
	WarmupStage           int        `db:"warmup_stage" json:"warmupStage"`
	IsActive              bool       `db:"is_active" json:"isActive"`
	IsFrozen              bool       `db:"is_frozen" json:"isFrozen"`
	IsDeleted             bool       `db:"is_deleted" json:"isDeleted"`
	IsBanned              bool       `db:"is_banned" json:"isBanned"`
	IsHelper              bool       `db:"is_helper" json:"isHelper"`
	UnbanDate             *time.Time `db:"unban_date" json:"unbanDate,omitempty"`
	MinDailyActivity      int        `db:"min_daily_activity" json:"minDailyActivity"`
	MaxDailyActivity      int        `db:"max_daily_activity" json:"maxDailyActivity"`
	FirstWarmupDate       *time.Time `db:"first_warmup_date" json:"firstWarmupDate,omitempty"`
	LastWarmupDate        *time.Time `db:"last_warmup_date" json:"lastWarmupDate,omitempty"`
	WarmupStartDelayUntil *time.Time `db:"warmup_start_delay_until" json:"warmupStartDelayUntil,omitempty"`
	LLMGenerationDisabled bool       `db:"llm_generation_disabled" json:"llmGenerationDisabled"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updatedAt"`
}

// TemporarilyBanned reports whether the account carries a ban that is
// expected to lift. Such accounts stay schedulable.
func (a *Account) TemporarilyBanned() bool {
	return a.IsBanned && a.UnbanDate != nil
}

type CreateAccountParams struct {
	SessionID        string
	MinDailyActivity int
	MaxDailyActivity int
	StartDelayUntil  time.Time
}

type UpdateAccountParams struct {
	IsActive              *bool
	LLMGenerationDisabled *bool
	MinDailyActivity      *int
	MaxDailyActivity      *int
}
