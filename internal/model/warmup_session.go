package model

import (
	"encoding/json"
	"time"
)

// WarmupSession records one executed warmup cycle for an account. Created
// when the cycle starts, finalized when it ends, immutable afterwards.
type WarmupSession struct {
	ID             string              `db:"id" json:"id"`
	SessionID      string              `db:"session_id" json:"sessionId"`
	Stage          int                 `db:"stage" json:"stage"`
	Status         WarmupSessionStatus `db:"status" json:"status"`
	PlannedCount   int                 `db:"planned_count" json:"plannedCount"`
	CompletedCount int                 `db:"completed_count" json:"completedCount"`
	FailedCount    int                 `db:"failed_count" json:"failedCount"`
	Plan           json.RawMessage     `db:"plan" json:"plan,omitempty"`
	Summary        *json.RawMessage    `db:"summary" json:"summary,omitempty"`
	StartedAt      time.Time           `db:"started_at" json:"startedAt"`
	FinishedAt     *time.Time          `db:"finished_at" json:"finishedAt,omitempty"`
}

type CreateWarmupSessionParams struct {
	ID        string
	SessionID string
	Stage     int
	Plan      json.RawMessage
}

type FinalizeWarmupSessionParams struct {
	ID             string
	Status         WarmupSessionStatus
	CompletedCount int
	FailedCount    int
	Summary        json.RawMessage
}

// ActionResult is the outcome of a single executed step.
type ActionResult struct {
	Index  int        `json:"index"`
	Type   ActionType `json:"type"`
	OK     bool       `json:"ok"`
	Detail string     `json:"detail,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// ExecutionSummary is persisted verbatim inside the owning WarmupSession.
type ExecutionSummary struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Results    []ActionResult `json:"results"`
	Errors     []string       `json:"errors,omitempty"`
}

// ActionHistoryEntry is a lightweight audit record of one executed action.
// It is never consulted for scheduling decisions.
type ActionHistoryEntry struct {
	ID         int64      `db:"id" json:"id"`
	SessionID  string     `db:"session_id" json:"sessionId"`
	ActionType ActionType `db:"action_type" json:"actionType"`
	Detail     string     `db:"detail" json:"detail,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// SyncState is the single process-wide reconciliation cursor. Advanced only
// after a fully successful reconciliation pass.
type SyncState struct {
	ID           int        `db:"id" json:"id"`
	LastSyncedAt *time.Time `db:"last_synced_at" json:"lastSyncedAt,omitempty"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}
