package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/telewarm/warmup-engine-go/internal/model"
	"github.com/telewarm/warmup-engine-go/internal/planner"
)

// minUsableActions is the floor below which a sanitized plan is replaced by
// the idle-only fallback.
const minUsableActions = 3

// PlanService obtains an action plan from the external planner and enforces
// the executor's input contract: no unknown types, no missing fields, no
// duplicate channel joins.
type PlanService struct {
	planner planner.Client
}

func NewPlanService(p planner.Client) *PlanService {
	return &PlanService{planner: p}
}

// BuildPlan fetches and sanitizes a plan for the account. Planner failures
// and over-aggressive sanitization both degrade to the fallback plan rather
// than aborting the cycle.
func (s *PlanService) BuildPlan(ctx context.Context, sessionID string, stage, dailyCount int) []model.Action {
	raw, err := s.planner.GeneratePlan(ctx, planner.PlanRequest{
		SessionID:     sessionID,
		Stage:         stage,
		DailyActivity: dailyCount,
	})
	if err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("planner unavailable, using fallback plan")
		return FallbackPlan()
	}

	plan := Sanitize(raw)
	if len(plan) < minUsableActions {
		log.Warn().
			Str("sessionId", sessionID).
			Int("planned", len(raw)).
			Int("usable", len(plan)).
			Msg("too few usable actions after validation, using fallback plan")
		return FallbackPlan()
	}

	return plan
}

// Sanitize drops invalid actions and de-duplicates repeated join_channel
// targets, preserving order.
func Sanitize(actions []model.Action) []model.Action {
	out := make([]model.Action, 0, len(actions))
	joined := make(map[string]bool)

	for i := range actions {
		a := actions[i]

		if err := a.Validate(); err != nil {
			log.Debug().Err(err).Str("actionType", string(a.Type)).Msg("dropping invalid action")
			continue
		}

		if a.Type == model.ActionJoinChannel {
			if joined[a.ChannelUsername] {
				continue
			}
			joined[a.ChannelUsername] = true
		}

		out = append(out, a)
	}

	return out
}

// FallbackPlan is a safe idle-only plan used when the planner fails or
// produces too few usable actions.
func FallbackPlan() []model.Action {
	plan := make([]model.Action, minUsableActions)
	for i := range plan {
		plan[i] = model.Action{
			Type:            model.ActionIdle,
			DurationSeconds: 60 + rand.Intn(240),
			Reason:          fmt.Sprintf("fallback idle %d", i+1),
		}
	}
	return plan
}
