package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/telewarm/warmup-engine-go/internal/messaging"
	"github.com/telewarm/warmup-engine-go/internal/model"
	"github.com/telewarm/warmup-engine-go/internal/repository"
)

const historyFetchLimit = 20

// Executor runs an ordered action plan against the messaging backend.
// One failed step never aborts the plan; the failure is recorded and the
// next step runs. Pacing delays between steps keep the activity from
// looking mechanical.
type Executor struct {
	backend  messaging.Client
	history  repository.ActionHistoryRepository
	minDelay time.Duration
	maxDelay time.Duration

	// sleep is swappable in tests so pacing does not slow them down.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewExecutor(backend messaging.Client, history repository.ActionHistoryRepository, minDelay, maxDelay time.Duration) *Executor {
	return &Executor{
		backend:  backend,
		history:  history,
		minDelay: minDelay,
		maxDelay: maxDelay,
		sleep:    sleepCtx,
	}
}

// Execute runs every action in order and returns the summary. The summary
// is complete even when the context is cancelled midway; remaining actions
// are recorded as failed.
func (e *Executor) Execute(ctx context.Context, sessionID string, plan []model.Action) model.ExecutionSummary {
	summary := model.ExecutionSummary{
		Total:   len(plan),
		Results: make([]model.ActionResult, 0, len(plan)),
	}

	for i := range plan {
		action := &plan[i]

		if err := ctx.Err(); err != nil {
			e.markCancelled(&summary, plan, i)
			break
		}

		detail, err := e.dispatch(ctx, sessionID, action)
		result := model.ActionResult{Index: i, Type: action.Type, Detail: detail}

		if err != nil {
			result.Detail = ""
			result.Error = err.Error()
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("step %d (%s): %v", i, action.Type, err))
			log.Warn().
				Err(err).
				Str("sessionId", sessionID).
				Str("actionType", string(action.Type)).
				Int("step", i).
				Msg("warmup action failed")
		} else {
			result.OK = true
			summary.Successful++
			if recErr := e.history.Record(ctx, sessionID, action.Type, detail); recErr != nil {
				log.Error().Err(recErr).Str("sessionId", sessionID).Msg("failed to record action history")
			}
		}

		summary.Results = append(summary.Results, result)

		if i < len(plan)-1 {
			if err := e.pause(ctx); err != nil {
				e.markCancelled(&summary, plan, i+1)
				break
			}
		}
	}

	return summary
}

func (e *Executor) markCancelled(summary *model.ExecutionSummary, plan []model.Action, from int) {
	for i := from; i < len(plan); i++ {
		summary.Failed++
		summary.Results = append(summary.Results, model.ActionResult{
			Index: i,
			Type:  plan[i].Type,
			Error: context.Canceled.Error(),
		})
	}
	summary.Errors = append(summary.Errors, "execution cancelled")
}

func (e *Executor) dispatch(ctx context.Context, sessionID string, a *model.Action) (string, error) {
	switch a.Type {
	case model.ActionJoinChannel:
		return "joined " + a.ChannelUsername,
			e.backend.JoinChannel(ctx, sessionID, a.ChannelUsername)

	case model.ActionReadMessages:
		if _, err := e.backend.History(ctx, sessionID, a.ChannelUsername, historyFetchLimit); err != nil {
			return "", err
		}
		return "read " + a.ChannelUsername, e.dwell(ctx, a.DurationSeconds)

	case model.ActionIdle:
		return fmt.Sprintf("idled %ds", a.DurationSeconds), e.dwell(ctx, a.DurationSeconds)

	case model.ActionViewProfile:
		if _, err := e.backend.ResolvePeer(ctx, sessionID, a.ChannelUsername); err != nil {
			return "", err
		}
		return "viewed " + a.ChannelUsername, e.dwell(ctx, a.DurationSeconds)

	case model.ActionReactToMessage:
		return "reacted in " + a.ChannelUsername,
			e.backend.SendReaction(ctx, sessionID, a.ChannelUsername)

	case model.ActionMessageBot:
		return "messaged " + a.BotUsername,
			e.backend.SendMessage(ctx, sessionID, a.BotUsername, a.Message)

	case model.ActionReplyToDM:
		return "replied to dm " + a.ConversationID,
			e.backend.SendMessage(ctx, sessionID, a.ConversationID, a.Message)

	case model.ActionReplyInChat:
		if a.ReplyText == "" {
			// No text supplied: read the chat instead of posting.
			_, err := e.backend.History(ctx, sessionID, a.ChatUsername, historyFetchLimit)
			return "lurked in " + a.ChatUsername, err
		}
		return "replied in " + a.ChatUsername,
			e.backend.SendMessage(ctx, sessionID, a.ChatUsername, a.ReplyText)

	case model.ActionUpdateProfile:
		return "updated bio", e.backend.UpdateProfile(ctx, sessionID, a.Bio)

	case model.ActionSyncContacts:
		return "synced contacts", e.backend.SyncContacts(ctx, sessionID)

	case model.ActionUpdatePrivacy:
		return "updated privacy", e.backend.UpdatePrivacy(ctx, sessionID)

	case model.ActionCreateGroup:
		return "created group " + a.GroupName,
			e.backend.CreateGroup(ctx, sessionID, a.GroupName)

	case model.ActionForwardMessage:
		return fmt.Sprintf("forwarded %s -> %s", a.FromChat, a.ToChat),
			e.backend.ForwardMessage(ctx, sessionID, a.FromChat, a.ToChat)

	default:
		// Unknown types are rejected at the plan boundary; reaching this
		// arm means the plan bypassed sanitization.
		return "", fmt.Errorf("unhandled action type %q", a.Type)
	}
}

// pause sleeps a randomized delay between actions. One run in ten gets an
// extra 5-10s tacked on.
func (e *Executor) pause(ctx context.Context) error {
	d := e.minDelay
	if e.maxDelay > e.minDelay {
		d += time.Duration(rand.Int63n(int64(e.maxDelay - e.minDelay + 1)))
	}
	if rand.Float64() < 0.1 {
		d += 5*time.Second + time.Duration(rand.Int63n(int64(5*time.Second)))
	}
	return e.sleep(ctx, d)
}

func (e *Executor) dwell(ctx context.Context, seconds int) error {
	return e.sleep(ctx, time.Duration(seconds)*time.Second)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
