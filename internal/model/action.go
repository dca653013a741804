package model

import (
	"fmt"

	apperrors "github.com/telewarm/warmup-engine-go/internal/errors"
)

// Action is one planned warmup step. The planner emits a tagged variant;
// only the fields belonging to the tagged type are set. Actions live inside
// a WarmupSession's plan payload and are not persisted on their own.
type Action struct {
	Type ActionType `json:"type"`

	ChannelUsername string `json:"channel_username,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	BotUsername     string `json:"bot_username,omitempty"`
	Message         string `json:"message,omitempty"`
	ConversationID  string `json:"conversation_id,omitempty"`
	ChatUsername    string `json:"chat_username,omitempty"`
	ReplyText       string `json:"reply_text,omitempty"`
	Bio             string `json:"bio,omitempty"`
	Name            string `json:"name,omitempty"`
	GroupName       string `json:"group_name,omitempty"`
	FromChat        string `json:"from_chat,omitempty"`
	ToChat          string `json:"to_chat,omitempty"`

	Reason string `json:"reason,omitempty"`
}

// Validate checks that the action carries every field its type requires.
// Unknown types and profile name changes are rejected outright.
func (a *Action) Validate() error {
	if !KnownActionTypes[a.Type] {
		return apperrInvalidAction("unknown type %q", string(a.Type))
	}

	switch a.Type {
	case ActionJoinChannel, ActionReactToMessage:
		if a.ChannelUsername == "" {
			return apperrMissing(a.Type, "channel_username")
		}
	case ActionReadMessages, ActionViewProfile:
		if a.ChannelUsername == "" {
			return apperrMissing(a.Type, "channel_username")
		}
		if a.DurationSeconds <= 0 {
			return apperrMissing(a.Type, "duration_seconds")
		}
	case ActionIdle:
		if a.DurationSeconds <= 0 {
			return apperrMissing(a.Type, "duration_seconds")
		}
	case ActionMessageBot:
		if a.BotUsername == "" {
			return apperrMissing(a.Type, "bot_username")
		}
		if a.Message == "" {
			return apperrMissing(a.Type, "message")
		}
	case ActionReplyToDM:
		if a.ConversationID == "" {
			return apperrMissing(a.Type, "conversation_id")
		}
		if a.Message == "" {
			return apperrMissing(a.Type, "message")
		}
	case ActionReplyInChat:
		if a.ChatUsername == "" {
			return apperrMissing(a.Type, "chat_username")
		}
	case ActionUpdateProfile:
		if a.Name != "" {
			return apperrInvalidAction("profile name changes are not allowed")
		}
		if a.Bio == "" {
			return apperrMissing(a.Type, "bio")
		}
	case ActionCreateGroup:
		if a.GroupName == "" {
			return apperrMissing(a.Type, "group_name")
		}
	case ActionForwardMessage:
		if a.FromChat == "" {
			return apperrMissing(a.Type, "from_chat")
		}
		if a.ToChat == "" {
			return apperrMissing(a.Type, "to_chat")
		}
	case ActionSyncContacts, ActionUpdatePrivacy:
		// No parameters.
	}

	return nil
}

func apperrInvalidAction(format string, args ...any) error {
	return apperrors.InvalidAction(fmt.Sprintf(format, args...))
}

func apperrMissing(t ActionType, field string) error {
	return apperrors.InvalidAction(fmt.Sprintf("%s requires %s", t, field))
}
