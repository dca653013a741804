package model

// SkipReason explains why the eligibility check excluded an account
// from scheduling.
type SkipReason string

const (
	SkipReasonDeleted          SkipReason = "DELETED"
	SkipReasonFrozen           SkipReason = "FROZEN"
	SkipReasonBannedForever    SkipReason = "BANNED_FOREVER"
	SkipReasonManuallyDisabled SkipReason = "MANUALLY_DISABLED"
	SkipReasonInactive         SkipReason = "INACTIVE"
)

type WarmupSessionStatus string

const (
	WarmupStatusInProgress WarmupSessionStatus = "in_progress"
	WarmupStatusCompleted  WarmupSessionStatus = "completed"
	WarmupStatusFailed     WarmupSessionStatus = "failed"
)

type ActionType string

const (
	ActionJoinChannel    ActionType = "join_channel"
	ActionReadMessages   ActionType = "read_messages"
	ActionIdle           ActionType = "idle"
	ActionViewProfile    ActionType = "view_profile"
	ActionReactToMessage ActionType = "react_to_message"
	ActionMessageBot     ActionType = "message_bot"
	ActionReplyToDM      ActionType = "reply_to_dm"
	ActionReplyInChat    ActionType = "reply_in_chat"
	ActionUpdateProfile  ActionType = "update_profile"
	ActionSyncContacts   ActionType = "sync_contacts"
	ActionUpdatePrivacy  ActionType = "update_privacy"
	ActionCreateGroup    ActionType = "create_group"
	ActionForwardMessage ActionType = "forward_message"
)

// KnownActionTypes lists every action type the executor can dispatch.
var KnownActionTypes = map[ActionType]bool{
	ActionJoinChannel:    true,
	ActionReadMessages:   true,
	ActionIdle:           true,
	ActionViewProfile:    true,
	ActionReactToMessage: true,
	ActionMessageBot:     true,
	ActionReplyToDM:      true,
	ActionReplyInChat:    true,
	ActionUpdateProfile:  true,
	ActionSyncContacts:   true,
	ActionUpdatePrivacy:  true,
	ActionCreateGroup:    true,
	ActionForwardMessage: true,
}
