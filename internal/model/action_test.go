package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionValidate(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		wantErr string
	}{
		{
			name:   "join_channel with channel",
			action: Action{Type: ActionJoinChannel, ChannelUsername: "alpha"},
		},
		{
			name:    "join_channel without channel",
			action:  Action{Type: ActionJoinChannel},
			wantErr: "channel_username",
		},
		{
			name:   "read_messages with channel and duration",
			action: Action{Type: ActionReadMessages, ChannelUsername: "alpha", DurationSeconds: 60},
		},
		{
			name:    "read_messages without duration",
			action:  Action{Type: ActionReadMessages, ChannelUsername: "alpha"},
			wantErr: "duration_seconds",
		},
		{
			name:    "read_messages with negative duration",
			action:  Action{Type: ActionReadMessages, ChannelUsername: "alpha", DurationSeconds: -5},
			wantErr: "duration_seconds",
		},
		{
			name:   "idle with duration",
			action: Action{Type: ActionIdle, DurationSeconds: 120},
		},
		{
			name:    "idle without duration",
			action:  Action{Type: ActionIdle},
			wantErr: "duration_seconds",
		},
		{
			name:   "view_profile with channel and duration",
			action: Action{Type: ActionViewProfile, ChannelUsername: "alpha", DurationSeconds: 15},
		},
		{
			name:   "react_to_message with channel",
			action: Action{Type: ActionReactToMessage, ChannelUsername: "alpha"},
		},
		{
			name:   "message_bot with target and text",
			action: Action{Type: ActionMessageBot, BotUsername: "somebot", Message: "hi"},
		},
		{
			name:    "message_bot without text",
			action:  Action{Type: ActionMessageBot, BotUsername: "somebot"},
			wantErr: "message",
		},
		{
			name:   "reply_to_dm with conversation and text",
			action: Action{Type: ActionReplyToDM, ConversationID: "c1", Message: "hi"},
		},
		{
			name:    "reply_to_dm without conversation",
			action:  Action{Type: ActionReplyToDM, Message: "hi"},
			wantErr: "conversation_id",
		},
		{
			name:   "reply_in_chat without text is allowed",
			action: Action{Type: ActionReplyInChat, ChatUsername: "chat1"},
		},
		{
			name:    "reply_in_chat without chat",
			action:  Action{Type: ActionReplyInChat, ReplyText: "hi"},
			wantErr: "chat_username",
		},
		{
			name:   "update_profile with bio",
			action: Action{Type: ActionUpdateProfile, Bio: "just vibes"},
		},
		{
			name:    "update_profile with name change is rejected",
			action:  Action{Type: ActionUpdateProfile, Bio: "just vibes", Name: "New Name"},
			wantErr: "name changes",
		},
		{
			name:    "update_profile without bio",
			action:  Action{Type: ActionUpdateProfile},
			wantErr: "bio",
		},
		{
			name:   "sync_contacts takes no parameters",
			action: Action{Type: ActionSyncContacts},
		},
		{
			name:   "update_privacy takes no parameters",
			action: Action{Type: ActionUpdatePrivacy},
		},
		{
			name:   "create_group with name",
			action: Action{Type: ActionCreateGroup, GroupName: "weekend plans"},
		},
		{
			name:   "forward_message with both chats",
			action: Action{Type: ActionForwardMessage, FromChat: "a", ToChat: "b"},
		},
		{
			name:    "forward_message without target",
			action:  Action{Type: ActionForwardMessage, FromChat: "a"},
			wantErr: "to_chat",
		},
		{
			name:    "unknown type",
			action:  Action{Type: ActionType("levitate")},
			wantErr: "unknown type",
		},
		{
			name:    "empty type",
			action:  Action{},
			wantErr: "unknown type",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.action.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestActionJSONOmitsUnsetFields(t *testing.T) {
	raw, err := json.Marshal(Action{Type: ActionIdle, DurationSeconds: 60})
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"idle","duration_seconds":60}`, string(raw))
}

func TestActionJSONRoundTrip(t *testing.T) {
	in := `{"type":"reply_in_chat","chat_username":"chat1","reply_text":"sounds good","reason":"keep the chat warm"}`

	var a Action
	require.NoError(t, json.Unmarshal([]byte(in), &a))

	assert.Equal(t, ActionReplyInChat, a.Type)
	assert.Equal(t, "chat1", a.ChatUsername)
	assert.Equal(t, "sounds good", a.ReplyText)
	assert.Equal(t, "keep the chat warm", a.Reason)
	assert.NoError(t, a.Validate())
}
