package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/telewarm/warmup-engine-go/internal/model"
)

func activeAccount() *model.Account {
	return &model.Account{
		SessionID:        "acct-1",
		IsActive:         true,
		MinDailyActivity: 1,
		MaxDailyActivity: 3,
	}
}

func TestClassify(t *testing.T) {
	t.Run("healthy account is eligible", func(t *testing.T) {
		skip, reason := Classify(activeAccount())
		assert.False(t, skip)
		assert.Empty(t, reason)
	})

	t.Run("deleted account is skipped", func(t *testing.T) {
		a := activeAccount()
		a.IsDeleted = true
		skip, reason := Classify(a)
		assert.True(t, skip)
		assert.Equal(t, model.SkipReasonDeleted, reason)
	})

	t.Run("frozen account is skipped", func(t *testing.T) {
		a := activeAccount()
		a.IsFrozen = true
		skip, reason := Classify(a)
		assert.True(t, skip)
		assert.Equal(t, model.SkipReasonFrozen, reason)
	})

	t.Run("permanently banned account is skipped", func(t *testing.T) {
		a := activeAccount()
		a.IsBanned = true
		skip, reason := Classify(a)
		assert.True(t, skip)
		assert.Equal(t, model.SkipReasonBannedForever, reason)
	})

	t.Run("temporarily banned account stays eligible", func(t *testing.T) {
		a := activeAccount()
		a.IsBanned = true
		unban := time.Now().Add(48 * time.Hour)
		a.UnbanDate = &unban

		assert.True(t, a.TemporarilyBanned())
		skip, _ := Classify(a)
		assert.False(t, skip)
	})

	t.Run("generation-disabled account is skipped", func(t *testing.T) {
		a := activeAccount()
		a.LLMGenerationDisabled = true
		skip, reason := Classify(a)
		assert.True(t, skip)
		assert.Equal(t, model.SkipReasonManuallyDisabled, reason)
	})

	t.Run("inactive account is skipped", func(t *testing.T) {
		a := activeAccount()
		a.IsActive = false
		skip, reason := Classify(a)
		assert.True(t, skip)
		assert.Equal(t, model.SkipReasonInactive, reason)
	})

	t.Run("deleted wins over every other flag", func(t *testing.T) {
		a := activeAccount()
		a.IsDeleted = true
		a.IsFrozen = true
		a.IsBanned = true
		a.LLMGenerationDisabled = true
		a.IsActive = false

		skip, reason := Classify(a)
		assert.True(t, skip)
		assert.Equal(t, model.SkipReasonDeleted, reason)
	})

	t.Run("frozen wins over ban and disable flags", func(t *testing.T) {
		a := activeAccount()
		a.IsFrozen = true
		a.IsBanned = true
		a.LLMGenerationDisabled = true

		skip, reason := Classify(a)
		assert.True(t, skip)
		assert.Equal(t, model.SkipReasonFrozen, reason)
	})

	t.Run("permanent ban wins over disable flag", func(t *testing.T) {
		a := activeAccount()
		a.IsBanned = true
		a.LLMGenerationDisabled = true

		skip, reason := Classify(a)
		assert.True(t, skip)
		assert.Equal(t, model.SkipReasonBannedForever, reason)
	})
}
