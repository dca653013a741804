package service

import (
	"math/rand"
	"time"

	"github.com/telewarm/warmup-engine-go/internal/model"
)

// intervalBand shrinks the nominal gap between runs so accounts sharing the
// same daily count do not fire in lockstep.
const intervalBand = 0.8

// SchedulePolicy decides, per account, whether a warmup cycle should run now.
type SchedulePolicy struct {
	maxStage int
}

func NewSchedulePolicy(maxStage int) *SchedulePolicy {
	return &SchedulePolicy{maxStage: maxStage}
}

// Decision is the outcome of one scheduling check.
type Decision struct {
	Run        bool
	Reason     string
	DailyCount int
}

// ShouldRun computes the go/no-go decision for one account at the given
// instant. The daily activity target is drawn uniformly from the account's
// configured range on every check.
func (p *SchedulePolicy) ShouldRun(a *model.Account, now time.Time) Decision {
	dailyCount := drawDailyCount(a.MinDailyActivity, a.MaxDailyActivity)

	if a.LastWarmupDate == nil {
		// First-run delay gate: a brand-new account holds off until its
		// randomized start time passes. Once the first run lands the gate
		// is permanently inert.
		if a.WarmupStartDelayUntil != nil && now.Before(*a.WarmupStartDelayUntil) {
			return Decision{Run: false, Reason: "start delay active", DailyCount: dailyCount}
		}
		return Decision{Run: true, Reason: "first run", DailyCount: dailyCount}
	}

	hoursBetween := 24.0 / float64(dailyCount)
	minInterval := time.Duration(intervalBand * hoursBetween * float64(time.Hour))

	if now.Sub(*a.LastWarmupDate) >= minInterval {
		return Decision{Run: true, Reason: "interval elapsed", DailyCount: dailyCount}
	}
	return Decision{Run: false, Reason: "interval not elapsed", DailyCount: dailyCount}
}

// StageFor derives the warmup stage from the first warmup date. Stage is
// day-based, starts at 1 and is capped; it never decreases because time
// only moves forward and the cap is constant.
func (p *SchedulePolicy) StageFor(firstWarmup *time.Time, now time.Time) int {
	if firstWarmup == nil {
		return 1
	}

	days := int(now.Sub(*firstWarmup).Hours() / 24)
	if days < 0 {
		days = 0
	}

	stage := days + 1
	if stage > p.maxStage {
		stage = p.maxStage
	}
	return stage
}

func drawDailyCount(minDaily, maxDaily int) int {
	if minDaily < 1 {
		minDaily = 1
	}
	if maxDaily < minDaily {
		maxDaily = minDaily
	}
	if maxDaily == minDaily {
		return minDaily
	}
	return minDaily + rand.Intn(maxDaily-minDaily+1)
}
