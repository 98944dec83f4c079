// Package streak consumes the server-reported consecutive-100%-day count and
// raises a milestone every 7 days, at most once per milestone value.
package streak

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	mqcontracts "routinehub/contracts/mq"
	"routinehub/pkg/metrics"
)

// milestoneInterval 每连续 7 天触发一次里程碑
const milestoneInterval = 7

// IsMilestone reports whether a streak length is a milestone.
func IsMilestone(streakDays int) bool {
	return streakDays >= milestoneInterval && streakDays%milestoneInterval == 0
}

// StreakAPI is the backend call reporting the streak count.
type StreakAPI interface {
	FetchStreak(ctx context.Context, userID int) (int, error)
}

// Guard persists the "already shown" flag per (user, milestone value).
// It must not expire: the same achievement never notifies twice, while
// future 7-day multiples are distinct keys and still do.
type Guard interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
}

// Publisher is the event sink for milestone notifications.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// CheckResult 一次 streak 轮询的结果
type CheckResult struct {
	StreakDays int  `json:"streak_days"`
	Milestone  bool `json:"milestone"`
	// Notify 本次是否需要向用户展示（同一里程碑只展示一次）
	Notify bool `json:"notify"`
}

type Aggregator struct {
	api       StreakAPI
	guard     Guard
	publisher Publisher
	logger    *zap.Logger
}

func NewAggregator(api StreakAPI, guard Guard, publisher Publisher, logger *zap.Logger) *Aggregator {
	return &Aggregator{api: api, guard: guard, publisher: publisher, logger: logger}
}

// Check polls the backend streak count and decides whether to notify.
// Called on app focus.
func (a *Aggregator) Check(ctx context.Context, userID int) (CheckResult, error) {
	days, err := a.api.FetchStreak(ctx, userID)
	if err != nil {
		return CheckResult{}, err
	}

	result := CheckResult{StreakDays: days, Milestone: IsMilestone(days)}
	if !result.Milestone {
		return result, nil
	}

	key := fmt.Sprintf("%d:%d", userID, days)
	if !a.guard.AcquireOnce(ctx, "streak_milestone", key) {
		// 该里程碑已经展示过
		return result, nil
	}

	result.Notify = true
	metrics.IncrementMilestone()
	a.logger.Info("Streak milestone reached",
		zap.Int("user_id", userID),
		zap.Int("streak_days", days),
	)

	if a.publisher != nil {
		payload := mqcontracts.StreakMilestonePayload{
			UserID:     userID,
			StreakDays: days,
			ReachedAt:  time.Now(),
		}
		if pubErr := a.publisher.Publish(mqcontracts.RoutingKeyStreakMilestone, payload); pubErr != nil {
			a.logger.Warn("Failed to publish streak milestone event", zap.Error(pubErr))
		}
	}

	return result, nil
}
