package mq

import "time"

// Routing keys on the routine.events exchange.
const (
	RoutingKeyDayCompleted    = "routine.day_completed"
	RoutingKeyRewardWon       = "reward.won"
	RoutingKeyStreakMilestone = "streak.milestone"
	RoutingKeyRosterUpdated   = "routine.roster_updated"
)

// DayCompletedPayload 某个用户当天整单 routine 完成事件的 payload
type DayCompletedPayload struct {
	ListID      int       `json:"list_id"`
	UserID      int       `json:"user_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	CompletedAt time.Time `json:"completed_at"`
}

// RewardWonPayload 转盘抽奖确认事件的 payload
type RewardWonPayload struct {
	ListID     int       `json:"list_id"`
	UserID     int       `json:"user_id"`
	Date       string    `json:"date"`
	PrizeIndex int       `json:"prize_index"`
	PrizeValue int       `json:"prize_value"`
	WonAt      time.Time `json:"won_at"`
}

// StreakMilestonePayload 连续打卡里程碑事件的 payload
type StreakMilestonePayload struct {
	UserID     int       `json:"user_id"`
	StreakDays int       `json:"streak_days"`
	ReachedAt  time.Time `json:"reached_at"`
}

// RosterUpdatedPayload 群组成员变更事件的 payload（由后端发布，本服务消费）
type RosterUpdatedPayload struct {
	ListID    int       `json:"list_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
