package roulette

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	mqcontracts "routinehub/contracts/mq"
	"routinehub/internal/model"
	"routinehub/internal/store"
	"routinehub/pkg/metrics"
)

var (
	// ErrNotEligible 只有整天完成的群组 routine 才能抽奖
	ErrNotEligible = errors.New("spin requires a fully completed group routine day")
	// ErrAlreadySpun 每个成员每个群组每天只能抽一次
	ErrAlreadySpun = errors.New("already spun for this routine today")
)

// spinGuardScope redis 去重标记的 scope
const spinGuardScope = "spin"

// SpinAPI is the backend call that credits the prize.
type SpinAPI interface {
	ConfirmSpin(ctx context.Context, userID, listID int, date string, prizeIndex, prizeValue int) error
}

// Guard enforces the one-spin-per-member-per-day policy.
type Guard interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
	Release(ctx context.Context, scope, key string) error
}

// Publisher is the event sink for confirmed spins.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// Result is a confirmed spin: the plan plus the normalized angle the wheel
// settles at, which the client stores as the next spin's current angle.
type Result struct {
	Plan
	Normalized float64 `json:"normalized"`
}

// Service orchestrates a spin: eligibility, the per-day guard, the remote
// credit, and the reward event. The wheel's cumulative angle itself belongs
// to the client's open modal and arrives with the request.
type Service struct {
	store     *store.CompletionStore
	api       SpinAPI
	guard     Guard
	publisher Publisher
	logger    *zap.Logger
	rng       *rand.Rand
}

func NewService(st *store.CompletionStore, api SpinAPI, guard Guard, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{
		store:     st,
		api:       api,
		guard:     guard,
		publisher: publisher,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Spin runs one spin for a member of a group routine.
// No prize is credited locally until the backend confirms; a rejected spin
// returns an error without a landing and releases the day's attempt.
func (s *Service) Spin(ctx context.Context, userID int, list model.RoutineList, date string, prizes []int, current float64) (Result, error) {
	if list.Kind != model.KindGroup || !s.store.FullyComplete(list.ID, date) {
		metrics.IncrementSpin("rejected")
		return Result{}, ErrNotEligible
	}
	if len(prizes) == 0 {
		metrics.IncrementSpin("rejected")
		return Result{}, ErrNoPrizes
	}

	guardKey := fmt.Sprintf("%d:%d:%s", userID, list.ID, date)
	if !s.guard.AcquireOnce(ctx, spinGuardScope, guardKey) {
		metrics.IncrementSpin("duplicate")
		return Result{}, ErrAlreadySpun
	}

	idx, value, err := SelectPrize(s.rng, prizes)
	if err != nil {
		s.releaseGuard(ctx, guardKey)
		metrics.IncrementSpin("rejected")
		return Result{}, err
	}
	extra := DrawExtraTurns(s.rng)

	if err := s.api.ConfirmSpin(ctx, userID, list.ID, date, idx, value); err != nil {
		// 后端拒绝：不落地、不消耗当天的抽奖机会
		s.releaseGuard(ctx, guardKey)
		metrics.IncrementSpin("rejected")
		s.logger.Warn("Spin rejected by backend",
			zap.Int("user_id", userID),
			zap.Int("list_id", list.ID),
			zap.String("date", date),
			zap.Error(err),
		)
		return Result{}, err
	}

	plan := Plan{
		Index:      idx,
		Value:      value,
		ExtraTurns: extra,
		Delta:      Delta(current, idx, len(prizes)),
		Target:     Target(current, idx, len(prizes), extra),
	}

	metrics.IncrementSpin("confirmed")
	s.logger.Info("Spin confirmed",
		zap.Int("user_id", userID),
		zap.Int("list_id", list.ID),
		zap.String("date", date),
		zap.Int("prize_index", idx),
		zap.Int("prize_value", value),
	)

	if s.publisher != nil {
		payload := mqcontracts.RewardWonPayload{
			ListID:     list.ID,
			UserID:     userID,
			Date:       date,
			PrizeIndex: idx,
			PrizeValue: value,
			WonAt:      time.Now(),
		}
		if pubErr := s.publisher.Publish(mqcontracts.RoutingKeyRewardWon, payload); pubErr != nil {
			s.logger.Warn("Failed to publish reward won event", zap.Error(pubErr))
		}
	}

	return Result{Plan: plan, Normalized: Normalize(plan.Target)}, nil
}

func (s *Service) releaseGuard(ctx context.Context, key string) {
	if err := s.guard.Release(ctx, spinGuardScope, key); err != nil {
		s.logger.Warn("Failed to release spin guard", zap.String("key", key), zap.Error(err))
	}
}
