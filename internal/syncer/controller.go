// Package syncer centralizes the optimistic mutation flow: apply locally,
// confirm remotely, roll back on failure. Every completion toggle and
// day-level record mark goes through the one state machine here instead of
// being re-implemented per screen.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	mqcontracts "routinehub/contracts/mq"
	"routinehub/internal/backend"
	"routinehub/internal/model"
	"routinehub/internal/recurrence"
	"routinehub/internal/store"
	"routinehub/pkg/metrics"
	"routinehub/pkg/trace"
	"routinehub/pkg/util"
)

// MutationState 每个 mutation 的状态机: IDLE -> PENDING -> {COMMITTED | ROLLED_BACK}
type MutationState int

const (
	StateIdle MutationState = iota
	StatePending
	StateCommitted
	StateRolledBack
)

func (s MutationState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePending:
		return "PENDING"
	case StateCommitted:
		return "COMMITTED"
	case StateRolledBack:
		return "ROLLED_BACK"
	}
	return "UNKNOWN"
}

var (
	// ErrNotDue 该日期不在 routine 的重复规则内，mutation 在发出前被拦截
	ErrNotDue = errors.New("routine is not due on this date")
	// ErrBadRecurrence 后端下发的重复规则无法解析
	ErrBadRecurrence = errors.New("invalid recurrence pattern")
)

// RemoteAPI is the slice of the backend contract the controller drives.
type RemoteAPI interface {
	FetchOccurrences(ctx context.Context, userID, listID int, date string) ([]model.OccurrenceItem, error)
	ToggleItem(ctx context.Context, userID, listID, itemID int, status bool) error
	MarkRecord(ctx context.Context, userID, listID int, date string, status bool) error
}

// Publisher is the event sink for day-completion notifications.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// ToggleResult is the optimistic view returned as soon as the local flip is
// applied, before the remote call resolves.
type ToggleResult struct {
	State     MutationState
	Completed bool
	Progress  int
	// Done resolves exactly once with the final outcome of the flight that
	// covers this toggle.
	Done <-chan Outcome
}

// Outcome is the terminal state of a mutation flight.
type Outcome struct {
	State       MutationState
	Completed   bool  // final local value
	DayRecorded bool  // day-level record was marked by this flight
	RecordErr   error // non-benign day-record failure (surfaced, not rolled back)
	Err         error // toggle failure (only when rolled back)
}

type flightKey struct {
	listID int
	itemID int
	date   string
}

// itemFlight tracks one item's in-flight mutation.
// baseline is the last remote-confirmed value; rollback restores it.
type itemFlight struct {
	inflight bool
	baseline bool
	dirty    bool // local value changed while a request was in flight
	waiters  []chan Outcome
}

type Controller struct {
	store     *store.CompletionStore
	api       RemoteAPI
	publisher Publisher
	logger    *zap.Logger

	mu      sync.Mutex
	flights map[flightKey]*itemFlight

	// remoteTimeout bounds the detached confirmation call; the inbound
	// request context may be gone by the time it resolves.
	remoteTimeout time.Duration
}

func NewController(st *store.CompletionStore, api RemoteAPI, publisher Publisher, logger *zap.Logger) *Controller {
	return &Controller{
		store:         st,
		api:           api,
		publisher:     publisher,
		logger:        logger,
		flights:       make(map[flightKey]*itemFlight),
		remoteTimeout: 10 * time.Second,
	}
}

// Load fetches the occurrence view for (list, date) and installs it as the
// authoritative local state. The due-date gate applies to loads as well:
// a routine has no occurrence on a day its recurrence excludes.
func (c *Controller) Load(ctx context.Context, userID int, list model.RoutineList, date string) ([]model.OccurrenceItem, error) {
	if err := c.gate(list, date); err != nil {
		return nil, err
	}

	items, err := c.api.FetchOccurrences(ctx, userID, list.ID, date)
	if err != nil {
		return nil, err
	}

	c.store.Replace(list.ID, date, items)

	// 新的权威状态落地后，基线跟着刷新
	c.mu.Lock()
	for _, it := range items {
		key := flightKey{list.ID, it.ID, date}
		if f, ok := c.flights[key]; ok && !f.inflight {
			f.baseline = it.Completed
		}
	}
	c.mu.Unlock()

	return items, nil
}

// Toggle flips the item locally, then starts (or coalesces into) the remote
// confirmation flight for that item. At most one request per item is in
// flight; a toggle racing an in-flight one only updates the local value and
// the flight re-sends the latest state (last-write-wins on the boolean).
func (c *Controller) Toggle(ctx context.Context, userID int, list model.RoutineList, date string, itemID int) (ToggleResult, error) {
	if err := c.gate(list, date); err != nil {
		metrics.IncrementToggle("rejected")
		return ToggleResult{}, err
	}

	c.mu.Lock()

	current, err := c.store.Completed(list.ID, date, itemID)
	if err != nil {
		c.mu.Unlock()
		metrics.IncrementToggle("rejected")
		return ToggleResult{}, err
	}

	key := flightKey{list.ID, itemID, date}
	f, ok := c.flights[key]
	if !ok {
		f = &itemFlight{baseline: current}
		c.flights[key] = f
	}

	newVal, err := c.store.Toggle(list.ID, date, itemID)
	if err != nil {
		c.mu.Unlock()
		metrics.IncrementToggle("rejected")
		return ToggleResult{}, err
	}

	done := make(chan Outcome, 1)
	f.waiters = append(f.waiters, done)

	result := ToggleResult{
		State:     StatePending,
		Completed: newVal,
		Progress:  c.store.Progress(list.ID, date),
		Done:      done,
	}

	if f.inflight {
		// 已有请求在途：只更新本地值，由该 flight 重发最终状态
		f.dirty = true
		c.mu.Unlock()
		return result, nil
	}

	f.inflight = true
	c.mu.Unlock()

	go c.runFlight(c.detach(ctx), userID, list, date, itemID, key, f)

	return result, nil
}

// gate 在任何 mutation 发出前运行 occurrence resolver
func (c *Controller) gate(list model.RoutineList, date string) error {
	set, err := recurrence.ParseSet(list.Recurrence)
	if err != nil {
		return ErrBadRecurrence
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return err
	}
	if !set.IsDue(day) {
		return ErrNotDue
	}
	return nil
}

// detach carries the trace id over to a fresh context so the confirmation
// survives the inbound request being dismissed.
func (c *Controller) detach(ctx context.Context) context.Context {
	out := context.Background()
	if traceID := trace.FromContext(ctx); traceID != "" {
		out = trace.WithContext(out, traceID)
	}
	return out
}

// runFlight drives one item's confirmation until the local and remote state
// agree, then settles every waiter exactly once.
func (c *Controller) runFlight(ctx context.Context, userID int, list model.RoutineList, date string, itemID int, key flightKey, f *itemFlight) {
	log := c.logger.With(
		zap.Int("list_id", list.ID),
		zap.Int("item_id", itemID),
		zap.String("date", date),
	)

	for {
		c.mu.Lock()
		desired, err := c.store.Completed(list.ID, date, itemID)
		if err != nil {
			// 条目被 Drop：安静地丢弃这次确认
			f.inflight = false
			f.dirty = false
			c.settle(f, Outcome{State: StateRolledBack, Err: err})
			c.mu.Unlock()
			return
		}
		f.dirty = false
		c.mu.Unlock()

		callCtx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
		err = c.api.ToggleItem(callCtx, userID, list.ID, itemID, desired)
		cancel()

		if err != nil {
			transient, kind := util.IsTransientError(err)
			log.Warn("Toggle confirmation failed, rolling back",
				zap.Bool("transient", transient),
				zap.String("error_type", kind),
				zap.Error(err),
			)

			c.mu.Lock()
			baseline := f.baseline
			_ = c.store.SetCompleted(list.ID, date, itemID, baseline)
			f.inflight = false
			f.dirty = false
			c.settle(f, Outcome{State: StateRolledBack, Completed: baseline, Err: err})
			c.mu.Unlock()

			metrics.IncrementToggle("rolled_back")
			return
		}

		c.mu.Lock()
		f.baseline = desired
		if f.dirty {
			// 在途期间又被切换，重发最新状态
			c.mu.Unlock()
			continue
		}
		f.inflight = false
		c.mu.Unlock()

		metrics.IncrementToggle("committed")
		log.Info("Toggle committed", zap.Bool("completed", desired))

		outcome := Outcome{State: StateCommitted, Completed: desired}
		if desired && list.Kind == model.KindGroup {
			outcome.DayRecorded, outcome.RecordErr = c.maybeMarkDay(ctx, userID, list, date, log)
		}

		c.mu.Lock()
		c.settle(f, outcome)
		c.mu.Unlock()
		return
	}
}

// maybeMarkDay fires the idempotent day-level record mark when the whole day
// just became complete. The already-marked conflict is benign: logged only.
func (c *Controller) maybeMarkDay(ctx context.Context, userID int, list model.RoutineList, date string, log *zap.Logger) (bool, error) {
	if !c.store.FullyComplete(list.ID, date) {
		return false, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	err := c.api.MarkRecord(callCtx, userID, list.ID, date, true)
	cancel()

	switch {
	case errors.Is(err, backend.ErrRecordConflict):
		metrics.IncrementDayRecord("conflict")
		log.Info("Day record already marked")
		return false, nil
	case err != nil:
		metrics.IncrementDayRecord("failed")
		log.Error("Day record mark failed", zap.Error(err))
		return false, err
	}

	metrics.IncrementDayRecord("marked")
	log.Info("Day record marked complete")

	if c.publisher != nil {
		payload := mqcontracts.DayCompletedPayload{
			ListID:      list.ID,
			UserID:      userID,
			Date:        date,
			CompletedAt: time.Now(),
		}
		if pubErr := c.publisher.Publish(mqcontracts.RoutingKeyDayCompleted, payload); pubErr != nil {
			log.Warn("Failed to publish day completed event", zap.Error(pubErr))
		}
	}
	return true, nil
}

// settle delivers the outcome to every waiter of the batch. Caller holds mu.
func (c *Controller) settle(f *itemFlight, outcome Outcome) {
	for _, w := range f.waiters {
		w <- outcome
	}
	f.waiters = nil
}
