// Package store holds per-date completion state for routine lists. Completion
// is keyed by (list, date), never by the item alone, so a new due date starts
// blank without any explicit reset.
package store

import (
	"errors"
	"math"
	"sync"

	"go.uber.org/zap"

	"routinehub/internal/model"
)

var ErrItemNotFound = errors.New("routine item not loaded for this date")

type occurrenceKey struct {
	listID int
	date   string // YYYY-MM-DD
}

// CompletionStore 单一共享可变状态：按 (list, date) 保存有序任务及完成标记
type CompletionStore struct {
	mu     sync.RWMutex
	occ    map[occurrenceKey][]model.OccurrenceItem
	logger *zap.Logger
}

func NewCompletionStore(logger *zap.Logger) *CompletionStore {
	return &CompletionStore{
		occ:    make(map[occurrenceKey][]model.OccurrenceItem),
		logger: logger,
	}
}

// Replace installs the server's item list for (list, date), discarding any
// local state for that pair. The server response is authoritative.
func (s *CompletionStore) Replace(listID int, date string, items []model.OccurrenceItem) {
	cp := make([]model.OccurrenceItem, len(items))
	copy(cp, items)

	s.mu.Lock()
	s.occ[occurrenceKey{listID, date}] = cp
	s.mu.Unlock()

	s.logger.Debug("Occurrence replaced",
		zap.Int("list_id", listID),
		zap.String("date", date),
		zap.Int("item_count", len(items)),
	)
}

// Snapshot returns a copy of the loaded items for (list, date).
func (s *CompletionStore) Snapshot(listID int, date string) ([]model.OccurrenceItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.occ[occurrenceKey{listID, date}]
	if !ok {
		return nil, false
	}
	cp := make([]model.OccurrenceItem, len(items))
	copy(cp, items)
	return cp, true
}

// Completed reports the completion flag for one item.
func (s *CompletionStore) Completed(listID int, date string, itemID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.occ[occurrenceKey{listID, date}] {
		if it.ID == itemID {
			return it.Completed, nil
		}
	}
	return false, ErrItemNotFound
}

// SetCompleted writes the completion flag for one item. It applies state, not
// a diff, so replaying a confirmation out of order cannot corrupt the flag.
func (s *CompletionStore) SetCompleted(listID int, date string, itemID int, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.occ[occurrenceKey{listID, date}]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Completed = completed
			return nil
		}
	}
	return ErrItemNotFound
}

// Toggle flips the flag for one item and returns the new value.
func (s *CompletionStore) Toggle(listID int, date string, itemID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.occ[occurrenceKey{listID, date}]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Completed = !items[i].Completed
			return items[i].Completed, nil
		}
	}
	return false, ErrItemNotFound
}

// Progress returns round(100*completed/total) for (list, date), or 0 when no
// items are loaded. An all-complete list is exactly 100, never 99.
func (s *CompletionStore) Progress(listID int, date string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return progressOf(s.occ[occurrenceKey{listID, date}])
}

// FullyComplete reports whether every loaded item for (list, date) is done.
// An empty occurrence is never fully complete.
func (s *CompletionStore) FullyComplete(listID int, date string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.occ[occurrenceKey{listID, date}]
	return len(items) > 0 && progressOf(items) == 100
}

// Drop removes the state for (list, date), e.g. when a screen is dismissed.
func (s *CompletionStore) Drop(listID int, date string) {
	s.mu.Lock()
	delete(s.occ, occurrenceKey{listID, date})
	s.mu.Unlock()
}

func progressOf(items []model.OccurrenceItem) int {
	if len(items) == 0 {
		return 0
	}
	completed := 0
	for _, it := range items {
		if it.Completed {
			completed++
		}
	}
	return int(math.Round(float64(completed) * 100 / float64(len(items))))
}
