package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"routinehub/internal/model"
)

const testDate = "2026-08-24"

func newStore() *CompletionStore {
	return NewCompletionStore(zap.NewNop())
}

func items(completed ...bool) []model.OccurrenceItem {
	out := make([]model.OccurrenceItem, len(completed))
	for i, c := range completed {
		out[i] = model.OccurrenceItem{
			RoutineItem: model.RoutineItem{ID: i + 1, Name: "item"},
			Completed:   c,
		}
	}
	return out
}

func TestProgress_Rounding(t *testing.T) {
	tests := []struct {
		name      string
		completed []bool
		want      int
	}{
		{"two of four", []bool{true, true, false, false}, 50},
		{"one of three rounds down", []bool{true, false, false}, 33},
		{"two of three rounds up", []bool{true, true, false}, 67},
		{"all complete is exactly 100", []bool{true, true, true, true, true, true, true}, 100},
		{"none complete", []bool{false, false}, 0},
		{"one of six", []bool{true, false, false, false, false, false}, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore()
			s.Replace(1, testDate, items(tt.completed...))
			assert.Equal(t, tt.want, s.Progress(1, testDate))
		})
	}
}

func TestProgress_EmptyOccurrenceIsZero(t *testing.T) {
	s := newStore()

	// nothing loaded at all
	assert.Equal(t, 0, s.Progress(1, testDate))

	// loaded but zero items: no division error, exactly 0, never fully complete
	s.Replace(1, testDate, nil)
	assert.Equal(t, 0, s.Progress(1, testDate))
	assert.False(t, s.FullyComplete(1, testDate))
}

func TestFullyComplete(t *testing.T) {
	s := newStore()
	s.Replace(1, testDate, items(true, true, false))
	assert.False(t, s.FullyComplete(1, testDate))

	_, err := s.Toggle(1, testDate, 3)
	require.NoError(t, err)
	assert.True(t, s.FullyComplete(1, testDate))
}

func TestToggle_FlipsAndReports(t *testing.T) {
	s := newStore()
	s.Replace(1, testDate, items(false, true))

	got, err := s.Toggle(1, testDate, 1)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = s.Toggle(1, testDate, 1)
	require.NoError(t, err)
	assert.False(t, got)

	_, err = s.Toggle(1, testDate, 99)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSetCompleted_AppliesState(t *testing.T) {
	s := newStore()
	s.Replace(1, testDate, items(false))

	require.NoError(t, s.SetCompleted(1, testDate, 1, true))
	done, err := s.Completed(1, testDate, 1)
	require.NoError(t, err)
	assert.True(t, done)

	// setting the same state again is a no-op, not a flip
	require.NoError(t, s.SetCompleted(1, testDate, 1, true))
	done, err = s.Completed(1, testDate, 1)
	require.NoError(t, err)
	assert.True(t, done)

	assert.ErrorIs(t, s.SetCompleted(1, testDate, 99, true), ErrItemNotFound)
}

func TestReplace_IsAuthoritative(t *testing.T) {
	s := newStore()
	s.Replace(1, testDate, items(false, false))
	_, err := s.Toggle(1, testDate, 1)
	require.NoError(t, err)

	// the server response wipes local flips
	s.Replace(1, testDate, items(false, false))
	done, err := s.Completed(1, testDate, 1)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestReplace_IdempotentLoad(t *testing.T) {
	s := newStore()
	payload := items(true, false, true)

	s.Replace(1, testDate, payload)
	first, ok := s.Snapshot(1, testDate)
	require.True(t, ok)

	s.Replace(1, testDate, payload)
	second, ok := s.Snapshot(1, testDate)
	require.True(t, ok)

	assert.Equal(t, first, second)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := newStore()
	s.Replace(1, testDate, items(false))

	snap, ok := s.Snapshot(1, testDate)
	require.True(t, ok)
	snap[0].Completed = true

	done, err := s.Completed(1, testDate, 1)
	require.NoError(t, err)
	assert.False(t, done, "mutating a snapshot must not touch the store")
}

func TestDatesAreIndependentKeys(t *testing.T) {
	s := newStore()
	s.Replace(1, "2026-08-24", items(true))
	s.Replace(1, "2026-08-25", items(false))

	// yesterday's completion never leaks into today
	assert.Equal(t, 100, s.Progress(1, "2026-08-24"))
	assert.Equal(t, 0, s.Progress(1, "2026-08-25"))
}

func TestDrop(t *testing.T) {
	s := newStore()
	s.Replace(1, testDate, items(true))
	s.Drop(1, testDate)

	_, ok := s.Snapshot(1, testDate)
	assert.False(t, ok)
}
