// Package roulette implements the prize wheel: a uniform draw over equally
// sized slices and the cumulative rotation target that lands the fixed
// 12-o'clock pointer on the drawn slice.
package roulette

import (
	"errors"
	"math"
	"math/rand"
)

var ErrNoPrizes = errors.New("prize list is empty")

const (
	minExtraTurns = 5
	maxExtraTurns = 7
)

// SelectPrize draws a slice index uniformly. Slice sizes are equal no matter
// the prize values; the wheel visualizes values, not probabilities.
func SelectPrize(rng *rand.Rand, prizes []int) (int, int, error) {
	if len(prizes) == 0 {
		return 0, 0, ErrNoPrizes
	}
	idx := rng.Intn(len(prizes))
	return idx, prizes[idx], nil
}

// DrawExtraTurns picks 5–7 full turns, purely for spin duration.
func DrawExtraTurns(rng *rand.Rand) int {
	return minExtraTurns + rng.Intn(maxExtraTurns-minExtraTurns+1)
}

// SliceCenter is the angular center of a slice, measured clockwise from the
// wheel's 12-o'clock reference.
func SliceCenter(index, n int) float64 {
	anglePerSlice := 360.0 / float64(n)
	return float64(index)*anglePerSlice + anglePerSlice/2
}

// Delta is the shortest clockwise rotation from the wheel's current position
// that puts the slice center under the fixed pointer. The pointer sits still
// while the wheel turns underneath it, so the slice that ends up on top is
// the one at 360-targetCenter in the wheel's own frame.
func Delta(current float64, index, n int) float64 {
	targetCenter := SliceCenter(index, n)
	d := math.Mod(360-targetCenter-math.Mod(current, 360), 360)
	return math.Mod(d+360, 360)
}

// Target is the cumulative rotation angle to animate to: the current angle
// plus the extra full turns plus the landing delta.
func Target(current float64, index, n, extraTurns int) float64 {
	return current + float64(extraTurns)*360 + Delta(current, index, n)
}

// Normalize folds a cumulative angle into [0,360) so the next spin's delta
// starts from a bounded value.
func Normalize(angle float64) float64 {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// LandedIndex re-derives the slice index under the pointer from a normalized
// wheel angle. For any angle produced by Target this recovers the drawn index
// exactly.
func LandedIndex(normalized float64, n int) int {
	anglePerSlice := 360.0 / float64(n)
	pos := math.Mod(360-normalized, 360)
	if pos < 0 {
		pos += 360
	}
	return int(pos/anglePerSlice) % n
}

// Wheel owns the cumulative rotation for one open reward modal. The angle
// only grows during the session; Settle folds it back after each landing.
type Wheel struct {
	prizes  []int
	current float64
	rng     *rand.Rand
}

func NewWheel(prizes []int, rng *rand.Rand) *Wheel {
	return &Wheel{prizes: prizes, rng: rng}
}

// Current returns the wheel's cumulative rotation angle.
func (w *Wheel) Current() float64 {
	return w.current
}

// Plan is one spin's selection and rotation math.
type Plan struct {
	Index      int     `json:"index"`
	Value      int     `json:"value"`
	ExtraTurns int     `json:"extra_turns"`
	Delta      float64 `json:"delta"`
	Target     float64 `json:"target"`
}

// Spin draws a prize and computes the rotation target from the wheel's
// current angle. The wheel's state is not advanced until Settle confirms the
// landing; a rejected spin leaves the wheel where it was.
func (w *Wheel) Spin() (Plan, error) {
	idx, value, err := SelectPrize(w.rng, w.prizes)
	if err != nil {
		return Plan{}, err
	}
	extra := DrawExtraTurns(w.rng)
	return Plan{
		Index:      idx,
		Value:      value,
		ExtraTurns: extra,
		Delta:      Delta(w.current, idx, len(w.prizes)),
		Target:     Target(w.current, idx, len(w.prizes), extra),
	}, nil
}

// Settle records a confirmed landing, folding the target back to [0,360).
func (w *Wheel) Settle(plan Plan) {
	w.current = Normalize(plan.Target)
}
