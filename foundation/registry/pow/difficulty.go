package pow

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Retarget tuning. The damp factor limits how far one window can pull the
// difficulty toward its ideal value and the clamp factor bounds the total
// move per retarget.
const (
	dampFactor  = 3
	clampFactor = 2
)

// difficultyCeiling caps difficulty at 2^192 - 1 so a sum of difficulties
// over a chain of up to 2^64 blocks cannot overflow 256 bits.
var difficultyCeiling = new(uint256.Int).Rsh(
	new(uint256.Int).Not(uint256.NewInt(0)), 64)

// Sample is one trailing block's contribution to a retarget.
type Sample struct {
	Difficulty *uint256.Int
	TimeStamp  uint64 // Unix milliseconds.
}

// NextDifficulty computes the difficulty for the next block from the
// trailing samples, oldest first. While fewer than window+1 samples exist
// the chain runs at the initial difficulty. Afterwards the window's
// harmonic mean difficulty is scaled by how the observed window time
// compares to the target, damped and clamped.
func NextDifficulty(initial uint64, targetBlockTimeMS uint64, window int, samples []Sample) *uint256.Int {
	if len(samples) < window+1 {
		return capDifficulty(uint256.NewInt(initial))
	}

	samples = samples[len(samples)-(window+1):]

	// The oldest sample only anchors the time measurement; the window
	// blocks after it were mined at the difficulties being averaged.
	observed := samples[len(samples)-1].TimeStamp - samples[0].TimeStamp
	if observed == 0 {
		observed = 1
	}

	mean := NewHarmonicMean()
	for _, sample := range samples[1:] {
		mean.Push(sample.Difficulty)
	}

	current := mean.Calculate().ToBig()
	if current.Sign() == 0 {
		current = big.NewInt(1)
	}

	target := new(big.Int).SetUint64(targetBlockTimeMS)
	target.Mul(target, big.NewInt(int64(window)))

	// ideal = current * target / observed, then damp the move toward it:
	// next = current + (ideal - current) / damp.
	ideal := new(big.Int).Mul(current, target)
	ideal.Div(ideal, new(big.Int).SetUint64(observed))

	next := new(big.Int).Sub(ideal, current)
	next.Div(next, big.NewInt(dampFactor))
	next.Add(next, current)

	// Bound the move to [current/clamp, current*clamp].
	low := new(big.Int).Div(current, big.NewInt(clampFactor))
	if low.Sign() == 0 {
		low = big.NewInt(1)
	}
	high := new(big.Int).Mul(current, big.NewInt(clampFactor))

	switch {
	case next.Cmp(low) < 0:
		next = low
	case next.Cmp(high) > 0:
		next = high
	}

	if next.Sign() < 1 {
		next = big.NewInt(1)
	}

	result, overflow := uint256.FromBig(next)
	if overflow {
		return difficultyCeiling.Clone()
	}
	return capDifficulty(result)
}

// capDifficulty enforces the global ceiling and a floor of one.
func capDifficulty(difficulty *uint256.Int) *uint256.Int {
	if difficulty.IsZero() {
		return uint256.NewInt(1)
	}
	if difficulty.Gt(difficultyCeiling) {
		return difficultyCeiling.Clone()
	}
	return difficulty
}
