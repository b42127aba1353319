// Package pow implements the proof of work seal and the difficulty
// retargeting engine built on an integer harmonic mean.
package pow

import (
	"math/big"

	"github.com/holiman/uint256"
)

// HarmonicMean accumulates a series of values and computes their harmonic
// mean using only integer arithmetic. The only rounding happens in the
// final division.
//
// The harmonic mean of count items a, b, c ... is
//
//	count / (1/a + 1/b + 1/c + ...)
//
// which is kept as a running fraction so no intermediate division is
// needed:
//
//	count       = count + 1
//	denominator = denominator*value + nominator
//	nominator   = nominator * value
//	mean        = count * nominator / denominator
//
// The first pushed value skips the denominator update so the fraction
// starts at value/1.
type HarmonicMean struct {
	nominator   *big.Int
	denominator *big.Int
	count       uint64
}

// NewHarmonicMean constructs an empty mean. Calculating it yields zero.
func NewHarmonicMean() *HarmonicMean {
	return &HarmonicMean{
		nominator:   big.NewInt(1),
		denominator: big.NewInt(1),
	}
}

// Push adds a value into the mean.
func (hm *HarmonicMean) Push(value *uint256.Int) {
	v := value.ToBig()

	if hm.count > 0 {
		hm.denominator.Mul(hm.denominator, v)
		hm.denominator.Add(hm.denominator, hm.nominator)
	}
	hm.nominator.Mul(hm.nominator, v)
	hm.count++
}

// Calculate returns the harmonic mean of the pushed values, rounded down.
func (hm *HarmonicMean) Calculate() *uint256.Int {
	if hm.denominator.Sign() == 0 {
		return uint256.NewInt(0)
	}

	mean := new(big.Int).SetUint64(hm.count)
	mean.Mul(mean, hm.nominator)
	mean.Div(mean, hm.denominator)

	result, _ := uint256.FromBig(mean)
	return result
}
