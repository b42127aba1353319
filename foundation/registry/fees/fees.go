// Package fees implements the fee economy: the base fee gate, the burn
// split and the block author's reward.
package fees

import (
	"github.com/registrychain/registry/foundation/registry/genesis"
)

// Policy captures the fee parameters a chain runs with. The values come
// from the genesis file and never change while the chain is running.
type Policy struct {
	BaseFee      uint64 // Minimum fee bid for a transaction to be accepted.
	BurnPercent  uint64 // Percentage of every charged fee withdrawn from circulation.
	MiningReward uint64 // Flat reward credited to the block author per block.
}

// NewPolicy constructs the fee policy from the genesis parameters.
func NewPolicy(genesis genesis.Genesis) Policy {
	return Policy{
		BaseFee:      genesis.BaseFee,
		BurnPercent:  genesis.FeeBurnPercent,
		MiningReward: genesis.MiningReward,
	}
}

// Covers reports whether the fee bid meets the base fee. Bids below the
// base fee make the whole transaction invalid for inclusion.
func (p Policy) Covers(feeBid uint64) bool {
	return feeBid >= p.BaseFee
}

// Split divides a charged fee into the burned part and the block author's
// share. The burn rounds down so the author never loses a unit to
// rounding. The two-step form keeps the intermediate product inside
// uint64 range for any fee bid.
func (p Policy) Split(feeBid uint64) (burned uint64, authorShare uint64) {
	burned = (feeBid/100)*p.BurnPercent + (feeBid%100)*p.BurnPercent/100
	return burned, feeBid - burned
}
