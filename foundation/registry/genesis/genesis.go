// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/registrychain/registry/business/sys/validate"
)

// Genesis represents the genesis file. These values configure the economy
// and the proof of work parameters for one running chain.
type Genesis struct {
	Date           time.Time         `json:"date"`
	ChainID        uint16            `json:"chain_id" validate:"required"`                // Unique id for this running instance.
	TransPerBlock  uint16            `json:"trans_per_block" validate:"required"`         // Maximum number of transactions per block.
	BaseFee        uint64            `json:"base_fee" validate:"required"`                // Minimum fee bid for a transaction to be accepted.
	FeeBurnPercent uint64            `json:"fee_burn_percent" validate:"lte=100"`         // Percentage of every charged fee that is burned.
	MiningReward   uint64            `json:"mining_reward"`                               // Flat reward for mining a block.
	PowAlgorithm   string            `json:"pow_algorithm" validate:"oneof=dummy keccak"` // Seal algorithm for this chain.
	Difficulty     Difficulty        `json:"difficulty"`
	Balances       map[string]uint64 `json:"balances"`
}

// Difficulty holds the retargeting parameters for the proof of work engine.
type Difficulty struct {
	Initial           uint64 `json:"initial" validate:"required"`           // Difficulty used while the chain is shorter than the window.
	AdjustmentWindow  int    `json:"adjustment_window" validate:"min=1"`    // Number of trailing blocks the retarget looks at.
	TargetBlockTimeMS uint64 `json:"target_block_time_ms" validate:"min=1"` // Desired average block time in milliseconds.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := validate.Check(genesis); err != nil {
		return Genesis{}, fmt.Errorf("invalid genesis file %q: %w", path, err)
	}

	return genesis, nil
}
