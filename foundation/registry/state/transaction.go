package state

import (
	"fmt"

	"github.com/registrychain/registry/foundation/registry/database"
)

// UpsertWalletTransaction accepts a transaction from a wallet for
// inclusion and wakes the miner.
func (s *State) UpsertWalletTransaction(signedTx database.SignedTx) error {
	if err := s.validateTransaction(signedTx); err != nil {
		return err
	}

	tx := database.NewBlockTx(signedTx)

	if _, err := s.mempool.Upsert(tx); err != nil {
		return err
	}

	s.Worker.SignalStartMining()

	return nil
}

// =============================================================================

// validateTransaction checks everything about a transaction that can be
// known before dispatch: the signature, the chain binding, the fee bid
// and that the nonce has not already been consumed.
func (s *State) validateTransaction(signedTx database.SignedTx) error {
	if err := signedTx.Validate(s.genesis.ChainID); err != nil {
		return err
	}

	if signedTx.FeeBid < s.genesis.BaseFee {
		return fmt.Errorf("fee bid %d does not cover the base fee %d", signedTx.FeeBid, s.genesis.BaseFee)
	}

	fromID, err := signedTx.FromAccount()
	if err != nil {
		return err
	}

	// Transactions queued ahead of the account nonce are accepted, the
	// engine enforces exact ordering at dispatch time.
	account, _ := s.db.Account(fromID)
	if signedTx.Nonce < account.Nonce {
		return fmt.Errorf("nonce %d already consumed, current %d", signedTx.Nonce, account.Nonce)
	}

	return nil
}
