package state

import (
	"context"
	"errors"

	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/message"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// ErrInvalidSeal is returned when a block's nonce does not satisfy its
// declared difficulty.
var ErrInvalidSeal = errors.New("block seal does not meet difficulty")

// =============================================================================

// MineNewBlock attempts to create a new block with a valid seal that can
// become the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	// Only transactions the engine is guaranteed to admit may enter the
	// merkle tree. Everything else stays in the mempool.
	trans := s.includableTransactions(s.mempool.PickBest(int(s.genesis.TransPerBlock)))
	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	difficulty := s.nextDifficulty()
	block, err := database.NewBlock(s.beneficiaryID, difficulty, s.db.LatestBlock(), trans)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: block[%d] difficulty[%s] perform POW", block.Header.Number, difficulty)

	// Solve the seal in bounded rounds, watching for cancellation between
	// rounds. An imported peer block cancels this context.
	preHash := block.Header.PreHash()
	for {
		if err := ctx.Err(); err != nil {
			return database.Block{}, err
		}

		nonce, ok := s.powAlg.Mine(preHash, difficulty)
		if ok {
			block.Header.Nonce = nonce
			break
		}

		s.evHandler("state: MineNewBlock: MINING: block[%d] round exhausted", block.Header.Number)
	}

	// Just check one more time we were not cancelled.
	if err := ctx.Err(); err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: block[%d] sealed with nonce[%d]", block.Header.Number, block.Header.Nonce)

	if err := s.updateLocalState(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessPeerBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local chain.
func (s *State) ProcessPeerBlock(block database.Block) error {
	s.evHandler("state: ProcessPeerBlock: started : block[%s]", block.Hash())
	defer s.evHandler("state: ProcessPeerBlock: completed")

	// If a mining operation is running it needs to stop immediately. The
	// goroutine running it will not restart until done is called, which
	// lets this function finish its state changes first.
	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer func() {
			s.evHandler("state: ProcessPeerBlock: signal mining to terminate")
			done()
		}()
	}

	if err := s.verifyBlock(block); err != nil {
		return err
	}

	return s.updateLocalState(block)
}

// =============================================================================

// includableTransactions narrows the candidate set to transactions the
// engine will admit at dispatch: per-account nonces must run contiguously
// from the stored account nonce and every fee bid must still be payable
// after the charges queued before it. A transaction left out is not lost,
// it stays in the mempool until it becomes includable.
func (s *State) includableTransactions(candidates []database.BlockTx) []database.BlockTx {
	type ledger struct {
		nonce   uint64
		balance uint64
	}

	accounts := make(map[id.AccountID]ledger)
	trans := make([]database.BlockTx, 0, len(candidates))

	for _, tx := range candidates {
		fromID, err := tx.FromAccount()
		if err != nil {
			continue
		}

		acct, exists := accounts[fromID]
		if !exists {
			stored, _ := s.db.Account(fromID)
			acct = ledger{nonce: stored.Nonce, balance: stored.Balance}
		}

		if tx.Nonce != acct.nonce || acct.balance < tx.FeeBid {
			s.evHandler("state: MineNewBlock: MINING: tx[%s] not includable yet, leaving in mempool", tx)
			continue
		}

		acct.nonce++
		acct.balance -= tx.FeeBid

		// A transfer that will succeed also drains the sender before any
		// later transaction of the same account pays its fee.
		if msg, err := tx.Msg.Decode(); err == nil {
			if transfer, ok := msg.(message.Transfer); ok && acct.balance >= transfer.Amount {
				acct.balance -= transfer.Amount
			}
		}

		accounts[fromID] = acct
		trans = append(trans, tx)
	}

	return trans
}

// updateLocalState takes the sealed block and updates the current state
// of the chain, including writing the block to disk.
func (s *State) updateLocalState(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: updateLocalState: write block[%d] to disk", block.Header.Number)

	if err := s.db.Write(block); err != nil {
		return err
	}

	s.evHandler("state: updateLocalState: apply transactions and drain mempool")

	for _, tx := range block.Trans.Values() {
		s.mempool.Delete(tx)
	}

	s.applyBlock(block)

	return nil
}
