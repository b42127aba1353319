// Package state is the core API for the registry node and implements all
// the business rules and processing.
package state

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/engine"
	"github.com/registrychain/registry/foundation/registry/fees"
	"github.com/registrychain/registry/foundation/registry/genesis"
	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/mempool"
	"github.com/registrychain/registry/foundation/registry/pow"
)

// EventHandler defines a function that is called when events occur in the
// processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// =============================================================================

// Config represents the configuration required to start the node.
type Config struct {
	BeneficiaryID  id.AccountID
	Genesis        genesis.Genesis
	Storage        database.Storage
	SelectStrategy string
	EvHandler      EventHandler
}

// State manages the registry chain.
type State struct {
	mu sync.Mutex

	beneficiaryID id.AccountID
	evHandler     EventHandler

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database
	engine  *engine.Engine
	powAlg  pow.Algorithm

	receiptsMu sync.RWMutex
	receipts   map[string]database.Receipt

	Worker Worker
}

// New constructs a new state for chain management, replaying any existing
// chain in storage through the transaction engine.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db, err := database.New(cfg.Genesis, cfg.Storage)
	if err != nil {
		return nil, err
	}

	powAlg, err := pow.New(cfg.Genesis.PowAlgorithm)
	if err != nil {
		return nil, err
	}

	mpool, err := mempool.NewWithStrategy(cfg.SelectStrategy)
	if err != nil {
		return nil, err
	}

	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		evHandler:     ev,

		genesis:  cfg.Genesis,
		mempool:  mpool,
		db:       db,
		engine:   engine.New(db, fees.NewPolicy(cfg.Genesis), ev),
		powAlg:   powAlg,
		receipts: make(map[string]database.Receipt),
	}

	// Rebuild the in-memory registry state from the chain on disk. Every
	// block goes through the same validation and dispatch as a live one.
	iter := db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if err := state.verifyBlock(block); err != nil {
			return nil, err
		}

		state.applyBlock(block)
	}

	// The Worker is not set here. The call to worker.Run will assign
	// itself and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	defer s.db.Close()

	// Stop all chain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Truncate resets the chain both on disk and in memory.
func (s *State) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool.Truncate()

	s.receiptsMu.Lock()
	s.receipts = make(map[string]database.Receipt)
	s.receiptsMu.Unlock()

	return s.db.Reset()
}

// =============================================================================

// applyBlock runs the block's transactions through the engine, records
// their receipts and advances the latest block.
func (s *State) applyBlock(block database.Block) {
	for _, tx := range block.Trans.Values() {
		receipt, err := s.engine.Apply(block.Header.BeneficiaryID, tx)
		if err != nil {
			s.evHandler("state: applyBlock: WARNING: tx[%s]: %s", tx, err)
			continue
		}

		s.receiptsMu.Lock()
		s.receipts[receipt.TxHash] = receipt
		s.receiptsMu.Unlock()
	}

	s.engine.ApplyMiningReward(block)
	s.db.UpdateLatestBlock(block)
}

// verifyBlock checks the chain rules and the proof of work seal for a
// block about to extend the chain.
func (s *State) verifyBlock(block database.Block) error {
	if err := block.Validate(s.db.LatestBlock(), s.evHandler); err != nil {
		return err
	}

	// The declared difficulty must be the one our own retarget produces
	// for this height.
	if expected := s.nextDifficulty(); !block.Header.Difficulty.Eq(expected) {
		return fmt.Errorf("block difficulty mismatch, got %s, exp %s", block.Header.Difficulty, expected)
	}

	if !s.powAlg.Verify(block.Header.PreHash(), block.Header.Nonce, block.Header.Difficulty) {
		return ErrInvalidSeal
	}

	return nil
}

// nextDifficulty computes the difficulty the next block must be sealed
// at, from the trailing header window.
func (s *State) nextDifficulty() *uint256.Int {
	headers := s.db.LastHeaders()

	samples := make([]pow.Sample, len(headers))
	for i, header := range headers {
		samples[i] = pow.Sample{Difficulty: header.Difficulty, TimeStamp: header.TimeStamp}
	}

	d := s.genesis.Difficulty
	return pow.NextDifficulty(d.Initial, d.TargetBlockTimeMS, d.AdjustmentWindow, samples)
}
