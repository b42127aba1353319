package state

import (
	"errors"

	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/genesis"
	"github.com/registrychain/registry/foundation/registry/id"
)

// QueryLatest represents a query for the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// ErrNotFound is returned from queries for entities that do not exist.
var ErrNotFound = errors.New("not found")

// =============================================================================

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// LatestBlock returns a copy of the current latest block.
func (s *State) LatestBlock() database.Block {
	return s.db.LatestBlock()
}

// QueryAccount returns a copy of the account from the database.
func (s *State) QueryAccount(accountID id.AccountID) (database.Account, error) {
	account, exists := s.db.Account(accountID)
	if !exists {
		return database.Account{}, ErrNotFound
	}
	return account, nil
}

// QueryAccounts returns a copy of the full account set.
func (s *State) QueryAccounts() map[id.AccountID]database.Account {
	return s.db.CopyAccounts()
}

// QueryOrg returns the org registered under the specified id.
func (s *State) QueryOrg(orgID id.ID) (database.Org, error) {
	org, exists := s.db.Org(orgID)
	if !exists {
		return database.Org{}, ErrNotFound
	}
	return org, nil
}

// QueryOrgs returns all registered orgs.
func (s *State) QueryOrgs() []database.Org {
	return s.db.CopyOrgs()
}

// QueryUser returns the user registered under the specified id.
func (s *State) QueryUser(userID id.ID) (database.User, error) {
	user, exists := s.db.User(userID)
	if !exists {
		return database.User{}, ErrNotFound
	}
	return user, nil
}

// QueryUsers returns all registered users.
func (s *State) QueryUsers() []database.User {
	return s.db.CopyUsers()
}

// QueryIDStatus returns the lifecycle status of an org/user id.
func (s *State) QueryIDStatus(entityID id.ID) database.IDStatus {
	return s.db.IDStatus(entityID)
}

// QueryProject returns the project registered under the specified key.
func (s *State) QueryProject(key id.ProjectKey) (database.Project, error) {
	project, exists := s.db.Project(key)
	if !exists {
		return database.Project{}, ErrNotFound
	}
	return project, nil
}

// QueryProjects returns all registered projects.
func (s *State) QueryProjects() []database.Project {
	return s.db.CopyProjects()
}

// QueryCheckpoint returns the checkpoint stored under the specified id.
func (s *State) QueryCheckpoint(checkpointID string) (database.Checkpoint, error) {
	cp, exists := s.db.Checkpoint(checkpointID)
	if !exists {
		return database.Checkpoint{}, ErrNotFound
	}
	return cp, nil
}

// QueryReceipt returns the receipt recorded for the specified transaction
// hash.
func (s *State) QueryReceipt(txHash string) (database.Receipt, error) {
	s.receiptsMu.RLock()
	defer s.receiptsMu.RUnlock()

	receipt, exists := s.receipts[txHash]
	if !exists {
		return database.Receipt{}, ErrNotFound
	}
	return receipt, nil
}

// QueryMempool returns a copy of the mempool content.
func (s *State) QueryMempool() []database.BlockTx {
	return s.mempool.PickBest(-1)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
// This function reads the chain from disk.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	if from == QueryLatest {
		from = s.db.LatestBlock().Header.Number
		to = from
	}
	if to == QueryLatest {
		to = s.db.LatestBlock().Header.Number
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.db.GetBlock(i)
		if err != nil {
			s.evHandler("state: QueryBlocksByNumber: ERROR: %s", err)
			return nil
		}
		out = append(out, block)
	}

	return out
}
