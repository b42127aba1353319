// Package database maintains the in-memory registry state, the account
// balances and the chain of blocks on disk.
package database

import (
	"sort"
	"sync"

	"github.com/registrychain/registry/foundation/registry/genesis"
	"github.com/registrychain/registry/foundation/registry/id"
)

// Database manages the registry state that transactions operate on. The
// block chain itself lives in the storage layer, everything else is kept
// in memory and rebuilt by replaying the chain on startup.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	latestBlock Block
	headers     []BlockHeader

	accounts map[id.AccountID]Account

	orgs         map[id.ID]Org
	users        map[id.ID]User
	retired      map[id.ID]bool
	accountUsers map[id.AccountID]id.ID

	projects           map[id.ProjectKey]Project
	initialCheckpoints map[id.ProjectKey]string
	checkpoints        map[string]Checkpoint

	storage Storage
}

// New constructs a new database seeded with the genesis balances. The
// chain on disk is not replayed here, the state layer replays it through
// the transaction engine.
func New(genesis genesis.Genesis, storage Storage) (*Database, error) {
	db := Database{
		genesis:            genesis,
		accounts:           make(map[id.AccountID]Account),
		orgs:               make(map[id.ID]Org),
		users:              make(map[id.ID]User),
		retired:            make(map[id.ID]bool),
		accountUsers:       make(map[id.AccountID]id.ID),
		projects:           make(map[id.ProjectKey]Project),
		initialCheckpoints: make(map[id.ProjectKey]string),
		checkpoints:        make(map[string]Checkpoint),
		storage:            storage,
	}

	for accountStr, balance := range genesis.Balances {
		accountID, err := id.ToAccountID(accountStr)
		if err != nil {
			return nil, err
		}
		db.accounts[accountID] = Account{AccountID: accountID, Balance: balance}
	}

	return &db, nil
}

// Close closes the underlying block storage.
func (db *Database) Close() {
	db.storage.Close()
}

// Reset re-initializes the database back to the genesis state.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.latestBlock = Block{}
	db.headers = nil
	db.accounts = make(map[id.AccountID]Account)
	db.orgs = make(map[id.ID]Org)
	db.users = make(map[id.ID]User)
	db.retired = make(map[id.ID]bool)
	db.accountUsers = make(map[id.AccountID]id.ID)
	db.projects = make(map[id.ProjectKey]Project)
	db.initialCheckpoints = make(map[id.ProjectKey]string)
	db.checkpoints = make(map[string]Checkpoint)

	for accountStr, balance := range db.genesis.Balances {
		accountID, err := id.ToAccountID(accountStr)
		if err != nil {
			return err
		}
		db.accounts[accountID] = Account{AccountID: accountID, Balance: balance}
	}

	return nil
}

// Genesis returns a copy of the genesis information.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// =============================================================================
// Accounts

// Account retrieves the account for the specified account id.
func (db *Database) Account(accountID id.AccountID) (Account, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	account, exists := db.accounts[accountID]
	return account, exists
}

// SetAccount stores the account in the database.
func (db *Database) SetAccount(account Account) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.accounts[account.AccountID] = account
}

// CopyAccounts makes a copy of the current accounts in the database.
func (db *Database) CopyAccounts() map[id.AccountID]Account {
	db.mu.RLock()
	defer db.mu.RUnlock()

	accounts := make(map[id.AccountID]Account, len(db.accounts))
	for accountID, account := range db.accounts {
		accounts[accountID] = account
	}
	return accounts
}

// =============================================================================
// Orgs and users

// IDStatus reports whether the specified id is available, currently taken
// by an org or user, or permanently retired. Orgs and users share one id
// namespace and retired ids can never be taken again.
func (db *Database) IDStatus(entityID id.ID) IDStatus {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.idStatus(entityID)
}

func (db *Database) idStatus(entityID id.ID) IDStatus {
	if db.retired[entityID] {
		return StatusRetired
	}
	if _, exists := db.orgs[entityID]; exists {
		return StatusTaken
	}
	if _, exists := db.users[entityID]; exists {
		return StatusTaken
	}
	return StatusAvailable
}

// Org retrieves the org for the specified id.
func (db *Database) Org(orgID id.ID) (Org, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	org, exists := db.orgs[orgID]
	return org, exists
}

// SetOrg stores the org in the database.
func (db *Database) SetOrg(org Org) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.orgs[org.ID] = org
}

// RetireOrg removes the org and permanently retires its id. Any balance
// left on the org account stays in the ledger but becomes unreachable.
func (db *Database) RetireOrg(orgID id.ID) {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.orgs, orgID)
	db.retired[orgID] = true
}

// CopyOrgs makes a copy of the current orgs in the database sorted by id.
func (db *Database) CopyOrgs() []Org {
	db.mu.RLock()
	defer db.mu.RUnlock()

	orgs := make([]Org, 0, len(db.orgs))
	for _, org := range db.orgs {
		orgs = append(orgs, org)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].ID.String() < orgs[j].ID.String() })

	return orgs
}

// User retrieves the user for the specified id.
func (db *Database) User(userID id.ID) (User, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	user, exists := db.users[userID]
	return user, exists
}

// UserByAccount retrieves the user associated with the specified account.
func (db *Database) UserByAccount(accountID id.AccountID) (User, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	userID, exists := db.accountUsers[accountID]
	if !exists {
		return User{}, false
	}

	user, exists := db.users[userID]
	return user, exists
}

// SetUser stores the user in the database and indexes its account. An
// account can be associated with at most one user, the engine checks
// this before registration.
func (db *Database) SetUser(user User) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.users[user.ID] = user
	db.accountUsers[user.AccountID] = user.ID
}

// RetireUser removes the user, unlinks its account and permanently
// retires its id.
func (db *Database) RetireUser(userID id.ID) {
	db.mu.Lock()
	defer db.mu.Unlock()

	user, exists := db.users[userID]
	if !exists {
		return
	}

	delete(db.users, userID)
	delete(db.accountUsers, user.AccountID)
	db.retired[userID] = true
}

// CopyUsers makes a copy of the current users in the database sorted by id.
func (db *Database) CopyUsers() []User {
	db.mu.RLock()
	defer db.mu.RUnlock()

	users := make([]User, 0, len(db.users))
	for _, user := range db.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID.String() < users[j].ID.String() })

	return users
}

// =============================================================================
// Projects and checkpoints

// Checkpoint retrieves the checkpoint for the specified checkpoint id.
func (db *Database) Checkpoint(checkpointID string) (Checkpoint, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	cp, exists := db.checkpoints[checkpointID]
	return cp, exists
}

// SetCheckpoint stores the checkpoint under its content hash id and
// returns that id. Storing the same checkpoint twice is a no-op.
func (db *Database) SetCheckpoint(cp Checkpoint) string {
	db.mu.Lock()
	defer db.mu.Unlock()

	checkpointID := cp.ID()
	db.checkpoints[checkpointID] = cp
	return checkpointID
}

// Project retrieves the project for the specified key.
func (db *Database) Project(key id.ProjectKey) (Project, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	project, exists := db.projects[key]
	return project, exists
}

// SetProject stores the project in the database. The first time a project
// is stored, its current checkpoint is recorded as the project's initial
// checkpoint which anchors the ancestry rule for later checkpoint moves.
func (db *Database) SetProject(project Project) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := project.Key()
	if _, exists := db.initialCheckpoints[key]; !exists {
		db.initialCheckpoints[key] = project.CurrentCheckpoint
	}
	db.projects[key] = project
}

// InitialCheckpoint returns the checkpoint id the project was registered
// with.
func (db *Database) InitialCheckpoint(key id.ProjectKey) (string, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	checkpointID, exists := db.initialCheckpoints[key]
	return checkpointID, exists
}

// DescendsFromInitial walks the parent links of the specified checkpoint
// and reports whether the walk reaches the project's initial checkpoint.
func (db *Database) DescendsFromInitial(key id.ProjectKey, checkpointID string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	initial, exists := db.initialCheckpoints[key]
	if !exists {
		return false
	}

	current := checkpointID
	for {
		if current == initial {
			return true
		}

		cp, exists := db.checkpoints[current]
		if !exists || cp.Parent == nil {
			return false
		}
		current = *cp.Parent
	}
}

// CopyProjects makes a copy of the current projects in the database
// sorted by domain then name.
func (db *Database) CopyProjects() []Project {
	db.mu.RLock()
	defer db.mu.RUnlock()

	projects := make([]Project, 0, len(db.projects))
	for _, project := range db.projects {
		projects = append(projects, project)
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].Domain.String() != projects[j].Domain.String() {
			return projects[i].Domain.String() < projects[j].Domain.String()
		}
		return projects[i].Name.String() < projects[j].Name.String()
	})

	return projects
}

// =============================================================================
// Blocks

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// UpdateLatestBlock provides safe access to update the latest block and
// the trailing header window used for difficulty retargeting.
func (db *Database) UpdateLatestBlock(block Block) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.latestBlock = block
	db.headers = append(db.headers, block.Header)

	// Only a window of trailing headers is needed for retargeting.
	if max := db.genesis.Difficulty.AdjustmentWindow + 1; len(db.headers) > max {
		db.headers = db.headers[len(db.headers)-max:]
	}
}

// LastHeaders returns a copy of the trailing header window, oldest first.
func (db *Database) LastHeaders() []BlockHeader {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return append([]BlockHeader(nil), db.headers...)
}

// Write adds a new block to the chain.
func (db *Database) Write(block Block) error {
	return db.storage.Write(NewBlockData(block))
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (db *Database) ForEach() DatabaseIterator {
	return DatabaseIterator{iterator: db.storage.ForEach()}
}

// GetBlock locates and returns the contents of the specified block
// by number from storage.
func (db *Database) GetBlock(num uint64) (Block, error) {
	blockData, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, err
	}
	return ToBlock(blockData)
}
