// Package engine implements the state-transition rules of the registry:
// admission checks, the fee charge and the dispatch of each message kind
// against the database.
package engine

import (
	"errors"
	"fmt"

	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/fees"
	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/message"
)

// EventHandler defines a function that is called when events occur in the
// processing of transactions.
type EventHandler func(v string, args ...any)

// Engine applies transactions to the database. Validity failures reject
// the transaction outright; registry errors keep the transaction in the
// block with its fee charged and only roll back the payload effect.
type Engine struct {
	db        *database.Database
	policy    fees.Policy
	evHandler EventHandler
}

// New constructs a transaction engine over the specified database.
func New(db *database.Database, policy fees.Policy, evHandler EventHandler) *Engine {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Engine{
		db:        db,
		policy:    policy,
		evHandler: ev,
	}
}

// Apply runs the specified transaction against the database on behalf of
// the block author. A returned error means the transaction is invalid and
// must not be included in a block; a receipt with a Failed marker means it
// was included, charged, and its payload rejected.
func (e *Engine) Apply(beneficiaryID id.AccountID, tx database.BlockTx) (database.Receipt, error) {

	// Recover the sender from the signature. A transaction whose sender
	// cannot be established is unusable.
	fromID, err := tx.FromAccount()
	if err != nil {
		return database.Receipt{}, fmt.Errorf("%w: %s", database.ErrInvalidSignature, err)
	}

	if err := tx.Validate(e.db.Genesis().ChainID); err != nil {
		return database.Receipt{}, err
	}

	from, _ := e.db.Account(fromID)

	// The nonce must match exactly. Gaps and replays are both rejected
	// before any state changes.
	if tx.Nonce != from.Nonce {
		return database.Receipt{}, fmt.Errorf("invalid nonce, got %d, exp %d", tx.Nonce, from.Nonce)
	}

	if !e.policy.Covers(tx.FeeBid) {
		return database.Receipt{}, fmt.Errorf("fee bid %d does not cover the base fee %d", tx.FeeBid, e.policy.BaseFee)
	}

	if from.Balance < tx.FeeBid {
		return database.Receipt{}, fmt.Errorf("insufficient funds for fee, bal %d, bid %d", from.Balance, tx.FeeBid)
	}

	msg, err := tx.Msg.Decode()
	if err != nil {
		return database.Receipt{}, err
	}
	if v, ok := msg.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return database.Receipt{}, err
		}
	}

	// The fee is charged and the nonce consumed before dispatch, so a
	// failing payload still costs its author.
	from.Balance -= tx.FeeBid
	from.Nonce++
	e.db.SetAccount(from)

	burned, authorShare := e.policy.Split(tx.FeeBid)
	e.credit(beneficiaryID, authorShare)

	e.evHandler("engine: Apply: tx[%s]: fee %d charged, burned %d", tx, tx.FeeBid, burned)

	events, err := e.dispatch(fromID, msg)

	receipt := database.Receipt{TxHash: tx.HashString()}

	var regErr message.RegistryError
	switch {
	case err == nil:
		events = append(events, message.Applied{})

	case errors.As(err, &regErr):
		e.evHandler("engine: Apply: tx[%s]: payload rejected: %s", tx, regErr)
		events = []message.Event{message.Failed{Code: regErr}}

	default:
		return database.Receipt{}, err
	}

	for _, event := range events {
		envelope, err := message.EncodeEvent(event)
		if err != nil {
			return database.Receipt{}, err
		}
		receipt.Events = append(receipt.Events, envelope)
	}

	return receipt, nil
}

// ApplyMiningReward credits the block author with the flat block reward.
func (e *Engine) ApplyMiningReward(block database.Block) {
	e.evHandler("engine: ApplyMiningReward: beneficiary[%s] reward[%d]", block.Header.BeneficiaryID, e.policy.MiningReward)

	e.credit(block.Header.BeneficiaryID, e.policy.MiningReward)
}

// credit adds funds to an account, creating it on first touch.
func (e *Engine) credit(accountID id.AccountID, amount uint64) {
	account, exists := e.db.Account(accountID)
	if !exists {
		account = database.Account{AccountID: accountID}
	}
	account.Balance += amount
	e.db.SetAccount(account)
}

// =============================================================================

// dispatch routes the decoded message to its handler. Every returned
// error is a message.RegistryError.
func (e *Engine) dispatch(fromID id.AccountID, msg message.Message) ([]message.Event, error) {
	switch msg := msg.(type) {
	case message.RegisterOrg:
		return e.registerOrg(fromID, msg)
	case message.UnregisterOrg:
		return e.unregisterOrg(fromID, msg)
	case message.RegisterUser:
		return e.registerUser(fromID, msg)
	case message.UnregisterUser:
		return e.unregisterUser(fromID, msg)
	case message.RegisterMember:
		return e.registerMember(fromID, msg)
	case message.CreateCheckpoint:
		return e.createCheckpoint(fromID, msg)
	case message.RegisterProject:
		return e.registerProject(fromID, msg)
	case message.SetCheckpoint:
		return e.setCheckpoint(fromID, msg)
	case message.Transfer:
		return e.transfer(fromID, msg)
	case message.TransferFromOrg:
		return e.transferFromOrg(fromID, msg)
	}

	return nil, fmt.Errorf("no handler for message kind %q", msg.Kind())
}

func (e *Engine) registerOrg(fromID id.AccountID, msg message.RegisterOrg) ([]message.Event, error) {
	switch e.db.IDStatus(msg.OrgID) {
	case database.StatusRetired:
		return nil, message.ErrIDRetired
	case database.StatusTaken:
		return nil, message.ErrDuplicateOrgID
	}

	org := database.Org{
		ID:        msg.OrgID,
		AccountID: database.OrgAccountID(msg.OrgID),
		Members:   []id.AccountID{fromID},
	}
	e.db.SetOrg(org)

	return []message.Event{message.OrgRegistered{OrgID: msg.OrgID}}, nil
}

func (e *Engine) unregisterOrg(fromID id.AccountID, msg message.UnregisterOrg) ([]message.Event, error) {
	org, exists := e.db.Org(msg.OrgID)
	if !exists {
		return nil, message.ErrInexistentOrg
	}

	if !org.HasMember(fromID) {
		return nil, message.ErrInsufficientSenderPermissions
	}

	// An org can only be dissolved once it holds no projects and the
	// sender is the sole remaining member.
	if len(org.Projects) != 0 || len(org.Members) != 1 {
		return nil, message.ErrUnregisterableOrg
	}

	e.db.RetireOrg(msg.OrgID)

	return []message.Event{message.OrgUnregistered{OrgID: msg.OrgID}}, nil
}

func (e *Engine) registerUser(fromID id.AccountID, msg message.RegisterUser) ([]message.Event, error) {
	if _, exists := e.db.UserByAccount(fromID); exists {
		return nil, message.ErrUserAccountAssociated
	}

	switch e.db.IDStatus(msg.UserID) {
	case database.StatusRetired:
		return nil, message.ErrIDRetired
	case database.StatusTaken:
		return nil, message.ErrDuplicateUserID
	}

	e.db.SetUser(database.User{ID: msg.UserID, AccountID: fromID})

	return []message.Event{message.UserRegistered{UserID: msg.UserID}}, nil
}

func (e *Engine) unregisterUser(fromID id.AccountID, msg message.UnregisterUser) ([]message.Event, error) {
	user, exists := e.db.User(msg.UserID)
	if !exists {
		return nil, message.ErrInexistentUser
	}

	if user.AccountID != fromID {
		return nil, message.ErrInsufficientSenderPermissions
	}

	if len(user.Projects) != 0 {
		return nil, message.ErrUnregisterableUser
	}

	e.db.RetireUser(msg.UserID)

	return []message.Event{message.UserUnregistered{UserID: msg.UserID}}, nil
}

func (e *Engine) registerMember(fromID id.AccountID, msg message.RegisterMember) ([]message.Event, error) {
	org, exists := e.db.Org(msg.OrgID)
	if !exists {
		return nil, message.ErrInexistentOrg
	}

	if !org.HasMember(fromID) {
		return nil, message.ErrInsufficientSenderPermissions
	}

	user, exists := e.db.User(msg.UserID)
	if !exists {
		return nil, message.ErrInexistentUser
	}

	if org.HasMember(user.AccountID) {
		return nil, message.ErrAlreadyAMember
	}

	e.db.SetOrg(org.AddMember(user.AccountID))

	return []message.Event{message.MemberRegistered{OrgID: msg.OrgID, UserID: msg.UserID}}, nil
}

func (e *Engine) createCheckpoint(fromID id.AccountID, msg message.CreateCheckpoint) ([]message.Event, error) {
	if msg.PreviousCheckpointID != nil {
		if _, exists := e.db.Checkpoint(*msg.PreviousCheckpointID); !exists {
			return nil, message.ErrInexistentCheckpointID
		}
	}

	checkpointID := e.db.SetCheckpoint(database.Checkpoint{
		Parent: msg.PreviousCheckpointID,
		Hash:   msg.ProjectHash,
	})

	return []message.Event{message.CheckpointCreated{CheckpointID: checkpointID}}, nil
}

func (e *Engine) registerProject(fromID id.AccountID, msg message.RegisterProject) ([]message.Event, error) {
	if err := e.checkDomainPermission(fromID, msg.ProjectDomain); err != nil {
		return nil, err
	}

	cp, exists := e.db.Checkpoint(msg.CheckpointID)
	if !exists {
		return nil, message.ErrInexistentCheckpointID
	}

	// The anchoring checkpoint becomes the project's initial checkpoint
	// and must be a root.
	if cp.Parent != nil {
		return nil, message.ErrInexistentInitialProjectCheckpoint
	}

	key := id.NewProjectKey(msg.ProjectName, msg.ProjectDomain)
	if _, exists := e.db.Project(key); exists {
		return nil, message.ErrDuplicateProjectID
	}

	e.db.SetProject(database.Project{
		Name:              msg.ProjectName,
		Domain:            msg.ProjectDomain,
		CurrentCheckpoint: msg.CheckpointID,
		Metadata:          msg.Metadata,
	})

	// Record the project on its owning domain.
	switch msg.ProjectDomain.Kind {
	case id.DomainOrg:
		org, _ := e.db.Org(msg.ProjectDomain.ID)
		e.db.SetOrg(org.AddProject(msg.ProjectName))
	case id.DomainUser:
		user, _ := e.db.User(msg.ProjectDomain.ID)
		e.db.SetUser(user.AddProject(msg.ProjectName))
	}

	return []message.Event{message.ProjectRegistered{ProjectName: msg.ProjectName, ProjectDomain: msg.ProjectDomain}}, nil
}

func (e *Engine) setCheckpoint(fromID id.AccountID, msg message.SetCheckpoint) ([]message.Event, error) {
	if _, exists := e.db.Checkpoint(msg.NewCheckpointID); !exists {
		return nil, message.ErrInexistentCheckpointID
	}

	key := id.NewProjectKey(msg.ProjectName, msg.ProjectDomain)
	project, exists := e.db.Project(key)
	if !exists {
		return nil, message.ErrInexistentProjectID
	}

	if err := e.checkDomainPermission(fromID, msg.ProjectDomain); err != nil {
		return nil, err
	}

	if _, exists := e.db.InitialCheckpoint(key); !exists {
		return nil, message.ErrInexistentInitialProjectCheckpoint
	}

	if !e.db.DescendsFromInitial(key, msg.NewCheckpointID) {
		return nil, message.ErrInvalidCheckpointAncestry
	}

	project.CurrentCheckpoint = msg.NewCheckpointID
	e.db.SetProject(project)

	return []message.Event{message.CheckpointSet{
		ProjectName:   msg.ProjectName,
		ProjectDomain: msg.ProjectDomain,
		CheckpointID:  msg.NewCheckpointID,
	}}, nil
}

func (e *Engine) transfer(fromID id.AccountID, msg message.Transfer) ([]message.Event, error) {
	from, _ := e.db.Account(fromID)
	if from.Balance < msg.Amount {
		return nil, message.ErrInsufficientBalance
	}

	from.Balance -= msg.Amount
	e.db.SetAccount(from)
	e.credit(msg.Recipient, msg.Amount)

	return []message.Event{message.Transferred{From: fromID, To: msg.Recipient, Amount: msg.Amount}}, nil
}

func (e *Engine) transferFromOrg(fromID id.AccountID, msg message.TransferFromOrg) ([]message.Event, error) {
	org, exists := e.db.Org(msg.OrgID)
	if !exists {
		return nil, message.ErrInexistentOrg
	}

	if !org.HasMember(fromID) {
		return nil, message.ErrInsufficientSenderPermissions
	}

	orgAccount, _ := e.db.Account(org.AccountID)
	if orgAccount.Balance < msg.Amount {
		return nil, message.ErrInsufficientBalance
	}

	orgAccount.AccountID = org.AccountID
	orgAccount.Balance -= msg.Amount
	e.db.SetAccount(orgAccount)
	e.credit(msg.Recipient, msg.Amount)

	return []message.Event{message.Transferred{From: org.AccountID, To: msg.Recipient, Amount: msg.Amount}}, nil
}

// checkDomainPermission verifies the sender controls the org or user a
// project domain points at.
func (e *Engine) checkDomainPermission(fromID id.AccountID, domain id.ProjectDomain) error {
	switch domain.Kind {
	case id.DomainOrg:
		org, exists := e.db.Org(domain.ID)
		if !exists {
			return message.ErrInexistentOrg
		}
		if !org.HasMember(fromID) {
			return message.ErrInsufficientSenderPermissions
		}

	case id.DomainUser:
		user, exists := e.db.User(domain.ID)
		if !exists {
			return message.ErrInexistentUser
		}
		if user.AccountID != fromID {
			return message.ErrInsufficientSenderPermissions
		}
	}

	return nil
}
