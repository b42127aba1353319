package engine_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/database/storage/memory"
	"github.com/registrychain/registry/foundation/registry/engine"
	"github.com/registrychain/registry/foundation/registry/fees"
	"github.com/registrychain/registry/foundation/registry/genesis"
	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/message"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	chainID     = uint16(1)
	baseFee     = uint64(10)
	beneficiary = id.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
)

// =============================================================================

type harness struct {
	t      *testing.T
	db     *database.Database
	eng    *engine.Engine
	nonces map[id.AccountID]uint64
}

func newHarness(t *testing.T, balances map[string]uint64) *harness {
	t.Helper()

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open memory storage: %v", failed, err)
	}

	gen := genesis.Genesis{
		ChainID:        chainID,
		TransPerBlock:  100,
		BaseFee:        baseFee,
		FeeBurnPercent: 1,
		MiningReward:   50,
		Balances:       balances,
		Difficulty: genesis.Difficulty{
			Initial:           100,
			AdjustmentWindow:  5,
			TargetBlockTimeMS: 1000,
		},
	}

	db, err := database.New(gen, strg)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open database: %v", failed, err)
	}

	return &harness{
		t:      t,
		db:     db,
		eng:    engine.New(db, fees.NewPolicy(gen), nil),
		nonces: make(map[id.AccountID]uint64),
	}
}

func newKey(t *testing.T) (*ecdsa.PrivateKey, id.AccountID) {
	t.Helper()

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
	}

	return privateKey, id.PublicKeyToAccountID(privateKey.PublicKey)
}

// submit signs and applies a message with the account's next nonce,
// expecting the transaction to be accepted for inclusion.
func (h *harness) submit(privateKey *ecdsa.PrivateKey, msg message.Message) database.Receipt {
	h.t.Helper()

	accountID := id.PublicKeyToAccountID(privateKey.PublicKey)

	tx, err := database.NewTx(chainID, h.nonces[accountID], baseFee, msg)
	if err != nil {
		h.t.Fatalf("\t%s\tShould be able to construct transaction: %v", failed, err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		h.t.Fatalf("\t%s\tShould be able to sign transaction: %v", failed, err)
	}

	receipt, err := h.eng.Apply(beneficiary, database.NewBlockTx(signedTx))
	if err != nil {
		h.t.Fatalf("\t%s\tShould be able to apply %s transaction: %v", failed, msg.Kind(), err)
	}

	h.nonces[accountID]++
	return receipt
}

// outcome decodes the final event of the receipt and returns the failure
// code if the payload was rejected.
func (h *harness) outcome(receipt database.Receipt) (applied bool, code message.RegistryError) {
	h.t.Helper()

	if len(receipt.Events) == 0 {
		h.t.Fatalf("\t%s\tShould have at least the outcome event in the receipt.", failed)
	}

	event, err := receipt.Events[len(receipt.Events)-1].Decode()
	if err != nil {
		h.t.Fatalf("\t%s\tShould be able to decode the outcome event: %v", failed, err)
	}

	switch event := event.(type) {
	case message.Applied:
		return true, 0
	case message.Failed:
		return false, event.Code
	}

	h.t.Fatalf("\t%s\tShould close the receipt with an outcome marker.", failed)
	return false, 0
}

func (h *harness) wantApplied(receipt database.Receipt, what string) {
	h.t.Helper()

	if applied, code := h.outcome(receipt); !applied {
		h.t.Fatalf("\t%s\tShould apply %s: got failure %s.", failed, what, code)
	}
	h.t.Logf("\t%s\tShould apply %s.", success, what)
}

func (h *harness) wantFailed(receipt database.Receipt, want message.RegistryError, what string) {
	h.t.Helper()

	applied, code := h.outcome(receipt)
	if applied {
		h.t.Fatalf("\t%s\tShould reject %s.", failed, what)
	}
	if code != want {
		h.t.Fatalf("\t%s\tShould reject %s with %q: got %q.", failed, what, want, code)
	}
	h.t.Logf("\t%s\tShould reject %s with %q.", success, what, want)
}

// =============================================================================

func Test_OrgLifecycle(t *testing.T) {
	t.Log("Given the need to validate the org lifecycle rules.")
	{
		t.Logf("\tTest 0:\tWhen an org is registered, grown and dissolved.")
		{
			aliceKey, alice := newKey(t)
			bobKey, bob := newKey(t)

			h := newHarness(t, map[string]uint64{
				string(alice): 1000,
				string(bob):   1000,
			})

			orgID := id.MustParseID("acme")

			h.wantApplied(h.submit(aliceKey, message.RegisterOrg{OrgID: orgID}), "org registration")

			org, exists := h.db.Org(orgID)
			if !exists || !org.HasMember(alice) {
				t.Fatalf("\t%s\tTest 0:\tShould record the sender as the founding member.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould record the sender as the founding member.", success)

			h.wantFailed(h.submit(bobKey, message.RegisterOrg{OrgID: orgID}), message.ErrDuplicateOrgID, "a duplicate org id")

			// Membership requires a registered user for the new member.
			h.wantApplied(h.submit(bobKey, message.RegisterUser{UserID: id.MustParseID("bob")}), "user registration")
			h.wantFailed(h.submit(bobKey, message.RegisterMember{OrgID: orgID, UserID: id.MustParseID("bob")}), message.ErrInsufficientSenderPermissions, "a member registration by a non-member")
			h.wantApplied(h.submit(aliceKey, message.RegisterMember{OrgID: orgID, UserID: id.MustParseID("bob")}), "member registration")
			h.wantFailed(h.submit(aliceKey, message.RegisterMember{OrgID: orgID, UserID: id.MustParseID("bob")}), message.ErrAlreadyAMember, "a repeated member registration")

			// Two members remain, so the org cannot be dissolved yet.
			h.wantFailed(h.submit(aliceKey, message.UnregisterOrg{OrgID: orgID}), message.ErrUnregisterableOrg, "dissolving an org with two members")

			org, _ = h.db.Org(orgID)
			org.Members = []id.AccountID{alice}
			h.db.SetOrg(org)

			h.wantFailed(h.submit(bobKey, message.UnregisterOrg{OrgID: orgID}), message.ErrInsufficientSenderPermissions, "dissolving an org by a non-member")
			h.wantApplied(h.submit(aliceKey, message.UnregisterOrg{OrgID: orgID}), "org dissolution")

			if status := h.db.IDStatus(orgID); status != database.StatusRetired {
				t.Fatalf("\t%s\tTest 0:\tShould retire the org id: got %s.", failed, status)
			}
			t.Logf("\t%s\tTest 0:\tShould retire the org id.", success)

			h.wantFailed(h.submit(aliceKey, message.RegisterOrg{OrgID: orgID}), message.ErrIDRetired, "re-registering a retired id")
			h.wantFailed(h.submit(bobKey, message.RegisterUser{UserID: orgID}), message.ErrUserAccountAssociated, "a second user on one account")
		}
	}
}

func Test_UserLifecycle(t *testing.T) {
	t.Log("Given the need to validate the user lifecycle rules.")
	{
		t.Logf("\tTest 0:\tWhen a user is registered and later retired.")
		{
			aliceKey, alice := newKey(t)
			bobKey, bob := newKey(t)

			h := newHarness(t, map[string]uint64{
				string(alice): 1000,
				string(bob):   1000,
			})

			bobID := id.MustParseID("bob")
			h.wantApplied(h.submit(bobKey, message.RegisterUser{UserID: bobID}), "user registration")

			h.wantFailed(h.submit(bobKey, message.UnregisterUser{UserID: id.MustParseID("ghost")}), message.ErrInexistentUser, "unregistering an unknown user")
			h.wantFailed(h.submit(aliceKey, message.UnregisterUser{UserID: bobID}), message.ErrInsufficientSenderPermissions, "unregistering a user from another account")

			// A user owning a project cannot be unregistered.
			receipt := h.submit(bobKey, message.CreateCheckpoint{ProjectHash: "sha-root"})
			h.wantApplied(receipt, "root checkpoint creation")
			rootID := checkpointID(t, receipt)

			h.wantApplied(h.submit(bobKey, message.RegisterProject{ProjectName: id.MustParseProjectName("dotfiles"), ProjectDomain: id.UserDomain(bobID), CheckpointID: rootID}), "a user domain project registration")
			h.wantFailed(h.submit(bobKey, message.UnregisterUser{UserID: bobID}), message.ErrUnregisterableUser, "unregistering a user that owns a project")

			aliceID := id.MustParseID("alice")
			h.wantApplied(h.submit(aliceKey, message.RegisterUser{UserID: aliceID}), "a second user registration")
			h.wantApplied(h.submit(aliceKey, message.UnregisterUser{UserID: aliceID}), "user unregistration")

			if status := h.db.IDStatus(aliceID); status != database.StatusRetired {
				t.Fatalf("\t%s\tTest 0:\tShould retire the user id: got %s.", failed, status)
			}
			t.Logf("\t%s\tTest 0:\tShould retire the user id.", success)

			h.wantFailed(h.submit(aliceKey, message.RegisterUser{UserID: aliceID}), message.ErrIDRetired, "re-registering a retired user id")

			// Retiring also released the account association.
			h.wantApplied(h.submit(aliceKey, message.RegisterUser{UserID: id.MustParseID("alice2")}), "a fresh registration after retirement")
		}
	}
}

func Test_CheckpointFlow(t *testing.T) {
	t.Log("Given the need to validate project and checkpoint rules.")
	{
		t.Logf("\tTest 0:\tWhen a project moves along its checkpoint history.")
		{
			aliceKey, alice := newKey(t)
			intruderKey, intruder := newKey(t)

			h := newHarness(t, map[string]uint64{
				string(alice):    1000,
				string(intruder): 1000,
			})

			orgID := id.MustParseID("monadic")
			domain := id.OrgDomain(orgID)
			name := id.MustParseProjectName("radicle")

			h.wantApplied(h.submit(aliceKey, message.RegisterOrg{OrgID: orgID}), "org registration")

			// Root checkpoint, then the project anchored at it.
			receipt := h.submit(aliceKey, message.CreateCheckpoint{ProjectHash: "sha-root"})
			h.wantApplied(receipt, "root checkpoint creation")
			rootID := checkpointID(t, receipt)

			receipt = h.submit(aliceKey, message.CreateCheckpoint{ProjectHash: "sha-child", PreviousCheckpointID: &rootID})
			h.wantApplied(receipt, "child checkpoint creation")
			childID := checkpointID(t, receipt)

			h.wantFailed(h.submit(aliceKey, message.RegisterProject{ProjectName: name, ProjectDomain: domain, CheckpointID: "0xmissing"}), message.ErrInexistentCheckpointID, "a project anchored at a missing checkpoint")
			h.wantFailed(h.submit(aliceKey, message.RegisterProject{ProjectName: name, ProjectDomain: domain, CheckpointID: childID}), message.ErrInexistentInitialProjectCheckpoint, "a project anchored at a non-root checkpoint")
			h.wantApplied(h.submit(aliceKey, message.RegisterProject{ProjectName: name, ProjectDomain: domain, CheckpointID: rootID}), "project registration")
			h.wantFailed(h.submit(aliceKey, message.RegisterProject{ProjectName: name, ProjectDomain: domain, CheckpointID: rootID}), message.ErrDuplicateProjectID, "a duplicate project")

			receipt = h.submit(aliceKey, message.CreateCheckpoint{ProjectHash: "sha-orphan"})
			h.wantApplied(receipt, "orphan checkpoint creation")
			orphanID := checkpointID(t, receipt)

			h.wantFailed(h.submit(intruderKey, message.SetCheckpoint{ProjectName: name, ProjectDomain: domain, NewCheckpointID: childID}), message.ErrInsufficientSenderPermissions, "a checkpoint move by a non-member")
			h.wantFailed(h.submit(aliceKey, message.SetCheckpoint{ProjectName: name, ProjectDomain: domain, NewCheckpointID: orphanID}), message.ErrInvalidCheckpointAncestry, "a move to a disconnected checkpoint")
			h.wantApplied(h.submit(aliceKey, message.SetCheckpoint{ProjectName: name, ProjectDomain: domain, NewCheckpointID: childID}), "a checkpoint move along the history")

			project, _ := h.db.Project(id.NewProjectKey(name, domain))
			if project.CurrentCheckpoint != childID {
				t.Fatalf("\t%s\tTest 0:\tShould move the current checkpoint: got %s.", failed, project.CurrentCheckpoint)
			}
			t.Logf("\t%s\tTest 0:\tShould move the current checkpoint.", success)

			h.wantFailed(h.submit(aliceKey, message.CreateCheckpoint{ProjectHash: "sha-bad", PreviousCheckpointID: &[]string{"0xmissing"}[0]}), message.ErrInexistentCheckpointID, "a checkpoint with a missing parent")

			// The org now owns a project, so it cannot be dissolved.
			h.wantFailed(h.submit(aliceKey, message.UnregisterOrg{OrgID: orgID}), message.ErrUnregisterableOrg, "dissolving an org that owns a project")
		}
	}
}

func Test_FeesAndNonces(t *testing.T) {
	t.Log("Given the need to validate fee charging and nonce rules.")
	{
		t.Logf("\tTest 0:\tWhen transactions succeed, fail and get rejected.")
		{
			aliceKey, alice := newKey(t)

			h := newHarness(t, map[string]uint64{string(alice): 100})

			h.wantApplied(h.submit(aliceKey, message.RegisterOrg{OrgID: id.MustParseID("acme")}), "org registration")

			// A failing payload still pays: the duplicate registration
			// below burns another fee and consumes another nonce.
			h.wantFailed(h.submit(aliceKey, message.RegisterOrg{OrgID: id.MustParseID("acme")}), message.ErrDuplicateOrgID, "a duplicate org id")

			account, _ := h.db.Account(alice)
			if account.Balance != 100-2*baseFee {
				t.Fatalf("\t%s\tTest 0:\tShould charge the fee for failed payloads too: got bal %d, exp %d.", failed, account.Balance, 100-2*baseFee)
			}
			t.Logf("\t%s\tTest 0:\tShould charge the fee for failed payloads too.", success)

			if account.Nonce != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould consume a nonce per included transaction: got %d.", failed, account.Nonce)
			}
			t.Logf("\t%s\tTest 0:\tShould consume a nonce per included transaction.", success)

			// Burn at 1%% of a 10 unit fee rounds to zero, so the author
			// receives the full fee here.
			bnfc, _ := h.db.Account(beneficiary)
			if bnfc.Balance != 2*baseFee {
				t.Fatalf("\t%s\tTest 0:\tShould credit the author with the fee share: got %d.", failed, bnfc.Balance)
			}
			t.Logf("\t%s\tTest 0:\tShould credit the author with the fee share.", success)

			// A stale nonce is a validity failure: rejected outright with
			// no fee charged.
			tx, err := database.NewTx(chainID, 0, baseFee, message.RegisterOrg{OrgID: id.MustParseID("other")})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct transaction: %v", failed, err)
			}
			signedTx, err := tx.Sign(aliceKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign transaction: %v", failed, err)
			}
			if _, err := h.eng.Apply(beneficiary, database.NewBlockTx(signedTx)); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a stale nonce outright.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a stale nonce outright.", success)

			// An underbid fee is also a validity failure.
			tx, err = database.NewTx(chainID, 2, baseFee-1, message.RegisterOrg{OrgID: id.MustParseID("other")})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct transaction: %v", failed, err)
			}
			signedTx, err = tx.Sign(aliceKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign transaction: %v", failed, err)
			}
			if _, err := h.eng.Apply(beneficiary, database.NewBlockTx(signedTx)); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a fee bid below the base fee.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a fee bid below the base fee.", success)

			account, _ = h.db.Account(alice)
			if account.Balance != 100-2*baseFee || account.Nonce != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould leave state untouched by rejected transactions.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould leave state untouched by rejected transactions.", success)
		}
	}
}

func Test_Transfers(t *testing.T) {
	t.Log("Given the need to validate account and org transfers.")
	{
		t.Logf("\tTest 0:\tWhen funds move between accounts and org pools.")
		{
			aliceKey, alice := newKey(t)
			bobKey, bob := newKey(t)

			h := newHarness(t, map[string]uint64{
				string(alice): 1000,
				string(bob):   100,
			})

			orgID := id.MustParseID("acme")
			h.wantApplied(h.submit(aliceKey, message.RegisterOrg{OrgID: orgID}), "org registration")

			org, _ := h.db.Org(orgID)

			// Fund the pooled org account from alice.
			h.wantApplied(h.submit(aliceKey, message.Transfer{Recipient: org.AccountID, Amount: 300}), "funding the org account")

			orgAccount, _ := h.db.Account(org.AccountID)
			if orgAccount.Balance != 300 {
				t.Fatalf("\t%s\tTest 0:\tShould credit the org account: got %d.", failed, orgAccount.Balance)
			}
			t.Logf("\t%s\tTest 0:\tShould credit the org account.", success)

			h.wantFailed(h.submit(bobKey, message.TransferFromOrg{OrgID: orgID, Recipient: bob, Amount: 100}), message.ErrInsufficientSenderPermissions, "an org transfer by a non-member")
			h.wantFailed(h.submit(aliceKey, message.TransferFromOrg{OrgID: orgID, Recipient: bob, Amount: 900}), message.ErrInsufficientBalance, "an org transfer beyond the pool")
			h.wantApplied(h.submit(aliceKey, message.TransferFromOrg{OrgID: orgID, Recipient: bob, Amount: 100}), "an org transfer by a member")

			bobAccount, _ := h.db.Account(bob)
			wantBob := uint64(100) - baseFee + 100
			if bobAccount.Balance != wantBob {
				t.Fatalf("\t%s\tTest 0:\tShould credit the recipient: got %d, exp %d.", failed, bobAccount.Balance, wantBob)
			}
			t.Logf("\t%s\tTest 0:\tShould credit the recipient.", success)

			// The payload amount is checked after the fee is taken, so a
			// transfer of everything minus the fee succeeds while one
			// unit more fails.
			h.wantFailed(h.submit(bobKey, message.Transfer{Recipient: alice, Amount: wantBob - baseFee + 1}), message.ErrInsufficientBalance, "a transfer beyond the post-fee balance")
		}
	}
}

// =============================================================================

// checkpointID digs the new checkpoint id out of a receipt.
func checkpointID(t *testing.T, receipt database.Receipt) string {
	t.Helper()

	for _, envelope := range receipt.Events {
		event, err := envelope.Decode()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to decode receipt event: %v", failed, err)
		}
		if created, ok := event.(message.CheckpointCreated); ok {
			return created.CheckpointID
		}
	}

	t.Fatalf("\t%s\tShould find a checkpoint_created event in the receipt.", failed)
	return ""
}
