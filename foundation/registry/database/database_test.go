package database_test

import (
	"testing"

	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/database/storage/memory"
	"github.com/registrychain/registry/foundation/registry/genesis"
	"github.com/registrychain/registry/foundation/registry/id"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func newTestDB(t *testing.T, balances map[string]uint64) *database.Database {
	t.Helper()

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open memory storage: %v", failed, err)
	}

	gen := genesis.Genesis{
		ChainID:       1,
		TransPerBlock: 10,
		BaseFee:       5,
		Balances:      balances,
		Difficulty: genesis.Difficulty{
			Initial:           100,
			AdjustmentWindow:  3,
			TargetBlockTimeMS: 1000,
		},
	}

	db, err := database.New(gen, strg)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open database: %v", failed, err)
	}

	return db
}

// =============================================================================

func Test_IDLifecycle(t *testing.T) {
	t.Log("Given the need to validate the org and user id lifecycle.")
	{
		t.Logf("\tTest 0:\tWhen registering and retiring ids.")
		{
			db := newTestDB(t, nil)

			orgID := id.MustParseID("monadic")
			userID := id.MustParseID("cloudhead")
			account := id.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")

			if status := db.IDStatus(orgID); status != database.StatusAvailable {
				t.Fatalf("\t%s\tTest 0:\tShould report a fresh id as available: got %s.", failed, status)
			}
			t.Logf("\t%s\tTest 0:\tShould report a fresh id as available.", success)

			db.SetOrg(database.Org{ID: orgID, AccountID: database.OrgAccountID(orgID), Members: []id.AccountID{account}})

			if status := db.IDStatus(orgID); status != database.StatusTaken {
				t.Fatalf("\t%s\tTest 0:\tShould report a registered org id as taken: got %s.", failed, status)
			}
			t.Logf("\t%s\tTest 0:\tShould report a registered org id as taken.", success)

			// Users share the same namespace as orgs.
			db.SetUser(database.User{ID: userID, AccountID: account})
			if status := db.IDStatus(userID); status != database.StatusTaken {
				t.Fatalf("\t%s\tTest 0:\tShould report a registered user id as taken: got %s.", failed, status)
			}
			t.Logf("\t%s\tTest 0:\tShould report a registered user id as taken.", success)

			db.RetireOrg(orgID)
			if status := db.IDStatus(orgID); status != database.StatusRetired {
				t.Fatalf("\t%s\tTest 0:\tShould report a retired org id as retired: got %s.", failed, status)
			}
			t.Logf("\t%s\tTest 0:\tShould report a retired org id as retired.", success)

			db.RetireUser(userID)
			if status := db.IDStatus(userID); status != database.StatusRetired {
				t.Fatalf("\t%s\tTest 0:\tShould report a retired user id as retired: got %s.", failed, status)
			}
			t.Logf("\t%s\tTest 0:\tShould report a retired user id as retired.", success)

			if _, exists := db.UserByAccount(account); exists {
				t.Fatalf("\t%s\tTest 0:\tShould unlink the account when the user retires.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould unlink the account when the user retires.", success)
		}
	}
}

func Test_CheckpointAncestry(t *testing.T) {
	t.Log("Given the need to validate checkpoint ancestry walks.")
	{
		t.Logf("\tTest 0:\tWhen following parent links back to the initial checkpoint.")
		{
			db := newTestDB(t, nil)

			initial := db.SetCheckpoint(database.Checkpoint{Hash: "hash-0"})
			childID := db.SetCheckpoint(database.Checkpoint{Parent: &initial, Hash: "hash-1"})
			grandID := db.SetCheckpoint(database.Checkpoint{Parent: &childID, Hash: "hash-2"})
			orphanID := db.SetCheckpoint(database.Checkpoint{Hash: "hash-x"})

			domain := id.OrgDomain(id.MustParseID("monadic"))
			project := database.Project{
				Name:              id.MustParseProjectName("radicle"),
				Domain:            domain,
				CurrentCheckpoint: initial,
			}
			db.SetProject(project)

			got, exists := db.InitialCheckpoint(project.Key())
			if !exists || got != initial {
				t.Fatalf("\t%s\tTest 0:\tShould record the first checkpoint as initial.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould record the first checkpoint as initial.", success)

			if !db.DescendsFromInitial(project.Key(), grandID) {
				t.Fatalf("\t%s\tTest 0:\tShould accept a descendant of the initial checkpoint.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould accept a descendant of the initial checkpoint.", success)

			if !db.DescendsFromInitial(project.Key(), initial) {
				t.Fatalf("\t%s\tTest 0:\tShould accept the initial checkpoint itself.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould accept the initial checkpoint itself.", success)

			if db.DescendsFromInitial(project.Key(), orphanID) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a checkpoint from a disconnected history.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a checkpoint from a disconnected history.", success)

			// A later move must not change what counts as initial.
			project.CurrentCheckpoint = grandID
			db.SetProject(project)

			got, _ = db.InitialCheckpoint(project.Key())
			if got != initial {
				t.Fatalf("\t%s\tTest 0:\tShould keep the initial checkpoint stable across moves.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the initial checkpoint stable across moves.", success)
		}
	}
}

func Test_HeaderWindow(t *testing.T) {
	t.Log("Given the need to validate the trailing header window.")
	{
		t.Logf("\tTest 0:\tWhen more blocks arrive than the window holds.")
		{
			db := newTestDB(t, nil)

			for i := 1; i <= 6; i++ {
				block := database.Block{
					Header: database.BlockHeader{
						Number:    uint64(i),
						TimeStamp: uint64(1000 * i),
					},
				}
				db.UpdateLatestBlock(block)
			}

			headers := db.LastHeaders()
			if len(headers) != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould keep window+1 headers: got %d, exp %d.", failed, len(headers), 4)
			}
			t.Logf("\t%s\tTest 0:\tShould keep window+1 headers.", success)

			if headers[0].Number != 3 || headers[len(headers)-1].Number != 6 {
				t.Fatalf("\t%s\tTest 0:\tShould keep the most recent headers oldest first: got [%d..%d].", failed, headers[0].Number, headers[len(headers)-1].Number)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the most recent headers oldest first.", success)

			if db.LatestBlock().Header.Number != 6 {
				t.Fatalf("\t%s\tTest 0:\tShould track the latest block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould track the latest block.", success)
		}
	}
}
