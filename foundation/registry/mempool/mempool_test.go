package mempool_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/mempool"
	"github.com/registrychain/registry/foundation/registry/message"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func sign(t *testing.T, privateKey *ecdsa.PrivateKey, nonce uint64, feeBid uint64) database.BlockTx {
	t.Helper()

	tx, err := database.NewTx(1, nonce, feeBid, message.RegisterOrg{OrgID: id.MustParseID("acme")})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct transaction: %v", failed, err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign transaction: %v", failed, err)
	}

	return database.NewBlockTx(signedTx)
}

func Test_Mempool(t *testing.T) {
	t.Log("Given the need to maintain and drain the transaction pool.")
	{
		t.Logf("\tTest 0:\tWhen selecting transactions across accounts.")
		{
			aliceKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a key: %v", failed, err)
			}
			bobKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a key: %v", failed, err)
			}

			mp, err := mempool.New()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a mempool: %v", failed, err)
			}

			txs := []database.BlockTx{
				sign(t, aliceKey, 1, 100),
				sign(t, aliceKey, 0, 50),
				sign(t, bobKey, 1, 75),
				sign(t, bobKey, 0, 200),
			}
			for _, tx := range txs {
				if _, err := mp.Upsert(tx); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to upsert a transaction: %v", failed, err)
				}
			}

			if mp.Count() != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould hold all transactions: got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould hold all transactions.", success)

			picked := mp.PickBest(-1)
			if len(picked) != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould drain the whole pool with -1: got %d.", failed, len(picked))
			}
			t.Logf("\t%s\tTest 0:\tShould drain the whole pool with -1.", success)

			// Per-account nonce order must survive any strategy.
			seen := make(map[id.AccountID]uint64)
			for _, tx := range picked {
				from, err := tx.FromAccount()
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould recover the sender: %v", failed, err)
				}
				if last, ok := seen[from]; ok && tx.Nonce <= last {
					t.Fatalf("\t%s\tTest 0:\tShould keep nonce order for %s: %d after %d.", failed, from, tx.Nonce, last)
				}
				seen[from] = tx.Nonce
			}
			t.Logf("\t%s\tTest 0:\tShould keep nonce order per account.", success)

			// Picking one forces a choice within the first-nonce row and
			// the better fee bid must win.
			picked = mp.PickBest(1)
			if len(picked) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould pick the requested amount: got %d.", failed, len(picked))
			}
			if picked[0].FeeBid != 200 {
				t.Fatalf("\t%s\tTest 0:\tShould prefer the better fee bid within a row: got %d.", failed, picked[0].FeeBid)
			}
			t.Logf("\t%s\tTest 0:\tShould prefer the better fee bid within a row.", success)

			// Replacing an account:nonce entry must not grow the pool.
			if _, err := mp.Upsert(sign(t, aliceKey, 0, 99)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to upsert a replacement: %v", failed, err)
			}
			if mp.Count() != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould replace on same account and nonce: got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould replace on same account and nonce.", success)

			if err := mp.Delete(txs[2]); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to delete a transaction: %v", failed, err)
			}
			if mp.Count() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould shrink on delete: got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould shrink on delete.", success)

			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould empty on truncate: got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould empty on truncate.", success)
		}
	}
}
