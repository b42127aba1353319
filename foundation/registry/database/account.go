package database

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/registrychain/registry/foundation/registry/id"
)

// Account represents information stored in the database for an individual
// account. Accounts are created lazily on first credit.
type Account struct {
	AccountID id.AccountID `json:"account_id"`
	Nonce     uint64       `json:"nonce"`
	Balance   uint64       `json:"balance"`
}

// newAccount constructs a new account value for use.
func newAccount(accountID id.AccountID, balance uint64) Account {
	return Account{
		AccountID: accountID,
		Balance:   balance,
	}
}

// =============================================================================

// OrgAccountID derives the keyless account that pools an org's funds. The
// derivation is deterministic so every node computes the same account, and
// no private key for it can exist.
func OrgAccountID(orgID id.ID) id.AccountID {
	hash := crypto.Keccak256([]byte(fmt.Sprintf("org-account:%s", orgID)))
	return id.AccountID(common.BytesToAddress(hash[12:]).String())
}

// =============================================================================

// byAccount provides sorting support by the account id value.
type byAccount []Account

// Len returns the number of accounts in the list.
func (ba byAccount) Len() int {
	return len(ba)
}

// Less helps to sort the list by account id in ascending order to keep the
// accounts in a deterministic order of processing.
func (ba byAccount) Less(i, j int) bool {
	return ba[i].AccountID < ba[j].AccountID
}

// Swap moves accounts in the order of the account id value.
func (ba byAccount) Swap(i, j int) {
	ba[i], ba[j] = ba[j], ba[i]
}
