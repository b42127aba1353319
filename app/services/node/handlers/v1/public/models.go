package public

import (
	"github.com/holiman/uint256"
	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/message"
)

type info struct {
	Account id.AccountID `json:"account"`
	Name    string       `json:"name"`
	Balance uint64       `json:"balance"`
	Nonce   uint64       `json:"nonce"`
}

type actInfo struct {
	LatestBlock string `json:"latest_block"`
	Uncommitted int    `json:"uncommitted"`
	Accounts    []info `json:"accounts"`
}

type tx struct {
	FromAccount id.AccountID `json:"from"`
	FromName    string       `json:"from_name"`
	Nonce       uint64       `json:"nonce"`
	FeeBid      uint64       `json:"fee_bid"`
	Kind        message.Kind `json:"kind"`
	TimeStamp   uint64       `json:"timestamp"`
	Sig         string       `json:"sig"`
}

type block struct {
	ParentHash    string       `json:"parent_hash"`
	Beneficiary   id.AccountID `json:"beneficiary"`
	BeneficiaryNm string       `json:"beneficiary_name"`
	Difficulty    *uint256.Int `json:"difficulty"`
	Number        uint64       `json:"number"`
	TimeStamp     uint64       `json:"timestamp"`
	Nonce         uint64       `json:"nonce"`
	TransRoot     string       `json:"trans_root"`
	Transactions  []tx         `json:"txs"`
}

type idStatus struct {
	ID     id.ID  `json:"id"`
	Status string `json:"status"`
}
