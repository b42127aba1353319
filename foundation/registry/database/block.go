package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/merkle"
	"github.com/registrychain/registry/foundation/registry/signature"
)

// ErrChainForked is returned from Validate if another node's chain is two
// or more blocks ahead of ours.
var ErrChainForked = errors.New("blockchain forked, start resync")

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	ParentHash    string       `json:"parent_hash"` // Hash of the previous block in the chain.
	Number        uint64       `json:"number"`      // Block number in the chain.
	TimeStamp     uint64       `json:"timestamp"`   // Time the block was mined, unix milliseconds.
	BeneficiaryID id.AccountID `json:"beneficiary"` // The account receiving fees and the mining reward.
	Difficulty    *uint256.Int `json:"difficulty"`  // Difficulty target the seal had to satisfy.
	Nonce         uint64       `json:"nonce"`       // The seal found by the proof of work search.
	TransRoot     string       `json:"trans_root"`  // Merkle tree root hash for this block's transactions.
}

// PreHash returns the hash of the header with the seal nonce zeroed. This
// is the value the proof of work seal commits to.
func (h BlockHeader) PreHash() string {
	h.Nonce = 0
	return signature.Hash(h)
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  *merkle.Tree[BlockTx]
}

// NewBlock constructs the next unsealed block in the chain from a batch of
// transactions. The seal nonce is found afterwards by the miner.
func NewBlock(beneficiaryID id.AccountID, difficulty *uint256.Int, prevBlock Block, trans []BlockTx) (Block, error) {

	// When building the first block, the previous block's hash is zero.
	parentHash := signature.ZeroHash
	if prevBlock.Header.Number > 0 {
		parentHash = prevBlock.Hash()
	}

	// Construct a merkle tree from the transactions for this block. The
	// root of this tree is committed into the header.
	tree, err := merkle.NewTree(trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: BlockHeader{
			ParentHash:    parentHash,
			Number:        prevBlock.Header.Number + 1,
			TimeStamp:     uint64(time.Now().UTC().UnixMilli()),
			BeneficiaryID: beneficiaryID,
			Difficulty:    difficulty,
			Nonce:         0,
			TransRoot:     tree.RootHex(),
		},
		Trans: tree,
	}

	return nb, nil
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	if b.Header.Number == 0 {
		return signature.ZeroHash
	}

	// Hashing only the block header keeps the chain verifiable from
	// headers alone, the transactions are committed via the merkle root.
	return signature.Hash(b.Header)
}

// Validate checks the structural chain rules for including this block
// after the specified previous block. The proof of work seal itself is
// checked separately by the consensus algorithm in use.
func (b Block) Validate(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: Validate: blk[%d]: check: chain is not forked", b.Header.Number)

	// The node who sent this block has a chain that is two or more blocks
	// ahead of ours. There has been a fork and we are on the wrong side.
	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number >= (nextNumber + 2) {
		return ErrChainForked
	}

	evHandler("database: Validate: blk[%d]: check: block number is the next number", b.Header.Number)

	if b.Header.Number != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Header.Number, nextNumber)
	}

	evHandler("database: Validate: blk[%d]: check: parent hash matches parent block", b.Header.Number)

	if b.Header.ParentHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.ParentHash, previousBlock.Hash())
	}

	if previousBlock.Header.TimeStamp > 0 {
		evHandler("database: Validate: blk[%d]: check: timestamp is greater than parent", b.Header.Number)

		parentTime := time.UnixMilli(int64(previousBlock.Header.TimeStamp))
		blockTime := time.UnixMilli(int64(b.Header.TimeStamp))
		if !blockTime.After(parentTime) {
			return fmt.Errorf("block timestamp is before parent block, parent %s, block %s", parentTime, blockTime)
		}
	}

	evHandler("database: Validate: blk[%d]: check: difficulty is present", b.Header.Number)

	if b.Header.Difficulty == nil || b.Header.Difficulty.IsZero() {
		return fmt.Errorf("block difficulty is missing")
	}

	evHandler("database: Validate: blk[%d]: check: merkle root matches transactions", b.Header.Number)

	if b.Header.TransRoot != b.Trans.RootHex() {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", b.Trans.RootHex(), b.Header.TransRoot)
	}

	return nil
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []BlockTx   `json:"trans"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	blockData := BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans.Values(),
	}

	return blockData
}

// ToBlock converts a storage block into a database block.
func ToBlock(blockData BlockData) (Block, error) {
	tree, err := merkle.NewTree(blockData.Trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: blockData.Header,
		Trans:  tree,
	}

	return nb, nil
}
