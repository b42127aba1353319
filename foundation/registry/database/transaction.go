package database

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/message"
	"github.com/registrychain/registry/foundation/registry/signature"
)

// Tx is the transactional information submitted by a client: the message
// payload together with the replay-protection nonce and the fee bid.
type Tx struct {
	ChainID uint16           `json:"chain_id"` // Guards against replays across chains.
	Nonce   uint64           `json:"nonce"`    // Must equal the sender account's nonce exactly.
	FeeBid  uint64           `json:"fee_bid"`  // Offered fee, must cover the base fee.
	Msg     message.Envelope `json:"msg"`      // The state-transition request.
}

// NewTx constructs a new transaction around a registry message.
func NewTx(chainID uint16, nonce uint64, feeBid uint64, msg message.Message) (Tx, error) {
	envelope, err := message.Encode(msg)
	if err != nil {
		return Tx{}, err
	}

	tx := Tx{
		ChainID: chainID,
		Nonce:   nonce,
		FeeBid:  feeBid,
		Msg:     envelope,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {

	// Sign the transaction with the private key to produce a signature.
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	// Construct the signed transaction by adding the signature
	// in the [R|S|V] format.
	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients
// provide transactions for inclusion into the ledger.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"` // Recovery identifier, either 37 or 38 with the registry id.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// Validate verifies the transaction has a proper signature that conforms
// to our standards, was bound to this chain, and carries a decodable
// message.
func (tx SignedTx) Validate(chainID uint16) error {
	if tx.ChainID != chainID {
		return fmt.Errorf("invalid chain id, got %d, exp %d", tx.ChainID, chainID)
	}

	if err := signature.VerifySignature(tx.V, tx.R, tx.S); err != nil {
		return err
	}

	if _, err := tx.Msg.Decode(); err != nil {
		return err
	}

	return nil
}

// FromAccount extracts the account id that signed the transaction.
func (tx SignedTx) FromAccount() (id.AccountID, error) {
	address, err := signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	return id.AccountID(address), err
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	from, err := tx.FromAccount()
	if err != nil {
		from = "unknown"
	}

	return fmt.Sprintf("%s:%d:%s", from, tx.Nonce, tx.Msg.MsgKind)
}

// =============================================================================

// BlockTx represents the transaction as it's recorded inside a block.
type BlockTx struct {
	SignedTx
	TimeStamp uint64 `json:"timestamp"` // The time the transaction was received.
}

// NewBlockTx constructs a new block transaction.
func NewBlockTx(signedTx SignedTx) BlockTx {
	return BlockTx{
		SignedTx:  signedTx,
		TimeStamp: uint64(time.Now().UTC().UnixMilli()),
	}
}

// Hash implements the merkle Hashable interface for providing a hash
// of a block transaction.
func (tx BlockTx) Hash() ([]byte, error) {
	str := signature.Hash(tx)
	return hex.DecodeString(str[2:])
}

// HashString returns the transaction hash in its hex string form, used to
// key receipts.
func (tx BlockTx) HashString() string {
	return signature.Hash(tx)
}

// =============================================================================

// ErrInvalidSignature is returned when a transaction's sender cannot be
// recovered from its signature.
var ErrInvalidSignature = errors.New("invalid signature")
