package database

import (
	"github.com/registrychain/registry/foundation/registry/message"
)

// Receipt records the outcome of one dispatched transaction: the semantic
// events it emitted followed by the Applied or Failed outcome marker.
// Receipts are how clients learn whether an included transaction's payload
// actually took effect.
type Receipt struct {
	TxHash string                  `json:"tx_hash"`
	Events []message.EventEnvelope `json:"events"`
}
