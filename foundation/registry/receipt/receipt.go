// Package receipt resolves the outcome of a dispatched transaction from
// its recorded events: did the payload apply, which registry error failed
// it, and the typed result carried by its semantic event.
package receipt

import (
	"errors"

	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/message"
)

// ErrStatusMissing reports a receipt whose event list has no Applied or
// Failed marker. Every dispatched transaction records exactly one, so
// this means the receipt is corrupt or from an incompatible node.
var ErrStatusMissing = errors.New("receipt carries no dispatch outcome")

// ErrEventMissing reports a receipt that applied but lacks the semantic
// event its message kind must emit.
var ErrEventMissing = errors.New("receipt is missing the expected event")

// Result resolves the dispatch outcome of the receipt. It returns nil for
// an applied payload and the recorded registry error for a failed one.
func Result(r database.Receipt) error {
	for _, envelope := range r.Events {
		event, err := envelope.Decode()
		if err != nil {
			return err
		}

		switch event := event.(type) {
		case message.Applied:
			return nil
		case message.Failed:
			return event.Code
		}
	}

	return ErrStatusMissing
}

// Event finds the event of type T in an applied receipt. A failed receipt
// resolves to its registry error instead.
func Event[T message.Event](r database.Receipt) (T, error) {
	var zero T

	if err := Result(r); err != nil {
		return zero, err
	}

	for _, envelope := range r.Events {
		event, err := envelope.Decode()
		if err != nil {
			return zero, err
		}

		if event, ok := event.(T); ok {
			return event, nil
		}
	}

	return zero, ErrEventMissing
}

// CheckpointID extracts the id of the checkpoint a create_checkpoint
// transaction produced.
func CheckpointID(r database.Receipt) (string, error) {
	event, err := Event[message.CheckpointCreated](r)
	if err != nil {
		return "", err
	}

	return event.CheckpointID, nil
}
