package receipt_test

import (
	"errors"
	"testing"

	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/message"
	"github.com/registrychain/registry/foundation/registry/receipt"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func build(t *testing.T, events ...message.Event) database.Receipt {
	t.Helper()

	r := database.Receipt{TxHash: "0xabc"}
	for _, event := range events {
		envelope, err := message.EncodeEvent(event)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to encode event: %v", failed, err)
		}
		r.Events = append(r.Events, envelope)
	}
	return r
}

func Test_Result(t *testing.T) {
	t.Log("Given the need to resolve dispatch outcomes from receipts.")
	{
		t.Logf("\tTest 0:\tWhen the receipt carries an applied marker.")
		{
			r := build(t, message.CheckpointCreated{CheckpointID: "0x01"}, message.Applied{})
			if err := receipt.Result(r); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould resolve to success: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould resolve to success.", success)
		}

		t.Logf("\tTest 1:\tWhen the receipt carries a failed marker.")
		{
			r := build(t, message.Failed{Code: message.ErrInexistentOrg})
			err := receipt.Result(r)

			var regErr message.RegistryError
			if !errors.As(err, &regErr) || regErr != message.ErrInexistentOrg {
				t.Fatalf("\t%s\tTest 1:\tShould resolve to the recorded registry error: got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould resolve to the recorded registry error.", success)
		}

		t.Logf("\tTest 2:\tWhen the receipt has no outcome marker.")
		{
			r := build(t, message.CheckpointCreated{CheckpointID: "0x01"})
			if err := receipt.Result(r); !errors.Is(err, receipt.ErrStatusMissing) {
				t.Fatalf("\t%s\tTest 2:\tShould surface the missing outcome: got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould surface the missing outcome.", success)
		}
	}
}

func Test_Event(t *testing.T) {
	t.Log("Given the need to extract typed results from receipts.")
	{
		t.Logf("\tTest 0:\tWhen the expected event is present.")
		{
			r := build(t, message.CheckpointCreated{CheckpointID: "0x2a"}, message.Applied{})

			checkpointID, err := receipt.CheckpointID(r)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould extract the checkpoint id: %v.", failed, err)
			}
			if checkpointID != "0x2a" {
				t.Fatalf("\t%s\tTest 0:\tShould extract the checkpoint id: got %s.", failed, checkpointID)
			}
			t.Logf("\t%s\tTest 0:\tShould extract the checkpoint id.", success)
		}

		t.Logf("\tTest 1:\tWhen the expected event is missing from an applied receipt.")
		{
			r := build(t, message.Applied{})
			if _, err := receipt.CheckpointID(r); !errors.Is(err, receipt.ErrEventMissing) {
				t.Fatalf("\t%s\tTest 1:\tShould surface the missing event: got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould surface the missing event.", success)
		}

		t.Logf("\tTest 2:\tWhen the payload failed.")
		{
			r := build(t, message.Failed{Code: message.ErrInexistentCheckpointID})
			if _, err := receipt.CheckpointID(r); !errors.Is(err, message.ErrInexistentCheckpointID) {
				t.Fatalf("\t%s\tTest 2:\tShould resolve to the registry error: got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould resolve to the registry error.", success)
		}

		t.Logf("\tTest 3:\tWhen extracting a transfer event.")
		{
			r := build(t, message.Transferred{From: "0xaa", To: "0xbb", Amount: 5}, message.Applied{})

			event, err := receipt.Event[message.Transferred](r)
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould extract the transfer event: %v.", failed, err)
			}
			if event.Amount != 5 {
				t.Fatalf("\t%s\tTest 3:\tShould carry the transfer amount: got %d.", failed, event.Amount)
			}
			t.Logf("\t%s\tTest 3:\tShould extract the transfer event.", success)
		}
	}
}
