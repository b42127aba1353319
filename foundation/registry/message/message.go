// Package message defines the closed set of state-transition requests the
// registry ledger accepts, together with their typed errors and events.
// Adding a new message kind means adding a variant here and a case to the
// engine's exhaustive dispatch switch.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/registrychain/registry/foundation/registry/id"
)

// Kind identifies one transaction kind on the wire.
type Kind string

// The closed set of transaction kinds.
const (
	KindRegisterOrg      Kind = "register_org"
	KindUnregisterOrg    Kind = "unregister_org"
	KindRegisterUser     Kind = "register_user"
	KindUnregisterUser   Kind = "unregister_user"
	KindRegisterMember   Kind = "register_member"
	KindCreateCheckpoint Kind = "create_checkpoint"
	KindRegisterProject  Kind = "register_project"
	KindSetCheckpoint    Kind = "set_checkpoint"
	KindTransfer         Kind = "transfer"
	KindTransferFromOrg  Kind = "transfer_from_org"
)

// Message is the sealed union of all transaction payloads.
type Message interface {
	Kind() Kind
}

// =============================================================================

// RegisterOrg creates a new org with the sender as its founding member.
type RegisterOrg struct {
	OrgID id.ID `json:"org_id"`
}

// UnregisterOrg removes an org and permanently retires its id. Only an org
// with no projects and a single remaining member can be unregistered, and
// only by that member.
type UnregisterOrg struct {
	OrgID id.ID `json:"org_id"`
}

// RegisterUser creates a new user associated with the sender account.
type RegisterUser struct {
	UserID id.ID `json:"user_id"`
}

// UnregisterUser removes a user and permanently retires its id. Only the
// associated account can unregister a user with no projects.
type UnregisterUser struct {
	UserID id.ID `json:"user_id"`
}

// RegisterMember adds an existing user's account to an org's member set.
type RegisterMember struct {
	OrgID  id.ID `json:"org_id"`
	UserID id.ID `json:"user_id"`
}

// CreateCheckpoint appends a new content-addressed checkpoint, optionally
// linked to an existing parent checkpoint.
type CreateCheckpoint struct {
	ProjectHash          string  `json:"project_hash"`
	PreviousCheckpointID *string `json:"previous_checkpoint_id"`
}

// RegisterProject creates a project under an org or user domain, anchored
// at an existing root checkpoint.
type RegisterProject struct {
	ProjectName   id.ProjectName   `json:"project_name"`
	ProjectDomain id.ProjectDomain `json:"project_domain"`
	CheckpointID  string           `json:"checkpoint_id"`
	Metadata      id.Bytes128      `json:"metadata"`
}

// SetCheckpoint moves a project's current checkpoint to a descendant of
// the project's initial checkpoint.
type SetCheckpoint struct {
	ProjectName     id.ProjectName   `json:"project_name"`
	ProjectDomain   id.ProjectDomain `json:"project_domain"`
	NewCheckpointID string           `json:"new_checkpoint_id"`
}

// Transfer moves funds from the sender account to the recipient.
type Transfer struct {
	Recipient id.AccountID `json:"recipient"`
	Amount    uint64       `json:"amount"`
}

// TransferFromOrg moves funds from an org's pooled account to the
// recipient. The sender must be a member of the org.
type TransferFromOrg struct {
	OrgID     id.ID        `json:"org_id"`
	Recipient id.AccountID `json:"recipient"`
	Amount    uint64       `json:"amount"`
}

// Validate checks the structured fields a JSON decode cannot.
func (msg RegisterProject) Validate() error {
	return msg.ProjectDomain.Validate()
}

// Validate checks the structured fields a JSON decode cannot.
func (msg SetCheckpoint) Validate() error {
	return msg.ProjectDomain.Validate()
}

// Kind implementations sealing the union.

func (RegisterOrg) Kind() Kind      { return KindRegisterOrg }
func (UnregisterOrg) Kind() Kind    { return KindUnregisterOrg }
func (RegisterUser) Kind() Kind     { return KindRegisterUser }
func (UnregisterUser) Kind() Kind   { return KindUnregisterUser }
func (RegisterMember) Kind() Kind   { return KindRegisterMember }
func (CreateCheckpoint) Kind() Kind { return KindCreateCheckpoint }
func (RegisterProject) Kind() Kind  { return KindRegisterProject }
func (SetCheckpoint) Kind() Kind    { return KindSetCheckpoint }
func (Transfer) Kind() Kind         { return KindTransfer }
func (TransferFromOrg) Kind() Kind  { return KindTransferFromOrg }

// =============================================================================

// Envelope is the wire form of a message: the kind tag plus the encoded
// payload. It is what gets signed and stored inside a transaction.
type Envelope struct {
	MsgKind Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps a message into its wire envelope.
func Encode(msg Message) (Envelope, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s message: %w", msg.Kind(), err)
	}

	return Envelope{MsgKind: msg.Kind(), Payload: payload}, nil
}

// Decode unwraps the envelope back into a typed message, validating the
// payload in the process.
func (e Envelope) Decode() (Message, error) {
	decode := func(msg Message) (Message, error) {
		if err := json.Unmarshal(e.Payload, msg); err != nil {
			return nil, fmt.Errorf("decoding %s message: %w", e.MsgKind, err)
		}
		return msg, nil
	}

	switch e.MsgKind {
	case KindRegisterOrg:
		msg, err := decode(&RegisterOrg{})
		return deref(msg), err
	case KindUnregisterOrg:
		msg, err := decode(&UnregisterOrg{})
		return deref(msg), err
	case KindRegisterUser:
		msg, err := decode(&RegisterUser{})
		return deref(msg), err
	case KindUnregisterUser:
		msg, err := decode(&UnregisterUser{})
		return deref(msg), err
	case KindRegisterMember:
		msg, err := decode(&RegisterMember{})
		return deref(msg), err
	case KindCreateCheckpoint:
		msg, err := decode(&CreateCheckpoint{})
		return deref(msg), err
	case KindRegisterProject:
		msg, err := decode(&RegisterProject{})
		return deref(msg), err
	case KindSetCheckpoint:
		msg, err := decode(&SetCheckpoint{})
		return deref(msg), err
	case KindTransfer:
		msg, err := decode(&Transfer{})
		return deref(msg), err
	case KindTransferFromOrg:
		msg, err := decode(&TransferFromOrg{})
		return deref(msg), err
	}

	return nil, fmt.Errorf("unknown message kind %q", e.MsgKind)
}

// deref unwraps the pointer the decode helper needed into the value form
// the rest of the system works with.
func deref(msg Message) Message {
	if msg == nil {
		return nil
	}

	switch m := msg.(type) {
	case *RegisterOrg:
		return *m
	case *UnregisterOrg:
		return *m
	case *RegisterUser:
		return *m
	case *UnregisterUser:
		return *m
	case *RegisterMember:
		return *m
	case *CreateCheckpoint:
		return *m
	case *RegisterProject:
		return *m
	case *SetCheckpoint:
		return *m
	case *Transfer:
		return *m
	case *TransferFromOrg:
		return *m
	}

	return msg
}
