package message

import (
	"encoding/json"
	"fmt"

	"github.com/registrychain/registry/foundation/registry/id"
)

// EventName identifies one semantic event kind.
type EventName string

// The set of events the engine can emit. Every successful mutating
// message emits exactly one semantic event; every dispatched transaction
// closes its event list with the Applied or Failed outcome marker.
const (
	EventOrgRegistered      EventName = "org_registered"
	EventOrgUnregistered    EventName = "org_unregistered"
	EventUserRegistered     EventName = "user_registered"
	EventUserUnregistered   EventName = "user_unregistered"
	EventMemberRegistered   EventName = "member_registered"
	EventCheckpointCreated  EventName = "checkpoint_created"
	EventProjectRegistered  EventName = "project_registered"
	EventCheckpointSet      EventName = "checkpoint_set"
	EventTransferred        EventName = "transferred"
	EventApplied            EventName = "applied"
	EventFailed             EventName = "failed"
)

// Event is the sealed union of everything the engine can emit.
type Event interface {
	Name() EventName
}

// =============================================================================

// OrgRegistered reports a new org.
type OrgRegistered struct {
	OrgID id.ID `json:"org_id"`
}

// OrgUnregistered reports an org removal; the id is retired.
type OrgUnregistered struct {
	OrgID id.ID `json:"org_id"`
}

// UserRegistered reports a new user.
type UserRegistered struct {
	UserID id.ID `json:"user_id"`
}

// UserUnregistered reports a user removal; the id is retired.
type UserUnregistered struct {
	UserID id.ID `json:"user_id"`
}

// MemberRegistered reports a new org member.
type MemberRegistered struct {
	OrgID  id.ID `json:"org_id"`
	UserID id.ID `json:"user_id"`
}

// CheckpointCreated carries the content-derived id of a new checkpoint.
type CheckpointCreated struct {
	CheckpointID string `json:"checkpoint_id"`
}

// ProjectRegistered reports a new project under its domain.
type ProjectRegistered struct {
	ProjectName   id.ProjectName   `json:"project_name"`
	ProjectDomain id.ProjectDomain `json:"project_domain"`
}

// CheckpointSet reports a project moving to a new current checkpoint.
type CheckpointSet struct {
	ProjectName   id.ProjectName   `json:"project_name"`
	ProjectDomain id.ProjectDomain `json:"project_domain"`
	CheckpointID  string           `json:"checkpoint_id"`
}

// Transferred reports funds moving between two accounts.
type Transferred struct {
	From   id.AccountID `json:"from"`
	To     id.AccountID `json:"to"`
	Amount uint64       `json:"amount"`
}

// Applied is the dispatch outcome marker for a successful payload.
type Applied struct{}

// Failed is the dispatch outcome marker for a payload rejected with a
// registry error. The fee was still charged.
type Failed struct {
	Code RegistryError `json:"code"`
}

// Name implementations sealing the union.

func (OrgRegistered) Name() EventName     { return EventOrgRegistered }
func (OrgUnregistered) Name() EventName   { return EventOrgUnregistered }
func (UserRegistered) Name() EventName    { return EventUserRegistered }
func (UserUnregistered) Name() EventName  { return EventUserUnregistered }
func (MemberRegistered) Name() EventName  { return EventMemberRegistered }
func (CheckpointCreated) Name() EventName { return EventCheckpointCreated }
func (ProjectRegistered) Name() EventName { return EventProjectRegistered }
func (CheckpointSet) Name() EventName     { return EventCheckpointSet }
func (Transferred) Name() EventName       { return EventTransferred }
func (Applied) Name() EventName           { return EventApplied }
func (Failed) Name() EventName            { return EventFailed }

// =============================================================================

// EventEnvelopeVersion is the current wire version for encoded events.
// Bump only when the encoded shape of an event changes; decoding keeps an
// adapter per historical version so old chain history stays readable.
const EventEnvelopeVersion = 1

// EventEnvelope is the versioned wire form of an event as stored in
// receipts.
type EventEnvelope struct {
	Version int             `json:"version"`
	Event   EventName       `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeEvent wraps an event into its current wire envelope.
func EncodeEvent(ev Event) (EventEnvelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("encoding %s event: %w", ev.Name(), err)
	}

	return EventEnvelope{
		Version: EventEnvelopeVersion,
		Event:   ev.Name(),
		Payload: payload,
	}, nil
}

// Decode normalizes the envelope into the canonical in-memory event
// representation, applying the adapter for its recorded version.
func (e EventEnvelope) Decode() (Event, error) {
	switch e.Version {
	case 1:
		return decodeEventV1(e)
	}

	return nil, fmt.Errorf("unknown event envelope version %d", e.Version)
}

// decodeEventV1 decodes the version 1 wire format, which is identical to
// the canonical representation.
func decodeEventV1(e EventEnvelope) (Event, error) {
	decode := func(ev any) error {
		if err := json.Unmarshal(e.Payload, ev); err != nil {
			return fmt.Errorf("decoding %s event: %w", e.Event, err)
		}
		return nil
	}

	switch e.Event {
	case EventOrgRegistered:
		var ev OrgRegistered
		return ev, decode(&ev)
	case EventOrgUnregistered:
		var ev OrgUnregistered
		return ev, decode(&ev)
	case EventUserRegistered:
		var ev UserRegistered
		return ev, decode(&ev)
	case EventUserUnregistered:
		var ev UserUnregistered
		return ev, decode(&ev)
	case EventMemberRegistered:
		var ev MemberRegistered
		return ev, decode(&ev)
	case EventCheckpointCreated:
		var ev CheckpointCreated
		return ev, decode(&ev)
	case EventProjectRegistered:
		var ev ProjectRegistered
		return ev, decode(&ev)
	case EventCheckpointSet:
		var ev CheckpointSet
		return ev, decode(&ev)
	case EventTransferred:
		var ev Transferred
		return ev, decode(&ev)
	case EventApplied:
		var ev Applied
		return ev, decode(&ev)
	case EventFailed:
		var ev Failed
		if err := decode(&ev); err != nil {
			return nil, err
		}
		if !ev.Code.Valid() {
			return nil, fmt.Errorf("decoding failed event: unknown error code %d", uint8(ev.Code))
		}
		return ev, nil
	}

	return nil, fmt.Errorf("unknown event %q", e.Event)
}
