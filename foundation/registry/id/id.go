// Package id provides the validated identifier types used by the registry:
// org/user ids, project names, project domains and bounded metadata bytes.
// Construction is the only validation point; a value that exists is valid.
package id

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// maxIDLength bounds every identifier and project name.
const maxIDLength = 32

// ID represents an org or user identifier. Orgs and users share one
// namespace, so a taken org id can never be registered as a user id.
type ID struct {
	value string
}

// ParseID validates the input and constructs an ID from it.
func ParseID(input string) (ID, error) {
	if len(input) == 0 {
		return ID{}, errors.New("id must be at least 1 character")
	}
	if len(input) > maxIDLength {
		return ID{}, fmt.Errorf("id must not exceed %d characters", maxIDLength)
	}
	for i := 0; i < len(input); i++ {
		c := input[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return ID{}, errors.New("id must only include a-z, 0-9 and '-'")
		}
	}
	if input[0] == '-' {
		return ID{}, errors.New("id must not start with '-'")
	}
	if input[len(input)-1] == '-' {
		return ID{}, errors.New("id must not end with '-'")
	}
	if strings.Contains(input, "--") {
		return ID{}, errors.New("id must not have more than one consecutive '-'")
	}

	return ID{value: input}, nil
}

// MustParseID constructs an ID and panics on invalid input. For use with
// trusted literals only.
func MustParseID(input string) ID {
	id, err := ParseID(input)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the identifier exactly as it was parsed.
func (id ID) String() string {
	return id.value
}

// IsZero reports whether the id is the unusable zero value.
func (id ID) IsZero() bool {
	return id.value == ""
}

// MarshalText implements encoding.TextMarshaler so ids can key JSON maps.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText re-validates on decode so malformed persisted data fails
// instead of producing an invalid value.
func (id *ID) UnmarshalText(data []byte) error {
	parsed, err := ParseID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// =============================================================================

// ProjectName represents a project name, unique under its domain.
type ProjectName struct {
	value string
}

// ParseProjectName validates the input and constructs a ProjectName from it.
func ParseProjectName(input string) (ProjectName, error) {
	if len(input) == 0 {
		return ProjectName{}, errors.New("project name must be at least 1 character")
	}
	if len(input) > maxIDLength {
		return ProjectName{}, fmt.Errorf("project name must not exceed %d characters", maxIDLength)
	}
	if input == "." || input == ".." {
		return ProjectName{}, fmt.Errorf("project name must not be %q", input)
	}
	for i := 0; i < len(input); i++ {
		c := input[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' && c != '_' && c != '.' {
			return ProjectName{}, errors.New("project name must only include a-z, 0-9, '-', '_' and '.'")
		}
	}

	return ProjectName{value: input}, nil
}

// MustParseProjectName constructs a ProjectName and panics on invalid input.
func MustParseProjectName(input string) ProjectName {
	name, err := ParseProjectName(input)
	if err != nil {
		panic(err)
	}
	return name
}

// String returns the project name exactly as it was parsed.
func (pn ProjectName) String() string {
	return pn.value
}

// MarshalText implements encoding.TextMarshaler.
func (pn ProjectName) MarshalText() ([]byte, error) {
	return []byte(pn.value), nil
}

// UnmarshalText re-validates on decode.
func (pn *ProjectName) UnmarshalText(data []byte) error {
	parsed, err := ParseProjectName(string(data))
	if err != nil {
		return err
	}
	*pn = parsed
	return nil
}

// =============================================================================

// DomainKind tags a ProjectDomain as belonging to an org or a user.
type DomainKind string

// The set of entities that can own projects.
const (
	DomainOrg  DomainKind = "org"
	DomainUser DomainKind = "user"
)

// ProjectDomain identifies the entity a project is registered under.
// Project names are scoped per domain, so the same name may exist under
// different domains.
type ProjectDomain struct {
	Kind DomainKind `json:"kind"`
	ID   ID         `json:"id"`
}

// OrgDomain constructs the domain for a project owned by an org.
func OrgDomain(orgID ID) ProjectDomain {
	return ProjectDomain{Kind: DomainOrg, ID: orgID}
}

// UserDomain constructs the domain for a project owned by a user.
func UserDomain(userID ID) ProjectDomain {
	return ProjectDomain{Kind: DomainUser, ID: userID}
}

// Validate checks the domain holds a known kind and a usable id.
func (pd ProjectDomain) Validate() error {
	if pd.Kind != DomainOrg && pd.Kind != DomainUser {
		return fmt.Errorf("unknown project domain kind %q", pd.Kind)
	}
	if pd.ID.IsZero() {
		return errors.New("project domain id is missing")
	}
	return nil
}

// String implements fmt.Stringer for logging.
func (pd ProjectDomain) String() string {
	return fmt.Sprintf("%s:%s", pd.Kind, pd.ID)
}

// =============================================================================

// ProjectKey is the full identifier of a project: its name scoped by the
// owning domain.
type ProjectKey struct {
	Name   ProjectName   `json:"name"`
	Domain ProjectDomain `json:"domain"`
}

// NewProjectKey constructs the key for a project.
func NewProjectKey(name ProjectName, domain ProjectDomain) ProjectKey {
	return ProjectKey{Name: name, Domain: domain}
}

// String implements fmt.Stringer for logging.
func (pk ProjectKey) String() string {
	return fmt.Sprintf("%s/%s", pk.Domain, pk.Name)
}

// =============================================================================

// MaxMetadataLength bounds the opaque project metadata.
const MaxMetadataLength = 128

// Bytes128 holds opaque, immutable project metadata of at most 128 bytes.
type Bytes128 struct {
	value []byte
}

// ParseBytes128 validates the length and constructs a Bytes128, copying
// the input so later mutation of the slice can't reach the stored value.
func ParseBytes128(input []byte) (Bytes128, error) {
	if len(input) > MaxMetadataLength {
		return Bytes128{}, fmt.Errorf("metadata must not exceed %d bytes, got %d", MaxMetadataLength, len(input))
	}

	value := make([]byte, len(input))
	copy(value, input)

	return Bytes128{value: value}, nil
}

// Bytes returns a copy of the underlying bytes.
func (b Bytes128) Bytes() []byte {
	value := make([]byte, len(b.value))
	copy(value, b.value)
	return value
}

// MarshalJSON encodes the metadata as a base64 string via the stdlib
// []byte rules.
func (b Bytes128) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.value)
}

// UnmarshalJSON re-validates the length bound on decode.
func (b *Bytes128) UnmarshalJSON(data []byte) error {
	var value []byte
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	parsed, err := ParseBytes128(value)
	if err != nil {
		return err
	}
	*b = parsed

	return nil
}
