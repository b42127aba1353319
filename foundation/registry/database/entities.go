package database

import (
	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/signature"
)

// IDStatus is the derived lifecycle view over an org/user identifier.
// The progression Available -> Taken -> Retired is one way; a retired id
// can never be registered again.
type IDStatus string

// The id lifecycle states.
const (
	StatusAvailable IDStatus = "available"
	StatusTaken     IDStatus = "taken"
	StatusRetired   IDStatus = "retired"
)

// =============================================================================

// Org represents an organization registered on the ledger. Orgs pool funds
// in a keyless account and own projects scoped under their id.
type Org struct {
	ID        id.ID            `json:"id"`
	AccountID id.AccountID     `json:"account_id"`
	Members   []id.AccountID   `json:"members"`
	Projects  []id.ProjectName `json:"projects"`
}

// HasMember reports whether the account belongs to the org's member set.
func (org Org) HasMember(accountID id.AccountID) bool {
	for _, member := range org.Members {
		if member == accountID {
			return true
		}
	}
	return false
}

// AddMember returns the org with the account included in the member set.
// Adding an existing member returns the org unchanged.
func (org Org) AddMember(accountID id.AccountID) Org {
	if !org.HasMember(accountID) {
		org.Members = append(append([]id.AccountID(nil), org.Members...), accountID)
	}
	return org
}

// AddProject returns the org with the project name included in its set.
func (org Org) AddProject(name id.ProjectName) Org {
	for _, existing := range org.Projects {
		if existing == name {
			return org
		}
	}
	org.Projects = append(append([]id.ProjectName(nil), org.Projects...), name)
	return org
}

// RemoveProject returns the org with the project name removed.
func (org Org) RemoveProject(name id.ProjectName) Org {
	projects := make([]id.ProjectName, 0, len(org.Projects))
	for _, existing := range org.Projects {
		if existing != name {
			projects = append(projects, existing)
		}
	}
	org.Projects = projects
	return org
}

// =============================================================================

// User represents a user registered on the ledger. One user maps to
// exactly one account and one account to at most one user.
type User struct {
	ID        id.ID            `json:"id"`
	AccountID id.AccountID     `json:"account_id"`
	Projects  []id.ProjectName `json:"projects"`
}

// AddProject returns the user with the project name included in its set.
func (usr User) AddProject(name id.ProjectName) User {
	for _, existing := range usr.Projects {
		if existing == name {
			return usr
		}
	}
	usr.Projects = append(append([]id.ProjectName(nil), usr.Projects...), name)
	return usr
}

// RemoveProject returns the user with the project name removed.
func (usr User) RemoveProject(name id.ProjectName) User {
	projects := make([]id.ProjectName, 0, len(usr.Projects))
	for _, existing := range usr.Projects {
		if existing != name {
			projects = append(projects, existing)
		}
	}
	usr.Projects = projects
	return usr
}

// =============================================================================

// Checkpoint asserts an off-chain content hash at a point in a project's
// history. Checkpoints are content addressed, append only and never
// mutated, which makes cycles in the parent chain structurally impossible.
type Checkpoint struct {
	Parent *string `json:"parent"`
	Hash   string  `json:"hash"`
}

// ID derives the checkpoint's identifier from its own content.
func (cp Checkpoint) ID() string {
	return signature.Hash(cp)
}

// =============================================================================

// Project represents a project registered under an org or user domain.
// Only CurrentCheckpoint is ever mutated, exclusively via SetCheckpoint.
type Project struct {
	Name              id.ProjectName   `json:"name"`
	Domain            id.ProjectDomain `json:"domain"`
	CurrentCheckpoint string           `json:"current_checkpoint"`
	Metadata          id.Bytes128      `json:"metadata"`
}

// Key returns the project's full identifier.
func (prj Project) Key() id.ProjectKey {
	return id.NewProjectKey(prj.Name, prj.Domain)
}
