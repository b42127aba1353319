package message

import "fmt"

// RegistryError is a typed business-rule violation raised by the
// state-transition engine. A transaction failing with a RegistryError is
// still included in a block and still pays its fee; only the payload
// effect is rolled back.
type RegistryError uint8

// The complete set of dispatch error codes. Codes are part of the wire
// format of receipts, so values must never be reordered.
const (
	ErrInexistentCheckpointID RegistryError = iota
	ErrInexistentOrg
	ErrDuplicateOrgID
	ErrUnregisterableOrg
	ErrInexistentUser
	ErrDuplicateUserID
	ErrUserAccountAssociated
	ErrUnregisterableUser
	ErrAlreadyAMember
	ErrDuplicateProjectID
	ErrInexistentProjectID
	ErrInexistentInitialProjectCheckpoint
	ErrInvalidCheckpointAncestry
	ErrInsufficientSenderPermissions
	ErrInsufficientBalance
	ErrIDRetired
)

// registryErrorText maps each code to its message.
var registryErrorText = map[RegistryError]string{
	ErrInexistentCheckpointID:             "the provided checkpoint does not exist",
	ErrInexistentOrg:                      "the provided org does not exist",
	ErrDuplicateOrgID:                     "an org or user with the given id already exists",
	ErrUnregisterableOrg:                  "the provided org is not eligible for unregistration",
	ErrInexistentUser:                     "the provided user does not exist",
	ErrDuplicateUserID:                    "an org or user with the given id already exists",
	ErrUserAccountAssociated:              "the sender account is already associated with a user",
	ErrUnregisterableUser:                 "the provided user is not eligible for unregistration",
	ErrAlreadyAMember:                     "the user is already a member of the org",
	ErrDuplicateProjectID:                 "a project with the given name already exists in the domain",
	ErrInexistentProjectID:                "the provided project does not exist",
	ErrInexistentInitialProjectCheckpoint: "a registered project must have a root initial checkpoint",
	ErrInvalidCheckpointAncestry:          "the provided checkpoint is not a descendant of the project's initial checkpoint",
	ErrInsufficientSenderPermissions:      "the sender does not have permission over the domain",
	ErrInsufficientBalance:                "the paying account does not hold enough funds",
	ErrIDRetired:                          "the given id has been retired and can never be registered again",
}

// Error implements the error interface.
func (e RegistryError) Error() string {
	if text, exists := registryErrorText[e]; exists {
		return text
	}
	return fmt.Sprintf("unknown registry error code %d", uint8(e))
}

// Valid reports whether the code is a known registry error.
func (e RegistryError) Valid() bool {
	_, exists := registryErrorText[e]
	return exists
}
