package auth

import "strings"

// Role is the authoritative access-control attribute carried by a
// credential. After verification it is always lower-cased and trimmed.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMerchant Role = "merchant"
	RoleCustomer Role = "customer"
	RoleInvestor Role = "investor"
	RoleSalesRep Role = "sales_rep"

	// RolePendingVerification is assigned when a verified credential
	// carries a subject but no role claim at all: authenticated identity,
	// unresolved authorization.
	RolePendingVerification Role = "pending_verification"

	// RoleUnspecified is stamped at issuance when the caller asserts no
	// explicit role. It is deliberately not a recognized access-control
	// role, so every guard rejects it.
	RoleUnspecified Role = "user"
)

var recognizedRoles = map[Role]struct{}{
	RoleAdmin:    {},
	RoleMerchant: {},
	RoleCustomer: {},
	RoleInvestor: {},
	RoleSalesRep: {},
}

// NormalizeRole lower-cases and trims a raw role claim. Recognized values
// canonicalize to themselves; anything else passes through normalized and
// is treated as non-matching by every guard.
func NormalizeRole(raw string) Role {
	return Role(strings.TrimSpace(strings.ToLower(raw)))
}

// Recognized reports whether the role is one of the five access-control
// roles guards can require.
func (r Role) Recognized() bool {
	_, ok := recognizedRoles[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}
