package auth

import "time"

// Principal is the normalized, verified identity a credential resolves to
// for the duration of one request. Only the token service constructs it;
// it is never mutated afterwards.
type Principal struct {
	// SubjectID is the canonical user identifier.
	SubjectID int64
	// LegacySubjectID mirrors SubjectID for consumers that still read the
	// historical claim name. The two are always equal after verification.
	LegacySubjectID int64
	// Email is denormalized for convenience and logging only, never
	// authoritative. Defaults to "".
	Email string
	// Role is the normalized access-control attribute.
	Role Role
	// IssuedAt and ExpiresAt bound the credential validity window.
	IssuedAt  time.Time
	ExpiresAt time.Time
	// TokenID uniquely identifies the issuance; reserved for revocation.
	TokenID string
}

// HasRole reports whether the principal carries exactly the given role.
func (p Principal) HasRole(role Role) bool {
	return p.Role == role
}
