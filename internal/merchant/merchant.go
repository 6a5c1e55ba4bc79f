// Package merchant exposes the external merchant record store the guard
// layer hydrates from. Guards only hold a read-only, request-scoped copy
// of a binding; the store owns the data.
package merchant

import (
	"context"
	"errors"
)

// ErrNotFound indicates no merchant record exists for the subject. A user
// can hold the merchant role without having a record yet.
var ErrNotFound = errors.New("merchant: not found")

// Binding is the business record associated with a merchant-role
// principal.
type Binding struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ContactName    string `json:"contact_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address,omitempty"`
	Active         *bool  `json:"active,omitempty"`
	Archived       *bool  `json:"archived,omitempty"`
	OwnerSubjectID int64  `json:"owner_subject_id"`
}

// Store looks up merchant records keyed by the owning subject id.
// Implementations must honor the request context deadline.
type Store interface {
	FindByOwner(ctx context.Context, subjectID int64) (*Binding, error)
}
