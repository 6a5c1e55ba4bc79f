package merchant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PG implements Store over database/sql (pgx stdlib driver).
type PG struct {
	db *sql.DB
}

// NewPG wraps an open database handle.
func NewPG(db *sql.DB) (*PG, error) {
	if db == nil {
		return nil, errors.New("merchant: db is required")
	}
	return &PG{db: db}, nil
}

const findByOwnerQuery = `
select id, name, contact_name, email, phone, address, active, archived, owner_subject_id
from merchants
where owner_subject_id = $1`

// FindByOwner loads the merchant record owned by the subject, or
// ErrNotFound when none exists.
func (s *PG) FindByOwner(ctx context.Context, subjectID int64) (*Binding, error) {
	var (
		b        Binding
		address  sql.NullString
		active   sql.NullBool
		archived sql.NullBool
	)
	err := s.db.QueryRowContext(ctx, findByOwnerQuery, subjectID).Scan(
		&b.ID, &b.Name, &b.ContactName, &b.Email, &b.Phone,
		&address, &active, &archived, &b.OwnerSubjectID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("merchant: find by owner %d: %w", subjectID, err)
	}
	if address.Valid {
		b.Address = address.String
	}
	if active.Valid {
		b.Active = &active.Bool
	}
	if archived.Valid {
		b.Archived = &archived.Bool
	}
	return &b, nil
}
