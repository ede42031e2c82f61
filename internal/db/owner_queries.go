package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicateEmail is returned when an owner email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

type Owner struct {
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateOwnerParams struct {
	OwnerID      string
	Name         string
	Email        string
	PasswordHash string
	Now          time.Time
}

func (p *Pool) CreateOwner(ctx context.Context, params CreateOwnerParams) (*Owner, error) {
	const q = `
INSERT INTO party.owners (
	owner_id,
	name,
	email,
	password_hash,
	created_at,
	updated_at
)
VALUES ($1::uuid, $2, $3, $4, $5, $5)
RETURNING
	owner_id::text,
	name,
	email,
	password_hash,
	created_at,
	updated_at
`

	var row Owner
	if err := p.QueryRow(ctx, q,
		strings.TrimSpace(params.OwnerID),
		strings.TrimSpace(params.Name),
		strings.ToLower(strings.TrimSpace(params.Email)),
		params.PasswordHash,
		params.Now.UTC(),
	).Scan(
		&row.OwnerID,
		&row.Name,
		&row.Email,
		&row.PasswordHash,
		&row.CreatedAt,
		&row.UpdatedAt,
	); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert owner: %w", err)
	}
	return &row, nil
}

func (p *Pool) GetOwner(ctx context.Context, ownerID string) (*Owner, error) {
	const q = `
SELECT
	owner_id::text,
	name,
	email,
	password_hash,
	created_at,
	updated_at
FROM party.owners
WHERE owner_id = $1::uuid
LIMIT 1
`

	var row Owner
	if err := p.QueryRow(ctx, q, strings.TrimSpace(ownerID)).Scan(
		&row.OwnerID,
		&row.Name,
		&row.Email,
		&row.PasswordHash,
		&row.CreatedAt,
		&row.UpdatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query owner: %w", err)
	}
	return &row, nil
}
