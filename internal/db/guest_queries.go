package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicateGuest is returned when an email is already on an event's guest list.
var ErrDuplicateGuest = errors.New("guest already invited")

type Guest struct {
	GuestID     string     `json:"guest_id"`
	EventID     string     `json:"event_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Confirmed   bool       `json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const guestColumns = `
	guest_id::text,
	event_id::text,
	name,
	email,
	confirmed,
	confirmed_at,
	created_at,
	updated_at`

func scanGuest(row rowScanner) (*Guest, error) {
	var guest Guest
	if err := row.Scan(
		&guest.GuestID,
		&guest.EventID,
		&guest.Name,
		&guest.Email,
		&guest.Confirmed,
		&guest.ConfirmedAt,
		&guest.CreatedAt,
		&guest.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &guest, nil
}

func (p *Pool) AddGuest(ctx context.Context, guestID, eventID, name, email string, now time.Time) (*Guest, error) {
	q := `
INSERT INTO party.guests (
	guest_id,
	event_id,
	name,
	email,
	confirmed,
	created_at,
	updated_at
)
VALUES ($1::uuid, $2::uuid, $3, $4, false, $5, $5)
RETURNING` + guestColumns

	guest, err := scanGuest(p.QueryRow(ctx, q,
		strings.TrimSpace(guestID),
		strings.TrimSpace(eventID),
		strings.TrimSpace(name),
		strings.ToLower(strings.TrimSpace(email)),
		now.UTC(),
	))
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateGuest
		}
		return nil, fmt.Errorf("insert guest: %w", err)
	}
	return guest, nil
}

func (p *Pool) ListGuests(ctx context.Context, eventID string) ([]Guest, error) {
	q := `SELECT` + guestColumns + `
FROM party.guests
WHERE event_id = $1::uuid
ORDER BY created_at ASC, guest_id ASC
`
	rows, err := p.Query(ctx, q, strings.TrimSpace(eventID))
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	out := make([]Guest, 0)
	for rows.Next() {
		guest, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guest row: %w", err)
		}
		out = append(out, *guest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guests: %w", err)
	}
	return out, nil
}

// ConfirmGuest marks a guest as attending. Confirming twice keeps the first confirmation time.
func (p *Pool) ConfirmGuest(ctx context.Context, guestID string, now time.Time) (*Guest, error) {
	q := `
UPDATE party.guests
SET
	confirmed = true,
	confirmed_at = COALESCE(confirmed_at, $2),
	updated_at = $2
WHERE guest_id = $1::uuid
RETURNING` + guestColumns

	guest, err := scanGuest(p.QueryRow(ctx, q, strings.TrimSpace(guestID), now.UTC()))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("confirm guest: %w", err)
	}
	return guest, nil
}

func (p *Pool) GetGuest(ctx context.Context, guestID string) (*Guest, error) {
	q := `SELECT` + guestColumns + `
FROM party.guests
WHERE guest_id = $1::uuid
`
	guest, err := scanGuest(p.QueryRow(ctx, q, strings.TrimSpace(guestID)))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	return guest, nil
}
