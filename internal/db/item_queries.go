package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Item is something an event needs brought. GuestID is nil until a guest takes it.
type Item struct {
	ItemID    string          `json:"item_id"`
	EventID   string          `json:"event_id"`
	GuestID   *string         `json:"guest_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Value     decimal.Decimal `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ItemWrite is the author-controlled content of an item.
type ItemWrite struct {
	Name     string
	Quantity int
	Value    decimal.Decimal
}

const itemColumns = `
	item_id::text,
	event_id::text,
	guest_id::text,
	name,
	quantity,
	value,
	created_at,
	updated_at`

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	if err := row.Scan(
		&item.ItemID,
		&item.EventID,
		&item.GuestID,
		&item.Name,
		&item.Quantity,
		&item.Value,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (p *Pool) CreateItem(ctx context.Context, itemID, eventID string, write ItemWrite, now time.Time) (*Item, error) {
	q := `
INSERT INTO party.items (
	item_id,
	event_id,
	name,
	quantity,
	value,
	created_at,
	updated_at
)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $6)
RETURNING` + itemColumns

	item, err := scanItem(p.QueryRow(ctx, q,
		strings.TrimSpace(itemID),
		strings.TrimSpace(eventID),
		write.Name,
		write.Quantity,
		write.Value,
		now.UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return item, nil
}

// UpdateItem rewrites name, quantity and value. The guest assignment is left alone.
func (p *Pool) UpdateItem(ctx context.Context, itemID string, write ItemWrite, now time.Time) (*Item, error) {
	q := `
UPDATE party.items
SET
	name = $2,
	quantity = $3,
	value = $4,
	updated_at = $5
WHERE item_id = $1::uuid
RETURNING` + itemColumns

	item, err := scanItem(p.QueryRow(ctx, q,
		strings.TrimSpace(itemID),
		write.Name,
		write.Quantity,
		write.Value,
		now.UTC(),
	))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

func (p *Pool) GetItem(ctx context.Context, itemID string) (*Item, error) {
	q := `SELECT` + itemColumns + `
FROM party.items
WHERE item_id = $1::uuid
`
	item, err := scanItem(p.QueryRow(ctx, q, strings.TrimSpace(itemID)))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (p *Pool) ListItemsByEvent(ctx context.Context, eventID string) ([]Item, error) {
	q := `SELECT` + itemColumns + `
FROM party.items
WHERE event_id = $1::uuid
ORDER BY created_at ASC, item_id ASC
`
	return p.listItems(ctx, q, eventID)
}

func (p *Pool) ListItemsByGuest(ctx context.Context, guestID string) ([]Item, error) {
	q := `SELECT` + itemColumns + `
FROM party.items
WHERE guest_id = $1::uuid
ORDER BY created_at ASC, item_id ASC
`
	return p.listItems(ctx, q, guestID)
}

func (p *Pool) listItems(ctx context.Context, q, id string) ([]Item, error) {
	rows, err := p.Query(ctx, q, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return out, nil
}

func (p *Pool) DeleteItem(ctx context.Context, itemID string) error {
	tag, err := p.Exec(ctx, `DELETE FROM party.items WHERE item_id = $1::uuid`, strings.TrimSpace(itemID))
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// AssignItemToGuest hands an item to a guest of the same event, replacing any earlier guest.
// It returns ErrNoRows when the item is unknown or the guest belongs to another event.
func (p *Pool) AssignItemToGuest(ctx context.Context, itemID, guestID string, now time.Time) (*Item, error) {
	q := `
UPDATE party.items AS i
SET
	guest_id = g.guest_id,
	updated_at = $3
FROM party.guests AS g
WHERE i.item_id = $1::uuid
  AND g.guest_id = $2::uuid
  AND g.event_id = i.event_id
RETURNING
	i.item_id::text,
	i.event_id::text,
	i.guest_id::text,
	i.name,
	i.quantity,
	i.value,
	i.created_at,
	i.updated_at`

	item, err := scanItem(p.QueryRow(ctx, q, strings.TrimSpace(itemID), strings.TrimSpace(guestID), now.UTC()))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("assign item: %w", err)
	}
	return item, nil
}

// UnassignItemFromGuest clears the assignment only while guestID still holds the item.
func (p *Pool) UnassignItemFromGuest(ctx context.Context, itemID, guestID string, now time.Time) (*Item, error) {
	q := `
UPDATE party.items
SET
	guest_id = NULL,
	updated_at = $3
WHERE item_id = $1::uuid
  AND guest_id = $2::uuid
RETURNING` + itemColumns

	item, err := scanItem(p.QueryRow(ctx, q, strings.TrimSpace(itemID), strings.TrimSpace(guestID), now.UTC()))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("unassign item: %w", err)
	}
	return item, nil
}
