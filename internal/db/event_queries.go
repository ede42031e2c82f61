package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Translation states of an event description.
const (
	TranslationDisabled = "disabled"
	TranslationPending  = "pending"
	TranslationApplied  = "applied"
	TranslationFallback = "fallback"
)

// ErrConfirmedGuests is returned by DeleteEvent when a guest has already confirmed.
var ErrConfirmedGuests = errors.New("event has confirmed guests")

type Event struct {
	EventID               string     `json:"event_id"`
	OwnerID               string     `json:"owner_id"`
	Theme                 string     `json:"theme"`
	Title                 string     `json:"title"`
	StartsAt              time.Time  `json:"starts_at"`
	Place                 string     `json:"place"`
	Description           *string    `json:"description"`
	DescriptionLang       *string    `json:"description_lang,omitempty"`
	FunActive             bool       `json:"fun_active"`
	FunCategory           *string    `json:"fun_category,omitempty"`
	TranslatedDescription *string    `json:"translated_description"`
	TranslationStatus     string     `json:"translation_status"`
	TranslatedAt          *time.Time `json:"translated_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// EventWrite is the author-controlled part of an event row.
type EventWrite struct {
	Theme             string
	Title             string
	StartsAt          time.Time
	Place             string
	Description       *string
	DescriptionLang   *string
	FunActive         bool
	FunCategory       *string
	TranslationStatus string
}

// EventTranslationUpdate carries a finished translation job back to its row.
// SourceText, Category and SourceLang identify the revision the job was computed from.
// An empty SourceLang matches a row without a description language.
type EventTranslationUpdate struct {
	EventID        string
	SourceText     string
	Category       string
	SourceLang     string
	TranslatedText string
	Status         string
	TranslatedAt   time.Time
}

const eventColumns = `
	event_id::text,
	owner_id::text,
	theme,
	title,
	starts_at,
	place,
	description,
	description_lang,
	fun_active,
	fun_category,
	translated_description,
	translation_status,
	translated_at,
	created_at,
	updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var event Event
	if err := row.Scan(
		&event.EventID,
		&event.OwnerID,
		&event.Theme,
		&event.Title,
		&event.StartsAt,
		&event.Place,
		&event.Description,
		&event.DescriptionLang,
		&event.FunActive,
		&event.FunCategory,
		&event.TranslatedDescription,
		&event.TranslationStatus,
		&event.TranslatedAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &event, nil
}

func (p *Pool) CreateEvent(ctx context.Context, eventID, ownerID string, write EventWrite, now time.Time) (*Event, error) {
	q := `
INSERT INTO party.events (
	event_id,
	owner_id,
	theme,
	title,
	starts_at,
	place,
	description,
	description_lang,
	fun_active,
	fun_category,
	translated_description,
	translation_status,
	translated_at,
	created_at,
	updated_at
)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, NULL, $11, NULL, $12, $12)
RETURNING` + eventColumns

	event, err := scanEvent(p.QueryRow(ctx, q,
		strings.TrimSpace(eventID),
		strings.TrimSpace(ownerID),
		write.Theme,
		write.Title,
		write.StartsAt.UTC(),
		write.Place,
		write.Description,
		write.DescriptionLang,
		write.FunActive,
		write.FunCategory,
		write.TranslationStatus,
		now.UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// UpdateEvent replaces the author-controlled columns and clears any previous translation.
func (p *Pool) UpdateEvent(ctx context.Context, eventID string, write EventWrite, now time.Time) (*Event, error) {
	q := `
UPDATE party.events
SET
	theme = $2,
	title = $3,
	starts_at = $4,
	place = $5,
	description = $6,
	description_lang = $7,
	fun_active = $8,
	fun_category = $9,
	translated_description = NULL,
	translation_status = $10,
	translated_at = NULL,
	updated_at = $11
WHERE event_id = $1::uuid
RETURNING` + eventColumns

	event, err := scanEvent(p.QueryRow(ctx, q,
		strings.TrimSpace(eventID),
		write.Theme,
		write.Title,
		write.StartsAt.UTC(),
		write.Place,
		write.Description,
		write.DescriptionLang,
		write.FunActive,
		write.FunCategory,
		write.TranslationStatus,
		now.UTC(),
	))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (p *Pool) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	q := `SELECT` + eventColumns + `
FROM party.events
WHERE event_id = $1::uuid
LIMIT 1
`
	event, err := scanEvent(p.QueryRow(ctx, q, strings.TrimSpace(eventID)))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query event: %w", err)
	}
	return event, nil
}

func (p *Pool) ListEventsByOwner(ctx context.Context, ownerID string) ([]Event, error) {
	q := `SELECT` + eventColumns + `
FROM party.events
WHERE owner_id = $1::uuid
ORDER BY starts_at ASC, event_id ASC
`
	return p.queryEvents(ctx, "list owner events", q, strings.TrimSpace(ownerID))
}

func (p *Pool) ListEvents(ctx context.Context, limit, offset int) ([]Event, error) {
	q := `SELECT` + eventColumns + `
FROM party.events
ORDER BY starts_at ASC, event_id ASC
LIMIT $1 OFFSET $2
`
	return p.queryEvents(ctx, "list events", q, limit, offset)
}

// ListPendingTranslations returns events whose translation never finished, oldest first.
func (p *Pool) ListPendingTranslations(ctx context.Context, limit int) ([]Event, error) {
	q := `SELECT` + eventColumns + `
FROM party.events
WHERE translation_status = 'pending'
ORDER BY updated_at ASC
LIMIT $1
`
	return p.queryEvents(ctx, "list pending translations", q, limit)
}

func (p *Pool) queryEvents(ctx context.Context, label, q string, args ...any) ([]Event, error) {
	rows, err := p.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", label, err)
		}
		out = append(out, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", label, err)
	}
	return out, nil
}

// MarkEventTranslationPending resets a fun-active event so its description is translated again.
func (p *Pool) MarkEventTranslationPending(ctx context.Context, eventID string, now time.Time) (*Event, error) {
	q := `
UPDATE party.events
SET
	translation_status = 'pending',
	updated_at = $2
WHERE event_id = $1::uuid
RETURNING` + eventColumns

	event, err := scanEvent(p.QueryRow(ctx, q, strings.TrimSpace(eventID), now.UTC()))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("mark event translation pending: %w", err)
	}
	return event, nil
}

const applyEventTranslationSQL = `
UPDATE party.events
SET
	translated_description = $4,
	translation_status = $5,
	translated_at = $6
WHERE event_id = $1::uuid
  AND fun_active
  AND description = $2
  AND lower(fun_category) = lower($3)
  AND coalesce(description_lang, '') = $7
`

// ApplyEventTranslation stores a translation only if the row still holds the text and
// category it was computed from. It reports whether a row was updated.
func (p *Pool) ApplyEventTranslation(ctx context.Context, update EventTranslationUpdate) (bool, error) {
	tag, err := p.Exec(ctx, applyEventTranslationSQL,
		strings.TrimSpace(update.EventID),
		update.SourceText,
		update.Category,
		update.TranslatedText,
		update.Status,
		update.TranslatedAt.UTC(),
		strings.TrimSpace(update.SourceLang),
	)
	if err != nil {
		return false, fmt.Errorf("apply event translation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteEvent removes an event with its items and guests in one transaction.
// It returns ErrNoRows for unknown events and ErrConfirmedGuests when anyone has confirmed.
func (p *Pool) DeleteEvent(ctx context.Context, eventID string) error {
	trimmedID := strings.TrimSpace(eventID)
	if trimmedID == "" {
		return fmt.Errorf("event id is required")
	}

	return p.InTx(ctx, func(tx Tx) error {
		const lockEvent = `
SELECT event_id::text
FROM party.events
WHERE event_id = $1::uuid
FOR UPDATE
`
		var lockedID string
		if err := tx.QueryRow(ctx, lockEvent, trimmedID).Scan(&lockedID); err != nil {
			if IsNoRows(err) {
				return ErrNoRows
			}
			return fmt.Errorf("lock event: %w", err)
		}

		const countConfirmed = `
SELECT COUNT(*)
FROM party.guests
WHERE event_id = $1::uuid
  AND confirmed
`
		var confirmed int64
		if err := tx.QueryRow(ctx, countConfirmed, trimmedID).Scan(&confirmed); err != nil {
			return fmt.Errorf("count confirmed guests: %w", err)
		}
		if confirmed > 0 {
			return ErrConfirmedGuests
		}

		if _, err := tx.Exec(ctx, `DELETE FROM party.items WHERE event_id = $1::uuid`, trimmedID); err != nil {
			return fmt.Errorf("delete event items: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM party.guests WHERE event_id = $1::uuid`, trimmedID); err != nil {
			return fmt.Errorf("delete event guests: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM party.events WHERE event_id = $1::uuid`, trimmedID); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
}
