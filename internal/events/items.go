package events

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"horse.fit/partyplan/internal/db"
	"horse.fit/partyplan/internal/globaltime"
)

const (
	maxItemNameLength = 200
	maxItemQuantity   = 100000
)

// maxItemValue is the largest value a numeric(12,2) column holds.
var maxItemValue = decimal.RequireFromString("9999999999.99")

// ItemInput is what an organizer asks guests to bring.
type ItemInput struct {
	Name     string
	Quantity int
	Value    decimal.Decimal
}

func (s *Service) CreateItem(ctx context.Context, eventID string, input ItemInput) (*db.Item, error) {
	write, err := buildItemWrite(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	item, err := s.store.CreateItem(ctx, uuid.NewString(), eventID, write, globaltime.UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("event_id", eventID).Str("item_id", item.ItemID).Msg("item created")
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, itemID string, input ItemInput) (*db.Item, error) {
	if !isUUID(itemID) {
		return nil, ErrItemNotFound
	}
	write, err := buildItemWrite(input)
	if err != nil {
		return nil, err
	}
	item, err := s.store.UpdateItem(ctx, itemID, write, globaltime.UTC())
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) GetItem(ctx context.Context, itemID string) (*db.Item, error) {
	if !isUUID(itemID) {
		return nil, ErrItemNotFound
	}
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) ListItems(ctx context.Context, eventID string) ([]db.Item, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListItemsByEvent(ctx, eventID)
}

// ListGuestItems lists what a guest has agreed to bring.
func (s *Service) ListGuestItems(ctx context.Context, guestID string) ([]db.Item, error) {
	if _, err := s.getGuest(ctx, guestID); err != nil {
		return nil, err
	}
	return s.store.ListItemsByGuest(ctx, guestID)
}

func (s *Service) DeleteItem(ctx context.Context, itemID string) error {
	if !isUUID(itemID) {
		return ErrItemNotFound
	}
	if err := s.store.DeleteItem(ctx, itemID); err != nil {
		if db.IsNoRows(err) {
			return ErrItemNotFound
		}
		return err
	}
	return nil
}

// AssignItem records that guestID will bring itemID. Both must belong to the same event.
func (s *Service) AssignItem(ctx context.Context, itemID, guestID string) (*db.Item, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	guest, err := s.getGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if guest.EventID != item.EventID {
		return nil, invalidf("guest is not invited to the item's event")
	}

	assigned, err := s.store.AssignItemToGuest(ctx, itemID, guestID, globaltime.UTC())
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return assigned, nil
}

// UnassignItem releases an item. It reports ErrItemNotFound unless guestID currently holds it.
func (s *Service) UnassignItem(ctx context.Context, itemID, guestID string) (*db.Item, error) {
	if !isUUID(itemID) || !isUUID(guestID) {
		return nil, ErrItemNotFound
	}
	item, err := s.store.UnassignItemFromGuest(ctx, itemID, guestID, globaltime.UTC())
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) getGuest(ctx context.Context, guestID string) (*db.Guest, error) {
	if !isUUID(guestID) {
		return nil, ErrGuestNotFound
	}
	guest, err := s.store.GetGuest(ctx, guestID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	return guest, nil
}

func buildItemWrite(input ItemInput) (db.ItemWrite, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return db.ItemWrite{}, invalidf("item name is required")
	}
	if len([]rune(name)) > maxItemNameLength {
		return db.ItemWrite{}, invalidf("item name must be at most %d characters", maxItemNameLength)
	}
	if input.Quantity < 1 || input.Quantity > maxItemQuantity {
		return db.ItemWrite{}, invalidf("quantity must be between 1 and %d", maxItemQuantity)
	}
	value := input.Value.Round(2)
	if value.IsNegative() {
		return db.ItemWrite{}, invalidf("value must not be negative")
	}
	if value.GreaterThan(maxItemValue) {
		return db.ItemWrite{}, invalidf("value must be at most %s", maxItemValue.StringFixed(2))
	}
	return db.ItemWrite{Name: name, Quantity: input.Quantity, Value: value}, nil
}
