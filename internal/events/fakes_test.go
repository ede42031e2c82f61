package events

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"horse.fit/partyplan/internal/db"
	"horse.fit/partyplan/internal/funtranslate"
)

type memoryStore struct {
	mu      sync.Mutex
	owners  map[string]db.Owner
	events  map[string]db.Event
	guests  map[string]db.Guest
	items   map[string]db.Item
	applied []db.EventTranslationUpdate
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		owners: map[string]db.Owner{},
		events: map[string]db.Event{},
		guests: map[string]db.Guest{},
		items:  map[string]db.Item{},
	}
}

func (s *memoryStore) CreateOwner(_ context.Context, params db.CreateOwnerParams) (*db.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, owner := range s.owners {
		if owner.Email == params.Email {
			return nil, db.ErrDuplicateEmail
		}
	}
	owner := db.Owner{
		OwnerID:      params.OwnerID,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    params.Now,
		UpdatedAt:    params.Now,
	}
	s.owners[owner.OwnerID] = owner
	return &owner, nil
}

func (s *memoryStore) GetOwner(_ context.Context, ownerID string) (*db.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.owners[ownerID]
	if !ok {
		return nil, db.ErrNoRows
	}
	return &owner, nil
}

func (s *memoryStore) CreateEvent(_ context.Context, eventID, ownerID string, write db.EventWrite, now time.Time) (*db.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event := applyWrite(db.Event{EventID: eventID, OwnerID: ownerID, CreatedAt: now}, write, now)
	s.events[eventID] = event
	return &event, nil
}

func (s *memoryStore) UpdateEvent(_ context.Context, eventID string, write db.EventWrite, now time.Time) (*db.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[eventID]
	if !ok {
		return nil, db.ErrNoRows
	}
	event := applyWrite(existing, write, now)
	s.events[eventID] = event
	return &event, nil
}

func applyWrite(event db.Event, write db.EventWrite, now time.Time) db.Event {
	event.Theme = write.Theme
	event.Title = write.Title
	event.StartsAt = write.StartsAt
	event.Place = write.Place
	event.Description = write.Description
	event.DescriptionLang = write.DescriptionLang
	event.FunActive = write.FunActive
	event.FunCategory = write.FunCategory
	event.TranslationStatus = write.TranslationStatus
	event.TranslatedDescription = nil
	event.TranslatedAt = nil
	event.UpdatedAt = now
	return event
}

func (s *memoryStore) GetEvent(_ context.Context, eventID string) (*db.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return nil, db.ErrNoRows
	}
	return &event, nil
}

func (s *memoryStore) ListEventsByOwner(_ context.Context, ownerID string) ([]db.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Event, 0)
	for _, event := range s.events {
		if event.OwnerID == ownerID {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (s *memoryStore) ListEvents(_ context.Context, limit, offset int) ([]db.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Event, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	if offset >= len(out) {
		return []db.Event{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) DeleteEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return db.ErrNoRows
	}
	for _, guest := range s.guests {
		if guest.EventID == eventID && guest.Confirmed {
			return db.ErrConfirmedGuests
		}
	}
	for id, item := range s.items {
		if item.EventID == eventID {
			delete(s.items, id)
		}
	}
	for id, guest := range s.guests {
		if guest.EventID == eventID {
			delete(s.guests, id)
		}
	}
	delete(s.events, eventID)
	return nil
}

func (s *memoryStore) MarkEventTranslationPending(_ context.Context, eventID string, now time.Time) (*db.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return nil, db.ErrNoRows
	}
	event.TranslationStatus = db.TranslationPending
	event.UpdatedAt = now
	s.events[eventID] = event
	return &event, nil
}

func (s *memoryStore) AddGuest(_ context.Context, guestID, eventID, name, email string, now time.Time) (*db.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, guest := range s.guests {
		if guest.EventID == eventID && guest.Email == email {
			return nil, db.ErrDuplicateGuest
		}
	}
	guest := db.Guest{GuestID: guestID, EventID: eventID, Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	s.guests[guestID] = guest
	return &guest, nil
}

func (s *memoryStore) ListGuests(_ context.Context, eventID string) ([]db.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Guest, 0)
	for _, guest := range s.guests {
		if guest.EventID == eventID {
			out = append(out, guest)
		}
	}
	return out, nil
}

func (s *memoryStore) ConfirmGuest(_ context.Context, guestID string, now time.Time) (*db.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guest, ok := s.guests[guestID]
	if !ok {
		return nil, db.ErrNoRows
	}
	guest.Confirmed = true
	if guest.ConfirmedAt == nil {
		guest.ConfirmedAt = &now
	}
	s.guests[guestID] = guest
	return &guest, nil
}

func (s *memoryStore) GetGuest(_ context.Context, guestID string) (*db.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guest, ok := s.guests[guestID]
	if !ok {
		return nil, db.ErrNoRows
	}
	return &guest, nil
}

func (s *memoryStore) CreateItem(_ context.Context, itemID, eventID string, write db.ItemWrite, now time.Time) (*db.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := db.Item{
		ItemID:    itemID,
		EventID:   eventID,
		Name:      write.Name,
		Quantity:  write.Quantity,
		Value:     write.Value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.items[itemID] = item
	return &item, nil
}

func (s *memoryStore) UpdateItem(_ context.Context, itemID string, write db.ItemWrite, now time.Time) (*db.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, db.ErrNoRows
	}
	item.Name = write.Name
	item.Quantity = write.Quantity
	item.Value = write.Value
	item.UpdatedAt = now
	s.items[itemID] = item
	return &item, nil
}

func (s *memoryStore) GetItem(_ context.Context, itemID string) (*db.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, db.ErrNoRows
	}
	return &item, nil
}

func (s *memoryStore) ListItemsByEvent(_ context.Context, eventID string) ([]db.Item, error) {
	return s.filterItems(func(item db.Item) bool { return item.EventID == eventID }), nil
}

func (s *memoryStore) ListItemsByGuest(_ context.Context, guestID string) ([]db.Item, error) {
	return s.filterItems(func(item db.Item) bool { return item.GuestID != nil && *item.GuestID == guestID }), nil
}

func (s *memoryStore) filterItems(keep func(db.Item) bool) []db.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Item, 0)
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

func (s *memoryStore) DeleteItem(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[itemID]; !ok {
		return db.ErrNoRows
	}
	delete(s.items, itemID)
	return nil
}

func (s *memoryStore) AssignItemToGuest(_ context.Context, itemID, guestID string, now time.Time) (*db.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	guest, found := s.guests[guestID]
	if !ok || !found || guest.EventID != item.EventID {
		return nil, db.ErrNoRows
	}
	id := guestID
	item.GuestID = &id
	item.UpdatedAt = now
	s.items[itemID] = item
	return &item, nil
}

func (s *memoryStore) UnassignItemFromGuest(_ context.Context, itemID, guestID string, now time.Time) (*db.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || item.GuestID == nil || *item.GuestID != guestID {
		return nil, db.ErrNoRows
	}
	item.GuestID = nil
	item.UpdatedAt = now
	s.items[itemID] = item
	return &item, nil
}

func (s *memoryStore) ApplyEventTranslation(_ context.Context, update db.EventTranslationUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, update)
	event, ok := s.events[update.EventID]
	if !ok || !event.FunActive || event.Description == nil || *event.Description != update.SourceText {
		return false, nil
	}
	if event.FunCategory == nil || !strings.EqualFold(*event.FunCategory, update.Category) {
		return false, nil
	}
	lang := ""
	if event.DescriptionLang != nil {
		lang = *event.DescriptionLang
	}
	if lang != update.SourceLang {
		return false, nil
	}
	text := update.TranslatedText
	at := update.TranslatedAt
	event.TranslatedDescription = &text
	event.TranslationStatus = update.Status
	event.TranslatedAt = &at
	s.events[update.EventID] = event
	return true, nil
}

func (s *memoryStore) ListPendingTranslations(_ context.Context, limit int) ([]db.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Event, 0)
	for _, event := range s.events {
		if event.TranslationStatus == db.TranslationPending {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) event(id string) db.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

func (s *memoryStore) appliedUpdates() []db.EventTranslationUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db.EventTranslationUpdate(nil), s.applied...)
}

type recordingQueue struct {
	jobs []Job
	err  error
}

func (q *recordingQueue) Submit(job Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type scriptedTranslator struct {
	mu       sync.Mutex
	requests []funtranslate.Request
	outcome  func(req funtranslate.Request) funtranslate.Outcome
}

func (t *scriptedTranslator) Translate(_ context.Context, req funtranslate.Request) funtranslate.Outcome {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()
	if t.outcome != nil {
		return t.outcome(req)
	}
	return funtranslate.Outcome{Text: "ahoy " + *req.SourceText, Applied: true, Category: req.Category}
}

func (t *scriptedTranslator) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}
