package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horse.fit/partyplan/internal/auth"
	"horse.fit/partyplan/internal/db"
	"horse.fit/partyplan/internal/funtranslate"
	"horse.fit/partyplan/internal/globaltime"
	"horse.fit/partyplan/internal/language"
)

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrOwnerNotFound           = errors.New("party owner not found")
	ErrEventNotFound           = errors.New("event not found")
	ErrGuestNotFound           = errors.New("guest not found")
	ErrItemNotFound            = errors.New("item not found")
	ErrEventHasConfirmedGuests = errors.New("event has confirmed guests")
	ErrEmailTaken              = errors.New("email already registered")
	ErrGuestAlreadyInvited     = errors.New("guest already invited")
	ErrTranslationDisabled     = errors.New("fun translation is not active for this event")
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	defaultListLimit     = 50
	maxListLimit         = 200
)

// Store is the persistence the service needs. *db.Pool satisfies it.
type Store interface {
	CreateOwner(ctx context.Context, params db.CreateOwnerParams) (*db.Owner, error)
	GetOwner(ctx context.Context, ownerID string) (*db.Owner, error)
	CreateEvent(ctx context.Context, eventID, ownerID string, write db.EventWrite, now time.Time) (*db.Event, error)
	UpdateEvent(ctx context.Context, eventID string, write db.EventWrite, now time.Time) (*db.Event, error)
	GetEvent(ctx context.Context, eventID string) (*db.Event, error)
	ListEventsByOwner(ctx context.Context, ownerID string) ([]db.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]db.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
	MarkEventTranslationPending(ctx context.Context, eventID string, now time.Time) (*db.Event, error)
	AddGuest(ctx context.Context, guestID, eventID, name, email string, now time.Time) (*db.Guest, error)
	ListGuests(ctx context.Context, eventID string) ([]db.Guest, error)
	ConfirmGuest(ctx context.Context, guestID string, now time.Time) (*db.Guest, error)
	GetGuest(ctx context.Context, guestID string) (*db.Guest, error)
	CreateItem(ctx context.Context, itemID, eventID string, write db.ItemWrite, now time.Time) (*db.Item, error)
	UpdateItem(ctx context.Context, itemID string, write db.ItemWrite, now time.Time) (*db.Item, error)
	GetItem(ctx context.Context, itemID string) (*db.Item, error)
	ListItemsByEvent(ctx context.Context, eventID string) ([]db.Item, error)
	ListItemsByGuest(ctx context.Context, guestID string) ([]db.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	AssignItemToGuest(ctx context.Context, itemID, guestID string, now time.Time) (*db.Item, error)
	UnassignItemFromGuest(ctx context.Context, itemID, guestID string, now time.Time) (*db.Item, error)
}

var _ Store = (*db.Pool)(nil)

// Translator runs the fun-translation pipeline. *funtranslate.Orchestrator satisfies it.
type Translator interface {
	Translate(ctx context.Context, req funtranslate.Request) funtranslate.Outcome
}

// JobQueue accepts translation jobs without blocking. *Dispatcher satisfies it.
type JobQueue interface {
	Submit(job Job) error
}

type CreateOwnerInput struct {
	Name     string
	Email    string
	Password string
}

// EventInput is the author-controlled content of an event.
type EventInput struct {
	Theme           string
	Title           string
	StartsAt        time.Time
	Place           string
	Description     *string
	DescriptionLang string
	FunActive       bool
	FunCategory     string
}

type Service struct {
	store      Store
	queue      JobQueue
	translator Translator
	logger     zerolog.Logger
}

func NewService(store Store, queue JobQueue, translator Translator, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		queue:      queue,
		translator: translator,
		logger:     logger.With().Str("component", "events").Logger(),
	}
}

func (s *Service) CreateOwner(ctx context.Context, input CreateOwnerInput) (*db.Owner, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	email, err := auth.NormalizeEmail(input.Email)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) || strings.TrimSpace(input.Password) == "" {
			return nil, invalidf("%v", err)
		}
		return nil, err
	}

	owner, err := s.store.CreateOwner(ctx, db.CreateOwnerParams{
		OwnerID:      uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Now:          globaltime.UTC(),
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info().Str("owner_id", owner.OwnerID).Msg("party owner created")
	return owner, nil
}

// CreateEvent persists the event with its original description and queues the fun translation.
func (s *Service) CreateEvent(ctx context.Context, ownerID string, input EventInput) (*db.Event, error) {
	if !isUUID(ownerID) {
		return nil, ErrOwnerNotFound
	}
	write, err := buildEventWrite(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetOwner(ctx, ownerID); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}

	event, err := s.store.CreateEvent(ctx, uuid.NewString(), ownerID, write, globaltime.UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("event_id", event.EventID).
		Str("owner_id", event.OwnerID).
		Str("translation_status", event.TranslationStatus).
		Msg("event created")

	s.enqueue(event)
	return event, nil
}

func (s *Service) UpdateEvent(ctx context.Context, eventID string, input EventInput) (*db.Event, error) {
	if !isUUID(eventID) {
		return nil, ErrEventNotFound
	}
	write, err := buildEventWrite(input)
	if err != nil {
		return nil, err
	}

	event, err := s.store.UpdateEvent(ctx, eventID, write, globaltime.UTC())
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	s.logger.Info().
		Str("event_id", event.EventID).
		Str("translation_status", event.TranslationStatus).
		Msg("event updated")

	s.enqueue(event)
	return event, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID string) (*db.Event, error) {
	if !isUUID(eventID) {
		return nil, ErrEventNotFound
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *Service) ListEventsByOwner(ctx context.Context, ownerID string) ([]db.Event, error) {
	if !isUUID(ownerID) {
		return nil, ErrOwnerNotFound
	}
	if _, err := s.store.GetOwner(ctx, ownerID); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	return s.store.ListEventsByOwner(ctx, ownerID)
}

// ListEvents pages through all events. A non-positive limit selects the default page size.
func (s *Service) ListEvents(ctx context.Context, limit, offset int) ([]db.Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListEvents(ctx, limit, offset)
}

// DeleteEvent removes an event with its items and guest list unless a guest already confirmed.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	if !isUUID(eventID) {
		return ErrEventNotFound
	}
	if err := s.store.DeleteEvent(ctx, eventID); err != nil {
		switch {
		case db.IsNoRows(err):
			return ErrEventNotFound
		case errors.Is(err, db.ErrConfirmedGuests):
			return ErrEventHasConfirmedGuests
		default:
			return err
		}
	}
	s.logger.Info().Str("event_id", eventID).Msg("event deleted")
	return nil
}

// RequestTranslation queues another translation of a fun-active event.
func (s *Service) RequestTranslation(ctx context.Context, eventID string) (*db.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if translationStatusFor(event.FunActive, event.Description) != db.TranslationPending {
		return nil, ErrTranslationDisabled
	}

	event, err = s.store.MarkEventTranslationPending(ctx, eventID, globaltime.UTC())
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	s.enqueue(event)
	return event, nil
}

func (s *Service) AddGuest(ctx context.Context, eventID, name, email string) (*db.Guest, error) {
	if !isUUID(eventID) {
		return nil, ErrEventNotFound
	}
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return nil, invalidf("guest name is required")
	}
	normalizedEmail, err := auth.NormalizeEmail(email)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	guest, err := s.store.AddGuest(ctx, uuid.NewString(), eventID, trimmedName, normalizedEmail, globaltime.UTC())
	if err != nil {
		if errors.Is(err, db.ErrDuplicateGuest) {
			return nil, ErrGuestAlreadyInvited
		}
		return nil, err
	}
	return guest, nil
}

func (s *Service) ListGuests(ctx context.Context, eventID string) ([]db.Guest, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListGuests(ctx, eventID)
}

func (s *Service) ConfirmGuest(ctx context.Context, guestID string) (*db.Guest, error) {
	if !isUUID(guestID) {
		return nil, ErrGuestNotFound
	}
	guest, err := s.store.ConfirmGuest(ctx, guestID, globaltime.UTC())
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	return guest, nil
}

// PreviewTranslation runs the pipeline synchronously without touching storage.
func (s *Service) PreviewTranslation(ctx context.Context, text, category, sourceLang string) (funtranslate.Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return funtranslate.Outcome{}, invalidf("text is required")
	}
	if len([]rune(text)) > maxDescriptionLength {
		return funtranslate.Outcome{}, invalidf("text must be at most %d characters", maxDescriptionLength)
	}
	if sourceLang != "" && language.NormalizeTag(sourceLang) == "" {
		return funtranslate.Outcome{}, invalidf("source_lang %q is not a valid language tag", sourceLang)
	}
	if s.translator == nil {
		return funtranslate.Outcome{}, fmt.Errorf("translator is not configured")
	}
	return s.translator.Translate(ctx, funtranslate.Request{
		SourceText: &text,
		Category:   category,
		SourceLang: sourceLang,
	}), nil
}

// enqueue hands a pending event to the dispatcher. A full queue leaves the row pending.
func (s *Service) enqueue(event *db.Event) {
	job, ok := JobFor(event)
	if !ok {
		return
	}
	if s.queue == nil {
		s.logger.Warn().Str("event_id", event.EventID).Msg("no translation queue configured; event stays pending")
		return
	}
	if err := s.queue.Submit(job); err != nil {
		s.logger.Warn().Err(err).Str("event_id", event.EventID).Msg("translation job not queued; event stays pending")
	}
}

func buildEventWrite(input EventInput) (db.EventWrite, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return db.EventWrite{}, invalidf("title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return db.EventWrite{}, invalidf("title must be at most %d characters", maxTitleLength)
	}
	if input.StartsAt.IsZero() {
		return db.EventWrite{}, invalidf("starts_at is required")
	}

	var description *string
	if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
		if len([]rune(*input.Description)) > maxDescriptionLength {
			return db.EventWrite{}, invalidf("description must be at most %d characters", maxDescriptionLength)
		}
		text := *input.Description
		description = &text
	}

	var descriptionLang *string
	if raw := strings.TrimSpace(input.DescriptionLang); raw != "" {
		tag := language.NormalizeTag(raw)
		if tag == "" {
			return db.EventWrite{}, invalidf("description_lang %q is not a valid language tag", raw)
		}
		descriptionLang = &tag
	}

	var category *string
	if trimmed := strings.TrimSpace(input.FunCategory); trimmed != "" {
		category = &trimmed
	}
	if input.FunActive && category == nil {
		return db.EventWrite{}, invalidf("fun_category is required when fun_active is true")
	}

	return db.EventWrite{
		Theme:             strings.TrimSpace(input.Theme),
		Title:             title,
		StartsAt:          input.StartsAt.UTC(),
		Place:             strings.TrimSpace(input.Place),
		Description:       description,
		DescriptionLang:   descriptionLang,
		FunActive:         input.FunActive,
		FunCategory:       category,
		TranslationStatus: translationStatusFor(input.FunActive, description),
	}, nil
}

func translationStatusFor(funActive bool, description *string) string {
	if funActive && description != nil && strings.TrimSpace(*description) != "" {
		return db.TranslationPending
	}
	return db.TranslationDisabled
}

func isUUID(raw string) bool {
	_, err := uuid.Parse(strings.TrimSpace(raw))
	return err == nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
