package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/partyplan/internal/events"
	"horse.fit/partyplan/internal/globaltime"
	"horse.fit/partyplan/internal/payloadschema"
)

type createOwnerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type previewRequest struct {
	Text       string `json:"text"`
	Category   string `json:"category"`
	SourceLang string `json:"source_lang"`
}

func (s *Server) handleHealth(c echo.Context) error {
	data := map[string]any{
		"service": "partyplan",
		"time":    globaltime.UTC(),
	}
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.Error().Err(err).Msg("database health check failed")
			data["database"] = "unavailable"
			return fail(c, http.StatusServiceUnavailable, "Database unavailable", data)
		}
		data["database"] = "ok"
	}
	return success(c, data)
}

func (s *Server) handleCategories(c echo.Context) error {
	if s.categories == nil {
		return success(c, map[string]any{"items": []any{}})
	}
	return success(c, map[string]any{
		"items": s.categories.Descriptors(),
	})
}

// handlePreviewTranslation runs the pipeline synchronously and stores nothing.
func (s *Server) handlePreviewTranslation(c echo.Context) error {
	var req previewRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if strings.TrimSpace(req.Category) == "" {
		return failValidation(c, map[string]string{"category": "is required"})
	}

	outcome, err := s.service.PreviewTranslation(c.Request().Context(), req.Text, req.Category, req.SourceLang)
	if err != nil {
		return s.respondError(c, err, "preview translation")
	}
	return success(c, outcome)
}

func (s *Server) handleCreateOwner(c echo.Context) error {
	var req createOwnerRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	owner, err := s.service.CreateOwner(c.Request().Context(), events.CreateOwnerInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return s.respondError(c, err, "create owner")
	}
	return successWithStatus(c, http.StatusCreated, owner)
}

func (s *Server) handleListOwnerEvents(c echo.Context) error {
	items, err := s.service.ListEventsByOwner(c.Request().Context(), c.Param("owner_id"))
	if err != nil {
		return s.respondError(c, err, "list owner events")
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleCreateEvent(c echo.Context) error {
	input, err := readEventInput(c)
	if err != nil {
		return s.respondError(c, err, "create event")
	}

	event, err := s.service.CreateEvent(c.Request().Context(), c.Param("owner_id"), input)
	if err != nil {
		return s.respondError(c, err, "create event")
	}
	return successWithStatus(c, http.StatusCreated, event)
}

func (s *Server) handleListEvents(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}
	offset, err := parsePositiveInt(c.QueryParam("offset"), 0, 0, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"offset": err.Error()})
	}

	items, err := s.service.ListEvents(c.Request().Context(), limit, offset)
	if err != nil {
		return s.respondError(c, err, "list events")
	}
	return success(c, map[string]any{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleGetEvent(c echo.Context) error {
	event, err := s.service.GetEvent(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return s.respondError(c, err, "get event")
	}
	return success(c, event)
}

func (s *Server) handleUpdateEvent(c echo.Context) error {
	input, err := readEventInput(c)
	if err != nil {
		return s.respondError(c, err, "update event")
	}

	event, err := s.service.UpdateEvent(c.Request().Context(), c.Param("event_id"), input)
	if err != nil {
		return s.respondError(c, err, "update event")
	}
	return success(c, event)
}

func (s *Server) handleDeleteEvent(c echo.Context) error {
	eventID := c.Param("event_id")
	if err := s.service.DeleteEvent(c.Request().Context(), eventID); err != nil {
		return s.respondError(c, err, "delete event")
	}
	return success(c, map[string]any{
		"event_id": eventID,
		"deleted":  true,
	})
}

func (s *Server) handleRequestTranslation(c echo.Context) error {
	event, err := s.service.RequestTranslation(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return s.respondError(c, err, "request translation")
	}
	return successWithStatus(c, http.StatusAccepted, event)
}

func (s *Server) handleListGuests(c echo.Context) error {
	items, err := s.service.ListGuests(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return s.respondError(c, err, "list guests")
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleAddGuest(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	payload, err := payloadschema.ValidateGuestPayload(body)
	if err != nil {
		return s.respondError(c, err, "add guest")
	}

	guest, err := s.service.AddGuest(c.Request().Context(), c.Param("event_id"), payload.Name, payload.Email)
	if err != nil {
		return s.respondError(c, err, "add guest")
	}
	return successWithStatus(c, http.StatusCreated, guest)
}

func (s *Server) handleConfirmGuest(c echo.Context) error {
	guest, err := s.service.ConfirmGuest(c.Request().Context(), c.Param("guest_id"))
	if err != nil {
		return s.respondError(c, err, "confirm guest")
	}
	return success(c, guest)
}

func (s *Server) handleListItems(c echo.Context) error {
	items, err := s.service.ListItems(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return s.respondError(c, err, "list items")
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleCreateItem(c echo.Context) error {
	input, err := readItemInput(c)
	if err != nil {
		return s.respondError(c, err, "create item")
	}

	item, err := s.service.CreateItem(c.Request().Context(), c.Param("event_id"), input)
	if err != nil {
		return s.respondError(c, err, "create item")
	}
	return successWithStatus(c, http.StatusCreated, item)
}

func (s *Server) handleGetItem(c echo.Context) error {
	item, err := s.service.GetItem(c.Request().Context(), c.Param("item_id"))
	if err != nil {
		return s.respondError(c, err, "get item")
	}
	return success(c, item)
}

func (s *Server) handleUpdateItem(c echo.Context) error {
	input, err := readItemInput(c)
	if err != nil {
		return s.respondError(c, err, "update item")
	}

	item, err := s.service.UpdateItem(c.Request().Context(), c.Param("item_id"), input)
	if err != nil {
		return s.respondError(c, err, "update item")
	}
	return success(c, item)
}

func (s *Server) handleDeleteItem(c echo.Context) error {
	itemID := c.Param("item_id")
	if err := s.service.DeleteItem(c.Request().Context(), itemID); err != nil {
		return s.respondError(c, err, "delete item")
	}
	return success(c, map[string]any{
		"item_id": itemID,
		"deleted": true,
	})
}

func (s *Server) handleListGuestItems(c echo.Context) error {
	items, err := s.service.ListGuestItems(c.Request().Context(), c.Param("guest_id"))
	if err != nil {
		return s.respondError(c, err, "list guest items")
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleAssignItem(c echo.Context) error {
	item, err := s.service.AssignItem(c.Request().Context(), c.Param("item_id"), c.Param("guest_id"))
	if err != nil {
		return s.respondError(c, err, "assign item")
	}
	return success(c, item)
}

func (s *Server) handleUnassignItem(c echo.Context) error {
	item, err := s.service.UnassignItem(c.Request().Context(), c.Param("item_id"), c.Param("guest_id"))
	if err != nil {
		return s.respondError(c, err, "unassign item")
	}
	return success(c, item)
}

// respondError maps service errors to jsend responses. Unexpected errors are logged, never echoed.
func (s *Server) respondError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, events.ErrInvalidInput), errors.Is(err, payloadschema.ErrInvalidPayload):
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, events.ErrOwnerNotFound):
		return failNotFound(c, "Party owner not found")
	case errors.Is(err, events.ErrEventNotFound):
		return failNotFound(c, "Event not found")
	case errors.Is(err, events.ErrGuestNotFound):
		return failNotFound(c, "Guest not found")
	case errors.Is(err, events.ErrItemNotFound):
		return failNotFound(c, "Item not found")
	case errors.Is(err, events.ErrEventHasConfirmedGuests):
		return failConflict(c, "Event has confirmed guests and cannot be deleted")
	case errors.Is(err, events.ErrEmailTaken):
		return failConflict(c, "Email already registered")
	case errors.Is(err, events.ErrGuestAlreadyInvited):
		return failConflict(c, "Guest already invited")
	case errors.Is(err, events.ErrTranslationDisabled):
		return failConflict(c, "Fun translation is not active for this event")
	}

	s.logger.Error().Err(err).Str("action", action).Msg("request failed")
	return internalError(c, fmt.Sprintf("Failed to %s", action))
}

func readEventInput(c echo.Context) (events.EventInput, error) {
	body, err := readBody(c)
	if err != nil {
		return events.EventInput{}, fmt.Errorf("%w: %v", payloadschema.ErrInvalidPayload, err)
	}
	payload, err := payloadschema.ValidateEventPayload(body)
	if err != nil {
		return events.EventInput{}, err
	}

	input := events.EventInput{
		Theme:       payload.Theme,
		Title:       payload.Title,
		StartsAt:    payload.StartsAt,
		Place:       payload.Place,
		Description: payload.Description,
		FunActive:   payload.FunActive,
	}
	if payload.DescriptionLang != nil {
		input.DescriptionLang = *payload.DescriptionLang
	}
	if payload.FunCategory != nil {
		input.FunCategory = *payload.FunCategory
	}
	return input, nil
}

func readItemInput(c echo.Context) (events.ItemInput, error) {
	body, err := readBody(c)
	if err != nil {
		return events.ItemInput{}, fmt.Errorf("%w: %v", payloadschema.ErrInvalidPayload, err)
	}
	payload, err := payloadschema.ValidateItemPayload(body)
	if err != nil {
		return events.ItemInput{}, err
	}
	return events.ItemInput{
		Name:     payload.Name,
		Quantity: payload.Quantity,
		Value:    payload.Value,
	}, nil
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}
	return body, nil
}

func decodeJSONBody(c echo.Context, out any) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("body is required")
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("body contains trailing content")
	}
	return nil
}
