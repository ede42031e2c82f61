package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
)

//go:embed event.schema.json
var eventSchemaJSON string

//go:embed guest.schema.json
var guestSchemaJSON string

//go:embed item.schema.json
var itemSchemaJSON string

// ErrInvalidPayload wraps every decode, schema and semantic failure.
var ErrInvalidPayload = errors.New("invalid payload")

type EventPayload struct {
	Title           string  `json:"title"`
	Theme           string  `json:"theme"`
	StartsAtRaw     string  `json:"starts_at"`
	Place           string  `json:"place"`
	Description     *string `json:"description,omitempty"`
	DescriptionLang *string `json:"description_lang,omitempty"`
	FunActive       bool    `json:"fun_active"`
	FunCategory     *string `json:"fun_category,omitempty"`

	StartsAt time.Time `json:"-"`
}

type GuestPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ItemPayload keeps value as a decimal so prices never pass through float64.
type ItemPayload struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

type compiledSchema struct {
	name   string
	source string
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

var (
	eventSchema = &compiledSchema{name: "event.schema.json", source: eventSchemaJSON}
	guestSchema = &compiledSchema{name: "guest.schema.json", source: guestSchemaJSON}
	itemSchema  = &compiledSchema{name: "item.schema.json", source: itemSchemaJSON}
)

func ValidateEventPayload(payload []byte) (*EventPayload, error) {
	var event EventPayload
	if err := validateInto(eventSchema, payload, &event); err != nil {
		return nil, err
	}
	if err := validateEventSemantics(&event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &event, nil
}

func ValidateGuestPayload(payload []byte) (*GuestPayload, error) {
	var guest GuestPayload
	if err := validateInto(guestSchema, payload, &guest); err != nil {
		return nil, err
	}
	if strings.TrimSpace(guest.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidPayload)
	}
	return &guest, nil
}

func ValidateItemPayload(payload []byte) (*ItemPayload, error) {
	var item ItemPayload
	if err := validateInto(itemSchema, payload, &item); err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidPayload)
	}
	return &item, nil
}

func validateInto(cs *compiledSchema, payload []byte, out any) error {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return fmt.Errorf("%w: decode payload JSON: %v", ErrInvalidPayload, err)
	}

	schema, err := cs.load()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%w: schema validation failed: %v", ErrInvalidPayload, err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("normalize payload JSON: %w", err)
	}
	if err := json.Unmarshal(normalized, out); err != nil {
		return fmt.Errorf("%w: unmarshal payload: %v", ErrInvalidPayload, err)
	}
	return nil
}

func (cs *compiledSchema) load() (*jsonschema.Schema, error) {
	cs.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource(cs.name, strings.NewReader(cs.source)); err != nil {
			cs.err = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile(cs.name)
		if err != nil {
			cs.err = fmt.Errorf("compile schema: %w", err)
			return
		}
		cs.schema = schema
	})

	if cs.err != nil {
		return nil, cs.err
	}
	if cs.schema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return cs.schema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateEventSemantics(event *EventPayload) error {
	if event == nil {
		return fmt.Errorf("payload is nil")
	}
	if strings.TrimSpace(event.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}

	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(event.StartsAtRaw))
	if err != nil {
		return fmt.Errorf("starts_at must be RFC3339: %w", err)
	}
	event.StartsAt = startsAt.UTC()

	if event.FunActive && (event.FunCategory == nil || strings.TrimSpace(*event.FunCategory) == "") {
		return fmt.Errorf("fun_category is required when fun_active is true")
	}
	return nil
}
