package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartyOwner maps party.owners.
type PartyOwner struct {
	OwnerID      string    `gorm:"column:owner_id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;type:text;not null"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex:owners_email_key"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (PartyOwner) TableName() string { return "party.owners" }

// PartyEvent maps party.events. Description keeps the author's text; TranslatedDescription
// is written later by the translation dispatcher.
type PartyEvent struct {
	EventID               string     `gorm:"column:event_id;type:uuid;primaryKey"`
	OwnerID               string     `gorm:"column:owner_id;type:uuid;not null;index:events_owner_starts_idx,priority:1"`
	Theme                 string     `gorm:"column:theme;type:text;not null;default:''"`
	Title                 string     `gorm:"column:title;type:text;not null"`
	StartsAt              time.Time  `gorm:"column:starts_at;type:timestamptz;not null;index:events_owner_starts_idx,priority:2"`
	Place                 string     `gorm:"column:place;type:text;not null;default:''"`
	Description           *string    `gorm:"column:description;type:text"`
	DescriptionLang       *string    `gorm:"column:description_lang;type:text"`
	FunActive             bool       `gorm:"column:fun_active;type:boolean;not null;default:false"`
	FunCategory           *string    `gorm:"column:fun_category;type:text"`
	TranslatedDescription *string    `gorm:"column:translated_description;type:text"`
	TranslationStatus     string     `gorm:"column:translation_status;type:text;not null;default:disabled"`
	TranslatedAt          *time.Time `gorm:"column:translated_at;type:timestamptz"`
	CreatedAt             time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt             time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (PartyEvent) TableName() string { return "party.events" }

// PartyGuest maps party.guests.
type PartyGuest struct {
	GuestID     string     `gorm:"column:guest_id;type:uuid;primaryKey"`
	EventID     string     `gorm:"column:event_id;type:uuid;not null;index:guests_event_idx"`
	Name        string     `gorm:"column:name;type:text;not null"`
	Email       string     `gorm:"column:email;type:text;not null"`
	Confirmed   bool       `gorm:"column:confirmed;type:boolean;not null;default:false"`
	ConfirmedAt *time.Time `gorm:"column:confirmed_at;type:timestamptz"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (PartyGuest) TableName() string { return "party.guests" }

// PartyItem maps party.items. GuestID is set while a guest has taken the item.
type PartyItem struct {
	ItemID    string          `gorm:"column:item_id;type:uuid;primaryKey"`
	EventID   string          `gorm:"column:event_id;type:uuid;not null;index:items_event_idx"`
	GuestID   *string         `gorm:"column:guest_id;type:uuid;index:items_guest_idx"`
	Name      string          `gorm:"column:name;type:text;not null"`
	Quantity  int             `gorm:"column:quantity;type:integer;not null;default:1"`
	Value     decimal.Decimal `gorm:"column:value;type:numeric(12,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (PartyItem) TableName() string { return "party.items" }

func autoMigrateModels() []any {
	return []any{
		&PartyOwner{},
		&PartyEvent{},
		&PartyGuest{},
		&PartyItem{},
	}
}
