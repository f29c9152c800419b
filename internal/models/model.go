package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultModel is the base model for accounts, envelopes and categories.
//
// ID is the internal row id and is never exposed. PublicID is the identifier
// that callers use to reference the resource.
type DefaultModel struct {
	ID       uint64    `json:"-" gorm:"primaryKey"`
	PublicID uuid.UUID `json:"id" gorm:"type:uuid;uniqueIndex;not null" example:"65392deb-5e92-4268-b114-297faad6cdce"` // UUID for the resource
}

// BeforeCreate generates the public UUID for the resource unless one is already set.
func (m *DefaultModel) BeforeCreate(_ *gorm.DB) (err error) {
	if m.PublicID == uuid.Nil {
		m.PublicID = uuid.New()
	}
	return nil
}

// Timestamps holds the creation and modification time of a resource.
//
// They are not managed by gorm since ledger operations carry the time
// at which they happened.
type Timestamps struct {
	Created  time.Time `json:"created" example:"2022-04-02T19:28:44.491514Z"`  // Time the resource was created
	Modified time.Time `json:"modified" example:"2022-04-17T20:14:01.048145Z"` // Last time the resource was modified
}

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000. Yes, this is different.
//
// We already store them in UTC, but somehow reading
// them from the database returns them as +0000.
func (t *Timestamps) AfterFind(_ *gorm.DB) (err error) {
	t.Created = t.Created.In(time.UTC)
	t.Modified = t.Modified.In(time.UTC)
	return nil
}

// BeforeSave defaults unset timestamps to the current time and
// stores all timestamps in UTC.
func (t *Timestamps) BeforeSave(tx *gorm.DB) (err error) {
	if t.Created.IsZero() {
		t.Created = tx.NowFunc()
	}

	if t.Modified.IsZero() {
		t.Modified = t.Created
	}

	t.Created = t.Created.In(time.UTC)
	t.Modified = t.Modified.In(time.UTC)
	return nil
}
