package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Denomination is one row of the persisted cash drawer: a note/coin face
// value (in major currency units) and how many of it the drawer holds.
type Denomination struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Value          int64     `gorm:"unique;not null" json:"value"`
	AvailableCount int       `gorm:"default:0;check:available_count >= 0" json:"available_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new denomination
func (d *Denomination) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Denomination model
func (Denomination) TableName() string {
	return "denominations"
}
