package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/checkoutpos/billing-api/pkg/money"
	"gorm.io/gorm"
)

// Product represents a sellable item in the catalogue
type Product struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Code            string         `gorm:"size:100;unique;not null;index" json:"code"`
	Name            string         `gorm:"size:255;not null" json:"name"`
	UnitPrice       int64          `gorm:"not null" json:"-"` // Stored in minor units, excluded from JSON
	TaxRate         int64          `gorm:"not null" json:"-"` // Stored in basis points, excluded from JSON
	AvailableStocks int            `gorm:"default:0;check:available_stocks >= 0" json:"available_stocks"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarshalJSON custom marshaler to render minor-unit amounts as decimal strings
func (p Product) MarshalJSON() ([]byte, error) {
	type Alias Product
	return json.Marshal(&struct {
		Alias
		UnitPrice money.Money `json:"unit_price"`
		TaxRate   string      `json:"tax_percentage"`
	}{
		Alias:     Alias(p),
		UnitPrice: money.FromMinor(p.UnitPrice),
		TaxRate:   money.BasisPointsDecimal(p.TaxRate).StringFixed(2),
	})
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
