package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/checkoutpos/billing-api/pkg/money"
	"gorm.io/gorm"
)

// Bill represents one completed sale. A bill is written exactly once,
// together with its items and the stock decrements, and is immutable
// afterwards.
type Bill struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID      *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Subtotal        int64      `gorm:"not null" json:"-"` // Stored in minor units, excluded from JSON
	TotalTax        int64      `gorm:"not null" json:"-"`
	GrandTotal      int64      `gorm:"not null" json:"-"`
	PaidAmount      int64      `gorm:"not null" json:"-"`
	ChangeGiven     int64      `gorm:"not null" json:"-"`
	ChangeBreakdown string     `gorm:"type:text" json:"-"` // denomination->count JSON blob
	CreatedAt       time.Time  `json:"created_at"`

	// Relationships
	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []BillItem `gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// MarshalJSON custom marshaler to render minor-unit amounts as decimal strings
func (b Bill) MarshalJSON() ([]byte, error) {
	type Alias Bill
	return json.Marshal(&struct {
		Alias
		Subtotal    money.Money `json:"total_without_tax"`
		TotalTax    money.Money `json:"total_tax"`
		GrandTotal  money.Money `json:"total_with_tax"`
		PaidAmount  money.Money `json:"paid_amount"`
		ChangeGiven money.Money `json:"change_given"`
	}{
		Alias:       Alias(b),
		Subtotal:    money.FromMinor(b.Subtotal),
		TotalTax:    money.FromMinor(b.TotalTax),
		GrandTotal:  money.FromMinor(b.GrandTotal),
		PaidAmount:  money.FromMinor(b.PaidAmount),
		ChangeGiven: money.FromMinor(b.ChangeGiven),
	})
}

// BeforeCreate generates a UUID before creating a new bill
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Bill model
func (Bill) TableName() string {
	return "bills"
}

// OwedChange is the change the customer was due, derived from the stored
// totals. Subtracting ChangeGiven from it yields the unreturned remainder.
func (b *Bill) OwedChange() money.Money {
	return money.Max(money.FromMinor(b.PaidAmount-b.GrandTotal), money.Zero)
}

// BillItem is the persisted snapshot of one cart line. Price, tax rate,
// name and code are copied from the product at sale time so later product
// edits never rewrite a historical bill.
type BillItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BillID      uuid.UUID `gorm:"type:uuid;not null;index" json:"bill_id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductCode string    `gorm:"size:100;not null" json:"product_id"`
	ProductName string    `gorm:"size:255;not null" json:"product_name"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   int64     `gorm:"not null" json:"-"` // Stored in minor units, excluded from JSON
	TaxRate     int64     `gorm:"not null" json:"-"` // Stored in basis points, excluded from JSON
	LineTotal   int64     `gorm:"not null" json:"-"` // Pre-tax line subtotal in minor units
	CreatedAt   time.Time `json:"created_at"`
}

// MarshalJSON custom marshaler to render minor-unit amounts as decimal strings
func (bi BillItem) MarshalJSON() ([]byte, error) {
	type Alias BillItem
	return json.Marshal(&struct {
		Alias
		UnitPrice money.Money `json:"unit_price"`
		TaxRate   string      `json:"tax_percentage"`
		LineTotal money.Money `json:"line_total"`
	}{
		Alias:     Alias(bi),
		UnitPrice: money.FromMinor(bi.UnitPrice),
		TaxRate:   money.BasisPointsDecimal(bi.TaxRate).StringFixed(2),
		LineTotal: money.FromMinor(bi.LineTotal),
	})
}

// BeforeCreate generates a UUID before creating a new bill item
func (bi *BillItem) BeforeCreate(tx *gorm.DB) error {
	if bi.ID == uuid.Nil {
		bi.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillItem model
func (BillItem) TableName() string {
	return "bill_items"
}
