package models

import "time"

// RecurringInvoice is the schedule-bearing template a concrete invoice is
// generated from. NextInvoiceDate never moves backwards: each successful
// run advances it by Interval units of Frequency.
type RecurringInvoice struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	CId      uint     `json:"-"`
	Customer Customer `json:"customer" gorm:"foreignKey:CId;references:Id"`

	Items []RecurringInvoiceItem `json:"items" gorm:"foreignKey:RecurringInvoiceID;constraint:OnDelete:CASCADE"`

	Frequency string `json:"frequency" gorm:"type:VARCHAR(10);not null"` // daily|weekly|monthly|yearly
	Interval  int    `json:"interval" gorm:"not null;default:1"`

	NextInvoiceDate time.Time  `json:"next_invoice_date" gorm:"index"`
	EndDate         *time.Time `json:"end_date"`

	Status string `json:"status" gorm:"type:VARCHAR(10);not null;default:'active';index"`

	TotalGenerated  int        `json:"total_generated"`
	LastGeneratedAt *time.Time `json:"last_generated_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RecurringInvoiceItem struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	RecurringInvoiceID uint   `json:"-" gorm:"index"`
	ProductID          string `json:"product_id" gorm:"index"` // optional FK to products.id
	Name               string `json:"name" gorm:"not null"`

	UnitPrice       float64 `json:"unit_price" gorm:"type:numeric(12,2)"`
	Quantity        int     `json:"quantity" gorm:"not null"`
	DiscountPercent float64 `json:"discount_percent"`
	TaxRate         float64 `json:"tax_rate"` // percent
}
