package models

import (
	"time"

	"gorm.io/datatypes"
)

// Invoice is an immutable snapshot produced by one run of a recurring
// template (or a one-off creation). Only payment/status fields change
// after creation.
type Invoice struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	InvoiceNumber string    `json:"invoice_number" gorm:"uniqueIndex"`
	InvoiceDate   time.Time `json:"invoice_date"`

	CId      uint     `json:"-"`
	Customer Customer `json:"-" gorm:"foreignKey:CId;references:Id"`

	// Customer as it looked at generation time; later customer edits must
	// not retroactively alter historical invoices.
	CustomerSnapshot datatypes.JSON `json:"customer" gorm:"type:jsonb"`

	// Back-reference to the template that spawned this invoice. Nil for
	// one-off invoices.
	RecurringInvoiceID *uint `json:"recurring_invoice_id" gorm:"index"`

	Items []InvoiceItem `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	Subtotal      float64 `json:"subtotal" gorm:"type:numeric(12,2)"`
	TotalDiscount float64 `json:"total_discount" gorm:"type:numeric(12,2)"`
	TotalTaxable  float64 `json:"total_taxable" gorm:"type:numeric(12,2)"`
	TotalCGST     float64 `json:"total_cgst" gorm:"type:numeric(12,2)"`
	TotalSGST     float64 `json:"total_sgst" gorm:"type:numeric(12,2)"`
	TotalIGST     float64 `json:"total_igst" gorm:"type:numeric(12,2)"`
	GrandTotal    float64 `json:"grand_total" gorm:"type:numeric(12,2)"`

	Status    string  `json:"status" gorm:"type:VARCHAR(10);default:'draft'"` // draft|issued|paid
	PaidTotal float64 `json:"paid_total" gorm:"type:numeric(12,2)"`

	CreatedAt time.Time `json:"created_at"`
}

type InvoiceItem struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	InvoiceID uint   `json:"-" gorm:"index"`
	ProductID string `json:"product_id" gorm:"index"`
	Name      string `json:"name"`

	UnitPrice       float64 `json:"unit_price" gorm:"type:numeric(12,2)"`
	Quantity        int     `json:"quantity"`
	DiscountPercent float64 `json:"discount_percent"`
	TaxRate         float64 `json:"tax_rate"`

	DiscountAmount float64 `json:"discount_amount" gorm:"type:numeric(12,2)"`
	TaxableAmount  float64 `json:"taxable_amount" gorm:"type:numeric(12,2)"`
	CGSTAmount     float64 `json:"cgst_amount" gorm:"type:numeric(12,2)"`
	SGSTAmount     float64 `json:"sgst_amount" gorm:"type:numeric(12,2)"`
	IGSTAmount     float64 `json:"igst_amount" gorm:"type:numeric(12,2)"`
	LineNet        float64 `json:"line_net" gorm:"type:numeric(12,2)"`
}

// Payment survives status changes; linked to invoice.
type Payment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	InvoiceID uint      `json:"invoice_id" gorm:"index:idx_payments_invoice_paid_at,priority:1"`
	Amount    float64   `json:"amount" gorm:"type:numeric(12,2)"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	Note      string    `json:"note"`
	PaidAt    time.Time `json:"paid_at" gorm:"index:idx_payments_invoice_paid_at,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}
