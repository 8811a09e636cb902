package models

type Customer struct {
	Id           uint   `json:"id" gorm:"primaryKey"`
	CompanyName  string `json:"company_name" gorm:"not null;unique"`
	Address      string `json:"address" gorm:"not null"`
	City         string `json:"city" gorm:"not null"`
	Country      string `json:"country" gorm:"not null"`
	Zip          string `json:"zip" gorm:"not null"`
	Email        string `json:"email" gorm:"unique;not null"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PhoneNumber  string `json:"phone_number"`
	MobileNumber string `json:"mobile_number"`

	// Tax locale. IsInterState decides IGST vs CGST+SGST on generated invoices.
	TaxNumber    string `json:"tax_number"`
	StateCode    string `json:"state_code"`
	IsInterState bool   `json:"is_inter_state"`

	// Rolled-up gross total of all invoices generated for this customer.
	// Best-effort: the invoices themselves stay the source of truth.
	LifetimeSpend float64 `json:"lifetime_spend" gorm:"type:numeric(14,2)"`

	Active bool `json:"-"`
}
